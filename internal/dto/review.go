package dto

import (
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SetReviewedRequest toggles the reviewed flag.
type SetReviewedRequest struct {
	Reviewed *bool `json:"reviewed" binding:"required"`
}

// SaveCommentRequest carries a reviewer comment. Blank text is rejected by the service so the
// caller gets a specific message.
type SaveCommentRequest struct {
	Comment string `json:"comment" binding:"max=4000"`
}

// UpdateDraftRequest stores unsaved comment text for the reviewer.
type UpdateDraftRequest struct {
	DraftComment string `json:"draftComment" binding:"max=4000"`
}

// SaveDecisionRequest records the final decision at stage 4.
type SaveDecisionRequest struct {
	Decision domain.Decision `json:"decision" binding:"required,decision"`
	Reason   string          `json:"reason" binding:"max=4000"`
}

// UpdateCommentRequest is an override edit of a saved comment.
type UpdateCommentRequest struct {
	Comment string `json:"comment" binding:"max=4000"`
}

// ReviewStateResponse is a reviewer's ledger entry plus its readiness.
type ReviewStateResponse struct {
	Entry     domain.ReviewLedgerEntry `json:"entry"`
	Readiness domain.Readiness         `json:"readiness"`
}

// PendingApplication is one row of a reviewer's pending set.
type PendingApplication struct {
	Application ApplicationResponse       `json:"application"`
	Readiness   domain.Readiness          `json:"readiness"`
	Review      *domain.ReviewLedgerEntry `json:"review,omitempty"`
}

// PendingProgress counts progress across the pending set. Reviewed/Commented apply to
// stages 2 and 3; the decision counts apply to stage 4.
type PendingProgress struct {
	Total              int `json:"total"`
	Ready              int `json:"ready"`
	Reviewed           int `json:"reviewed"`
	Commented          int `json:"commented"`
	Approved           int `json:"approved"`
	Rejected           int `json:"rejected"`
	RejectedWithReason int `json:"rejectedWithReason"`
}

// PendingListResponse is the reviewer dashboard for one stage.
type PendingListResponse struct {
	Stage           domain.Stage         `json:"stage"`
	Progress        PendingProgress      `json:"progress"`
	TotalAllocation decimal.Decimal      `json:"totalAllocation"` // ML per annum
	CanSubmit       bool                 `json:"canSubmit"`
	Items           []PendingApplication `json:"items"`
}

// BatchSubmitResponse is the outcome of a batch submission.
type BatchSubmitResponse struct {
	Stage        domain.Stage       `json:"stage"`
	Submitted    bool               `json:"submitted"`
	Message      string             `json:"message"`
	Total        int                `json:"total"`
	Ready        int                `json:"ready"`
	SucceededIDs []string           `json:"succeededIds"`
	BlockedIDs   []string           `json:"blockedIds"`
	Blocked      []domain.Readiness `json:"blocked,omitempty"`
	Errors       map[string]string  `json:"errors,omitempty"`
}

// ToBatchSubmitResponse converts a domain.BatchResult to BatchSubmitResponse DTO.
func ToBatchSubmitResponse(r *domain.BatchResult, message string) BatchSubmitResponse {
	resp := BatchSubmitResponse{
		Stage:        r.Stage,
		Submitted:    len(r.BlockedIDs) == 0 && len(r.Errors) == 0 && len(r.SucceededIDs) > 0,
		Message:      message,
		Total:        r.Readiness.Total,
		Ready:        r.Readiness.Ready,
		SucceededIDs: r.SucceededIDs,
		BlockedIDs:   r.BlockedIDs,
		Blocked:      r.Readiness.Blocked(),
		Errors:       r.Errors,
	}
	if resp.SucceededIDs == nil {
		resp.SucceededIDs = []string{}
	}
	if resp.BlockedIDs == nil {
		resp.BlockedIDs = []string{}
	}
	return resp
}
