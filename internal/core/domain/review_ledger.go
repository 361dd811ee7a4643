package domain

import "time"

// LedgerKey identifies a reviewer's draft state for one application at one stage.
type LedgerKey struct {
	ApplicationID string
	Stage         Stage
}

// ReviewLedgerEntry is the pre-commit review state held for a reviewer.
// It is never persisted as-is; saved comments and decisions become WorkflowComments.
type ReviewLedgerEntry struct {
	ApplicationID        string    `json:"applicationID"`
	Stage                Stage     `json:"stage"`
	ReviewerID           string    `json:"reviewerID"`
	Reviewed             bool      `json:"reviewed"`
	DraftComment         string    `json:"draftComment"`
	SavedComment         string    `json:"savedComment"`
	Decision             *Decision `json:"decision,omitempty"`
	RejectionReason      string    `json:"rejectionReason"`
	RejectionReasonSaved bool      `json:"rejectionReasonSaved"`
	OpenedAt             time.Time `json:"openedAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Key returns the composite key of the entry.
func (e ReviewLedgerEntry) Key() LedgerKey {
	return LedgerKey{ApplicationID: e.ApplicationID, Stage: e.Stage}
}

// Requirement names a completeness condition an application has not met.
type Requirement string

const (
	RequirementReviewed        Requirement = "reviewed"
	RequirementComment         Requirement = "comment"
	RequirementDecision        Requirement = "decision"
	RequirementRejectionReason Requirement = "rejectionReason"
)

// Readiness is the completeness verdict for one application. Reference carries the human
// readable application number when the verdict was computed from a loaded application.
type Readiness struct {
	ApplicationID string        `json:"applicationID"`
	Reference     string        `json:"reference,omitempty"`
	Ready         bool          `json:"ready"`
	Missing       []Requirement `json:"missing,omitempty"`
}

// BatchReadiness is the completeness verdict for a whole pending set.
type BatchReadiness struct {
	Stage Stage       `json:"stage"`
	Total int         `json:"total"`
	Ready int         `json:"ready"`
	Items []Readiness `json:"items"`
}

// AllReady reports whether every application in a non-empty set is ready.
func (b BatchReadiness) AllReady() bool {
	return b.Total > 0 && b.Ready == b.Total
}

// Blocked returns the items that are not ready.
func (b BatchReadiness) Blocked() []Readiness {
	var blocked []Readiness
	for _, item := range b.Items {
		if !item.Ready {
			blocked = append(blocked, item)
		}
	}
	return blocked
}
