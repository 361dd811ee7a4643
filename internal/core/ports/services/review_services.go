package services

import (
	"context"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/dto"
)

// ReviewLedgerSvc holds a reviewer's pre-commit state for each application at their stage.
type ReviewLedgerSvc interface {
	// OpenReview creates (or returns) the reviewer's entry for an application.
	OpenReview(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string) (*dto.ReviewStateResponse, error)

	// SetReviewed toggles the reviewed flag.
	SetReviewed(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string, reviewed bool) (*dto.ReviewStateResponse, error)

	// UpdateDraft stores unsaved comment text.
	UpdateDraft(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string, text string) (*dto.ReviewStateResponse, error)

	// SaveComment persists a comment. Blank text fails with apperrors.ErrEmptyComment.
	SaveComment(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string, text string) (*domain.WorkflowComment, error)

	// SaveDecision records the stage 4 decision. Rejecting without a reason fails with
	// apperrors.ErrMissingRejectionReason.
	SaveDecision(ctx context.Context, actor domain.Actor, appID string, decision domain.Decision, reason string) (*dto.ReviewStateResponse, error)

	// DiscardDraft drops unsaved draft text; saved comments are untouched.
	DiscardDraft(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string) error

	// UpdateComment edits a saved comment. Only the override role may call it.
	UpdateComment(ctx context.Context, actor domain.Actor, commentID string, text string) (*domain.WorkflowComment, error)
}

// PendingSvc lists a reviewer's pending set with readiness.
type PendingSvc interface {
	ListPending(ctx context.Context, actor domain.Actor, stage domain.Stage) (*dto.PendingListResponse, error)
}

// LedgerSnapshotSvc exposes ledger contents to the batch coordinator.
type LedgerSnapshotSvc interface {
	// EntriesForStage returns ledger entries at stage keyed by application id, seeding any
	// application without an entry from its persisted comments.
	EntriesForStage(ctx context.Context, stage domain.Stage, apps []domain.PermitApplication) map[string]domain.ReviewLedgerEntry

	// ClearEntries removes the entries of committed applications.
	ClearEntries(stage domain.Stage, appIDs []string)
}

// ReviewLedgerSvcFacade combines the review ledger interfaces
type ReviewLedgerSvcFacade interface {
	ReviewLedgerSvc
	PendingSvc
	LedgerSnapshotSvc
}
