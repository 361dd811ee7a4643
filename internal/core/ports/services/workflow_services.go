package services

import (
	"context"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// TransitionSvc performs single-application transitions.
type TransitionSvc interface {
	// Advance moves an application from expectedStage to the next review stage.
	Advance(ctx context.Context, actor domain.Actor, appID string, expectedStage domain.Stage) (*domain.PermitApplication, error)

	// Decide applies the final decision at stage 4 and returns the application to stage 1.
	Decide(ctx context.Context, actor domain.Actor, appID string, decision domain.Decision, reason string) (*domain.PermitApplication, error)
}

// BatchSvc commits a reviewer's whole pending set.
type BatchSvc interface {
	// SubmitBatch transitions every application at stage or none of them. An incomplete set
	// returns *workflow.BatchBlockedError; a failed commit returns *workflow.PartialCommitError.
	SubmitBatch(ctx context.Context, actor domain.Actor, stage domain.Stage) (*domain.BatchResult, error)
}

// WorkflowSvcFacade combines the workflow interfaces
type WorkflowSvcFacade interface {
	TransitionSvc
	BatchSvc
}
