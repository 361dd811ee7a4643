package workflow

import (
	"fmt"
	"strings"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// GuardResult represents the outcome of a guard evaluation.
// NoOp marks a transition that already happened with the same target, which callers treat as
// success without writing anything.
type GuardResult struct {
	Allowed bool
	NoOp    bool
	Reason  string
	Cause   error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Cause == nil {
		return fmt.Errorf("%s", r.Reason)
	}
	return fmt.Errorf("%w: %s", r.Cause, r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func noop() GuardResult { return GuardResult{Allowed: true, NoOp: true} }

func deny(cause error, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Cause: cause, Reason: fmt.Sprintf(format, args...)}
}

// SubmitContext provides context for the officer's 0 -> 2 submission.
type SubmitContext struct {
	ApplicationID string
	Role          domain.UserRole
	CurrentStage  domain.Stage
	Status        domain.ApplicationStatus
}

// CanSubmit evaluates whether a draft application can be submitted for review.
// Rules:
// - Only the permitting officer submits
// - Application must be an unsubmitted draft (already submitted is a no-op)
func CanSubmit(ctx SubmitContext) GuardResult {
	if !Allows(domain.StageDraft, ctx.Role, OpSubmit) {
		return deny(apperrors.ErrInvalidTransition, "role %s cannot submit applications", ctx.Role)
	}
	if ctx.CurrentStage == domain.StageChairperson && ctx.Status == domain.StatusSubmitted {
		return noop()
	}
	if ctx.CurrentStage != domain.StageDraft || ctx.Status != domain.StatusUnsubmitted {
		return deny(apperrors.ErrInvalidTransition, "application %s is not a draft (stage %d, status %s)",
			ctx.ApplicationID, ctx.CurrentStage, ctx.Status)
	}
	return allow()
}

// AdvanceContext provides context for moving an application to the next review stage.
type AdvanceContext struct {
	ApplicationID string
	Role          domain.UserRole
	ExpectedStage domain.Stage // stage the caller believes the application is at
	CurrentStage  domain.Stage // stage actually stored
	Status        domain.ApplicationStatus
	Readiness     domain.Readiness
}

// CanAdvance evaluates whether an application can move from ExpectedStage to the next stage.
// Rules:
// - The role must own ExpectedStage and ExpectedStage must be an advancing stage (2 or 3)
// - Already at the target stage is a no-op; any other stage means the expectation is stale
// - Status must still be in review
// - The application must be individually ready
func CanAdvance(ctx AdvanceContext) GuardResult {
	if !Allows(ctx.ExpectedStage, ctx.Role, OpAdvance) {
		return deny(apperrors.ErrInvalidTransition, "role %s cannot advance applications from stage %d", ctx.Role, ctx.ExpectedStage)
	}
	target, err := NextStage(ctx.ExpectedStage)
	if err != nil {
		return deny(apperrors.ErrInvalidTransition, "%s", err.Error())
	}
	if ctx.CurrentStage == target {
		return noop()
	}
	if ctx.CurrentStage != ctx.ExpectedStage {
		return deny(apperrors.ErrAlreadyAdvanced, "application %s is at stage %d, expected %d",
			ctx.ApplicationID, ctx.CurrentStage, ctx.ExpectedStage)
	}
	if ctx.Status != domain.StatusSubmitted && ctx.Status != domain.StatusUnderReview {
		return deny(apperrors.ErrInvalidTransition, "application %s has status %s", ctx.ApplicationID, ctx.Status)
	}
	if !ctx.Readiness.Ready {
		return deny(apperrors.ErrNotReady, "application %s is missing %s", ctx.ApplicationID, joinRequirements(ctx.Readiness.Missing))
	}
	return allow()
}

// DecideContext provides context for the final approve/reject decision.
type DecideContext struct {
	ApplicationID string
	Role          domain.UserRole
	CurrentStage  domain.Stage
	Status        domain.ApplicationStatus
	Decision      domain.Decision
	Reason        string
}

// CanDecide evaluates whether the final decision can be applied.
// Rules:
// - Only the catchment chairperson decides, and only at stage 4
// - A retry that finds the same decision already applied is a no-op
// - Rejection requires a non-empty reason
func CanDecide(ctx DecideContext) GuardResult {
	if !Allows(domain.StageCatchmentChairperson, ctx.Role, OpDecide) {
		return deny(apperrors.ErrInvalidTransition, "role %s cannot record final decisions", ctx.Role)
	}
	if !ctx.Decision.IsValid() {
		return deny(apperrors.ErrValidation, "unknown decision %q", ctx.Decision)
	}
	if ctx.CurrentStage == domain.StageOfficerDesk && ctx.Status.IsTerminal() {
		if string(ctx.Status) == string(ctx.Decision) {
			return noop()
		}
		return deny(apperrors.ErrAlreadyAdvanced, "application %s was already decided as %s", ctx.ApplicationID, ctx.Status)
	}
	if ctx.CurrentStage != domain.StageCatchmentChairperson {
		return deny(apperrors.ErrInvalidTransition, "application %s is at stage %d, decisions are made at stage %d",
			ctx.ApplicationID, ctx.CurrentStage, domain.StageCatchmentChairperson)
	}
	if ctx.Decision == domain.DecisionRejected && strings.TrimSpace(ctx.Reason) == "" {
		return deny(apperrors.ErrMissingRejectionReason, "application %s", ctx.ApplicationID)
	}
	return allow()
}

// LedgerContext provides context for reviewer draft mutations.
type LedgerContext struct {
	ApplicationID string
	Role          domain.UserRole
	ReviewerStage domain.Stage
	CurrentStage  domain.Stage
}

// CanMutateLedger evaluates whether a reviewer may change review state for an application.
// Rules:
// - The role must own ReviewerStage
// - Once the application has left ReviewerStage, the stage is locked
// - The application must have reached ReviewerStage
func CanMutateLedger(ctx LedgerContext) GuardResult {
	if !Allows(ctx.ReviewerStage, ctx.Role, OpReview) {
		return deny(apperrors.ErrUnauthorized, "role %s cannot review at stage %d", ctx.Role, ctx.ReviewerStage)
	}
	if HasPassed(ctx.CurrentStage, ctx.ReviewerStage) {
		return deny(apperrors.ErrStageLocked, "application %s has moved past stage %d", ctx.ApplicationID, ctx.ReviewerStage)
	}
	if ctx.CurrentStage != ctx.ReviewerStage {
		return deny(apperrors.ErrInvalidTransition, "application %s has not reached stage %d", ctx.ApplicationID, ctx.ReviewerStage)
	}
	return allow()
}

func joinRequirements(reqs []domain.Requirement) string {
	parts := make([]string, len(reqs))
	for i, r := range reqs {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
