package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/core/workflow"
	"github.com/SscSPs/water_permits_app/internal/platform/metrics"
	"github.com/google/uuid"
)

type workflowService struct {
	BaseService
	appRepo    portsrepo.ApplicationRepositoryFacade
	ledger     portssvc.LedgerSnapshotSvc
	audit      portssvc.AuditRecorderSvc
	metrics    *metrics.Metrics
	stageLocks map[domain.Stage]*sync.Mutex
}

// NewWorkflowService creates the service performing stage transitions and batch commits.
func NewWorkflowService(
	appRepo portsrepo.ApplicationRepositoryFacade,
	ledger portssvc.LedgerSnapshotSvc,
	audit portssvc.AuditRecorderSvc,
	m *metrics.Metrics,
) portssvc.WorkflowSvcFacade {
	return &workflowService{
		BaseService: newBaseService(),
		appRepo:     appRepo,
		ledger:      ledger,
		audit:       audit,
		metrics:     m,
		stageLocks: map[domain.Stage]*sync.Mutex{
			domain.StageChairperson:          {},
			domain.StageCatchmentManager:     {},
			domain.StageCatchmentChairperson: {},
		},
	}
}

// transitionPlan is the set of writes that move one application out of a stage.
type transitionPlan struct {
	before   domain.PermitApplication
	patch    domain.ApplicationPatch
	comments []domain.WorkflowComment
	action   domain.AuditAction
	details  string

	// filled while committing
	patched    bool
	commentIDs []string
}

func (s *workflowService) advancePlan(actor domain.Actor, app domain.PermitApplication, from domain.Stage) (*transitionPlan, error) {
	next, err := workflow.NextStage(from)
	if err != nil {
		return nil, err
	}
	status := domain.StatusUnderReview
	return &transitionPlan{
		before: app,
		patch: domain.ApplicationPatch{
			ExpectedStage: &from,
			Stage:         &next,
			Status:        &status,
			UpdatedBy:     actor.UserID,
			UpdatedAt:     s.now(),
		},
		action:  domain.ActionAdvancedApplication,
		details: fmt.Sprintf("Application %s advanced from stage %d to stage %d", app.ApplicationID, from, next),
	}, nil
}

// decisionPlan returns the application to the officer's desk with its final status. reason is
// persisted first when the rejection reason has not been saved yet.
func (s *workflowService) decisionPlan(actor domain.Actor, app domain.PermitApplication, decision domain.Decision, unsavedReason string) *transitionPlan {
	now := s.now()
	from := domain.StageCatchmentChairperson
	to := domain.StageOfficerDesk
	status := domain.StatusApproved
	action := domain.ActionApprovedApplication
	patch := domain.ApplicationPatch{
		ExpectedStage: &from,
		Stage:         &to,
		Status:        &status,
		UpdatedBy:     actor.UserID,
		UpdatedAt:     now,
	}
	if decision == domain.DecisionRejected {
		status = domain.StatusRejected
		action = domain.ActionRejectedApplication
		patch.RejectedAt = &now
	} else {
		patch.ApprovedAt = &now
	}

	d := decision
	var comments []domain.WorkflowComment
	if unsavedReason != "" {
		comments = append(comments, domain.WorkflowComment{
			CommentID:         uuid.NewString(),
			ApplicationID:     app.ID,
			UserID:            actor.UserID,
			UserType:          actor.Role,
			Comment:           domain.RejectionReasonPrefix + unsavedReason,
			Stage:             from,
			Decision:          &d,
			IsRejectionReason: true,
			Timestamp:         now,
		})
	}
	comments = append(comments, domain.WorkflowComment{
		CommentID:     uuid.NewString(),
		ApplicationID: app.ID,
		UserID:        actor.UserID,
		UserType:      actor.Role,
		Comment:       domain.FinalDecisionPrefix + strings.ToUpper(string(decision)),
		Stage:         from,
		Decision:      &d,
		Timestamp:     now,
	})

	return &transitionPlan{
		before:   app,
		patch:    patch,
		comments: comments,
		action:   action,
		details:  fmt.Sprintf("Application %s %s", app.ApplicationID, status),
	}
}

func applyPlan(ctx context.Context, w portsrepo.ApplicationWriter, p *transitionPlan) error {
	if _, err := w.UpdateApplication(ctx, p.before.ID, p.patch); err != nil {
		return err
	}
	p.patched = true
	for _, c := range p.comments {
		saved, err := w.AppendComment(ctx, p.before.ID, c)
		if err != nil {
			return err
		}
		p.commentIDs = append(p.commentIDs, saved.CommentID)
	}
	return nil
}

// commit applies every plan as one unit of work. Stores that support transactions get a single
// transaction; otherwise applied plans are undone in reverse order when one fails. The returned
// ids are the applications that remain transitioned after a failure.
func (s *workflowService) commit(ctx context.Context, actor domain.Actor, plans []*transitionPlan) (stuck []string, err error) {
	if runner, ok := s.appRepo.(portsrepo.ApplicationTxRunner); ok {
		err = runner.RunInTx(ctx, func(ctx context.Context, w portsrepo.ApplicationWriter) error {
			for _, p := range plans {
				if err := applyPlan(ctx, w, p); err != nil {
					return fmt.Errorf("application %s: %w", p.before.ID, err)
				}
			}
			return nil
		})
		return nil, err
	}

	for i, p := range plans {
		if err = applyPlan(ctx, s.appRepo, p); err != nil {
			err = fmt.Errorf("application %s: %w", p.before.ID, err)
			for j := i; j >= 0; j-- {
				if cerr := s.compensate(ctx, actor, plans[j]); cerr != nil {
					s.LogError(ctx, cerr, "Compensating rollback failed", slog.String("application_id", plans[j].before.ID))
					stuck = append(stuck, plans[j].before.ID)
				}
			}
			return stuck, err
		}
	}
	return nil, nil
}

// compensate undoes whatever part of p was applied.
func (s *workflowService) compensate(ctx context.Context, actor domain.Actor, p *transitionPlan) error {
	for k := len(p.commentIDs) - 1; k >= 0; k-- {
		if err := s.appRepo.RetractComment(ctx, p.before.ID, p.commentIDs[k]); err != nil {
			return err
		}
	}
	p.commentIDs = nil
	if !p.patched {
		return nil
	}
	_, err := s.appRepo.UpdateApplication(ctx, p.before.ID, domain.ApplicationPatch{
		ExpectedStage: p.patch.Stage,
		Stage:         &p.before.CurrentStage,
		Status:        &p.before.Status,
		ClearDecision: p.patch.ApprovedAt != nil || p.patch.RejectedAt != nil,
		UpdatedBy:     actor.UserID,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		return err
	}
	p.patched = false
	return nil
}

func (s *workflowService) readiness(ctx context.Context, stage domain.Stage, app *domain.PermitApplication) (domain.Readiness, *domain.ReviewLedgerEntry) {
	entries := s.ledger.EntriesForStage(ctx, stage, []domain.PermitApplication{*app})
	var entry *domain.ReviewLedgerEntry
	if e, ok := entries[app.ID]; ok {
		entry = &e
	}
	r := workflow.EvaluateApplication(stage, app.ID, entry)
	r.Reference = app.ApplicationID
	return r, entry
}

// Advance moves a single ready application from expectedStage to the next review stage.
// Repeating the call after it succeeded is a no-op.
func (s *workflowService) Advance(ctx context.Context, actor domain.Actor, appID string, expectedStage domain.Stage) (*domain.PermitApplication, error) {
	app, err := s.appRepo.FindApplicationByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	readiness, _ := s.readiness(ctx, expectedStage, app)

	guard := workflow.CanAdvance(workflow.AdvanceContext{
		ApplicationID: app.ID,
		Role:          actor.Role,
		ExpectedStage: expectedStage,
		CurrentStage:  app.CurrentStage,
		Status:        app.Status,
		Readiness:     readiness,
	})
	if !guard.Allowed {
		s.LogWarn(ctx, "Advance refused", slog.String("application_id", app.ID), slog.String("reason", guard.Reason))
		return nil, guard.Error()
	}
	if guard.NoOp {
		s.LogDebug(ctx, "Application already advanced", slog.String("application_id", app.ID))
		return app, nil
	}

	plan, err := s.advancePlan(actor, *app, expectedStage)
	if err != nil {
		return nil, err
	}
	if err := s.commitSingle(ctx, actor, plan); err != nil {
		if errors.Is(err, apperrors.ErrStaleStage) {
			return s.resolveStale(ctx, appID, *plan.patch.Stage, expectedStage)
		}
		return nil, err
	}

	s.ledger.ClearEntries(expectedStage, []string{app.ID})
	s.metrics.RecordTransition(int(expectedStage), string(domain.StatusUnderReview))
	s.audit.Record(ctx, actor, plan.action, &app.ID, plan.details)
	return s.appRepo.FindApplicationByID(ctx, app.ID)
}

// Decide applies the final decision to a single application at stage 4.
func (s *workflowService) Decide(ctx context.Context, actor domain.Actor, appID string, decision domain.Decision, reason string) (*domain.PermitApplication, error) {
	app, err := s.appRepo.FindApplicationByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	stage := domain.StageCatchmentChairperson
	reason = strings.TrimSpace(reason)

	var entry *domain.ReviewLedgerEntry
	if app.CurrentStage == stage {
		_, entry = s.readiness(ctx, stage, app)
	}
	unsaved := reason
	if decision == domain.DecisionRejected && entry != nil && entry.RejectionReasonSaved {
		if reason == "" || reason == entry.RejectionReason {
			reason, unsaved = entry.RejectionReason, ""
		}
	}
	if decision != domain.DecisionRejected {
		unsaved = ""
	}

	guard := workflow.CanDecide(workflow.DecideContext{
		ApplicationID: app.ID,
		Role:          actor.Role,
		CurrentStage:  app.CurrentStage,
		Status:        app.Status,
		Decision:      decision,
		Reason:        reason,
	})
	if !guard.Allowed {
		s.LogWarn(ctx, "Decision refused", slog.String("application_id", app.ID), slog.String("reason", guard.Reason))
		return nil, guard.Error()
	}
	if guard.NoOp {
		return app, nil
	}

	plan := s.decisionPlan(actor, *app, decision, unsaved)
	if err := s.commitSingle(ctx, actor, plan); err != nil {
		if errors.Is(err, apperrors.ErrStaleStage) {
			return s.resolveStale(ctx, appID, domain.StageOfficerDesk, stage)
		}
		return nil, err
	}

	s.ledger.ClearEntries(stage, []string{app.ID})
	s.metrics.RecordTransition(int(stage), string(*plan.patch.Status))
	s.audit.Record(ctx, actor, plan.action, &app.ID, plan.details)
	return s.appRepo.FindApplicationByID(ctx, app.ID)
}

func (s *workflowService) commitSingle(ctx context.Context, actor domain.Actor, plan *transitionPlan) error {
	stuck, err := s.commit(ctx, actor, []*transitionPlan{plan})
	if err == nil {
		return nil
	}
	if len(stuck) > 0 {
		perr := &workflow.PartialCommitError{Stage: plan.before.CurrentStage, Succeeded: stuck, Cause: err}
		s.LogError(ctx, perr, "Transition left application in an inconsistent state", slog.String("application_id", plan.before.ID))
		return perr
	}
	s.LogError(ctx, err, "Transition failed", slog.String("application_id", plan.before.ID))
	return err
}

// resolveStale re-reads an application whose conditional update lost a race. Finding it at the
// target stage means another call already performed the same transition.
func (s *workflowService) resolveStale(ctx context.Context, appID string, target, expected domain.Stage) (*domain.PermitApplication, error) {
	app, err := s.appRepo.FindApplicationByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.CurrentStage == target {
		return app, nil
	}
	return nil, fmt.Errorf("%w: application %s is at stage %d, expected %d", apperrors.ErrAlreadyAdvanced, appID, app.CurrentStage, expected)
}

// SubmitBatch commits the whole pending set at stage, or nothing. Submissions for the same stage
// are serialized.
func (s *workflowService) SubmitBatch(ctx context.Context, actor domain.Actor, stage domain.Stage) (*domain.BatchResult, error) {
	lock, ok := s.stageLocks[stage]
	if !ok {
		return nil, fmt.Errorf("%w: stage %d has no batch submission", apperrors.ErrInvalidTransition, stage)
	}
	if !workflow.Allows(stage, actor.Role, workflow.OpAdvance) && !workflow.Allows(stage, actor.Role, workflow.OpDecide) {
		s.LogWarn(ctx, "Batch submission refused", slog.Int("stage", int(stage)), slog.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%w: role %s cannot submit stage %d", apperrors.ErrInvalidTransition, actor.Role, stage)
	}

	lock.Lock()
	defer lock.Unlock()
	start := time.Now()

	apps, err := s.appRepo.GetApplicationsByStage(ctx, stage)
	if err != nil {
		s.LogError(ctx, err, "Failed to load batch", slog.Int("stage", int(stage)))
		return nil, err
	}
	entries := s.ledger.EntriesForStage(ctx, stage, apps)
	readiness := workflow.EvaluateBatch(stage, apps, entries)
	result := &domain.BatchResult{Stage: stage, Readiness: readiness}

	if !readiness.AllReady() {
		blocked := workflow.NewBatchBlockedError(readiness)
		result.BlockedIDs = blocked.BlockedIDs()
		s.metrics.RecordBatch(int(stage), "blocked", len(apps), time.Since(start))
		s.LogInfo(ctx, "Batch submission blocked",
			slog.Int("stage", int(stage)),
			slog.Int("ready", readiness.Ready),
			slog.Int("total", readiness.Total),
			slog.Any("blocked_ids", result.BlockedIDs),
			slog.Any("blocked_references", blocked.BlockedReferences()))
		return result, blocked
	}

	plans := make([]*transitionPlan, 0, len(apps))
	for i, app := range apps {
		plan, err := s.batchPlan(actor, stage, app, readiness.Items[i], entries[app.ID])
		if err != nil {
			s.LogWarn(ctx, "Batch member failed its transition check", slog.String("application_id", app.ID), slog.String("error", err.Error()))
			return nil, err
		}
		plans = append(plans, plan)
	}

	ids := make([]string, len(apps))
	for i := range apps {
		ids[i] = apps[i].ID
	}

	stuck, err := s.commit(ctx, actor, plans)
	if err != nil {
		perr := &workflow.PartialCommitError{Stage: stage, Succeeded: stuck, Cause: err}
		perr.Failed = difference(ids, stuck)
		result.SucceededIDs = perr.Succeeded
		result.Errors = make(map[string]string, len(perr.Failed))
		for _, id := range perr.Failed {
			result.Errors[id] = err.Error()
		}
		s.metrics.RecordBatch(int(stage), "partial", len(apps), time.Since(start))
		s.LogError(ctx, perr, "Batch commit failed",
			slog.Int("stage", int(stage)),
			slog.Any("succeeded_ids", perr.Succeeded),
			slog.Any("failed_ids", perr.Failed))
		return result, perr
	}

	s.ledger.ClearEntries(stage, ids)
	result.SucceededIDs = ids
	for _, p := range plans {
		id := p.before.ID
		s.metrics.RecordTransition(int(stage), string(*p.patch.Status))
		s.audit.Record(ctx, actor, p.action, &id, p.details)
	}
	s.audit.Record(ctx, actor, domain.ActionBatchSubmitted, nil,
		fmt.Sprintf("Submitted %d applications at stage %d", len(ids), stage))
	s.metrics.RecordBatch(int(stage), "committed", len(ids), time.Since(start))
	s.LogInfo(ctx, "Batch submitted", slog.Int("stage", int(stage)), slog.Int("count", len(ids)))
	return result, nil
}

func (s *workflowService) batchPlan(actor domain.Actor, stage domain.Stage, app domain.PermitApplication, ready domain.Readiness, entry domain.ReviewLedgerEntry) (*transitionPlan, error) {
	if stage != domain.StageCatchmentChairperson {
		guard := workflow.CanAdvance(workflow.AdvanceContext{
			ApplicationID: app.ID,
			Role:          actor.Role,
			ExpectedStage: stage,
			CurrentStage:  app.CurrentStage,
			Status:        app.Status,
			Readiness:     ready,
		})
		if err := batchGuardError(guard, app.ID); err != nil {
			return nil, err
		}
		return s.advancePlan(actor, app, stage)
	}

	guard := workflow.CanDecide(workflow.DecideContext{
		ApplicationID: app.ID,
		Role:          actor.Role,
		CurrentStage:  app.CurrentStage,
		Status:        app.Status,
		Decision:      *entry.Decision,
		Reason:        entry.RejectionReason,
	})
	if err := batchGuardError(guard, app.ID); err != nil {
		return nil, err
	}
	return s.decisionPlan(actor, app, *entry.Decision, ""), nil
}

// batchGuardError treats a no-op as a failure: every batch member was loaded at the batch
// stage, so one that no longer needs the transition was changed underneath the batch.
func batchGuardError(guard workflow.GuardResult, appID string) error {
	if !guard.Allowed {
		return guard.Error()
	}
	if guard.NoOp {
		return fmt.Errorf("%w: application %s changed during batch submission", apperrors.ErrAlreadyAdvanced, appID)
	}
	return nil
}

func difference(all, exclude []string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(all))
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

var _ portssvc.WorkflowSvcFacade = (*workflowService)(nil)
