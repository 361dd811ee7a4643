package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/core/workflow"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/SscSPs/water_permits_app/internal/platform/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type reviewLedgerService struct {
	BaseService
	appRepo portsrepo.ApplicationRepositoryFacade
	ledger  portsrepo.ReviewLedgerStore
	audit   portssvc.AuditRecorderSvc
	metrics *metrics.Metrics
}

// NewReviewLedgerService creates the service holding reviewers' pre-commit state.
func NewReviewLedgerService(
	appRepo portsrepo.ApplicationRepositoryFacade,
	ledger portsrepo.ReviewLedgerStore,
	audit portssvc.AuditRecorderSvc,
	m *metrics.Metrics,
) portssvc.ReviewLedgerSvcFacade {
	return &reviewLedgerService{
		BaseService: newBaseService(),
		appRepo:     appRepo,
		ledger:      ledger,
		audit:       audit,
		metrics:     m,
	}
}

// persistFunc writes review work to the application store before the ledger is updated. current
// is the entry as it stood before the change.
type persistFunc func(app *domain.PermitApplication, current domain.ReviewLedgerEntry) error

// mutate loads the application, checks the actor may change review state at stage, runs persist
// and then applies fn to the ledger entry, creating and seeding it on first use. persist runs
// outside the ledger lock; when it fails the ledger is left untouched. persist may be nil.
func (s *reviewLedgerService) mutate(
	ctx context.Context,
	actor domain.Actor,
	stage domain.Stage,
	appID string,
	persist persistFunc,
	fn func(e *domain.ReviewLedgerEntry) error,
) (*domain.PermitApplication, domain.ReviewLedgerEntry, error) {
	app, err := s.appRepo.FindApplicationByID(ctx, appID)
	if err != nil {
		return nil, domain.ReviewLedgerEntry{}, err
	}

	guard := workflow.CanMutateLedger(workflow.LedgerContext{
		ApplicationID: app.ID,
		Role:          actor.Role,
		ReviewerStage: stage,
		CurrentStage:  app.CurrentStage,
	})
	if !guard.Allowed {
		s.LogWarn(ctx, "Review change refused",
			slog.String("application_id", app.ID),
			slog.Int("stage", int(stage)),
			slog.String("reason", guard.Reason))
		return nil, domain.ReviewLedgerEntry{}, guard.Error()
	}

	key := domain.LedgerKey{ApplicationID: app.ID, Stage: stage}
	if persist != nil {
		current, ok := s.ledger.Get(key)
		if !ok {
			current = seedEntry(app, stage)
		}
		if err := persist(app, current); err != nil {
			return nil, domain.ReviewLedgerEntry{}, err
		}
	}

	entry, err := s.ledger.Mutate(key, func(e *domain.ReviewLedgerEntry) error {
		if e.OpenedAt.IsZero() {
			seed := seedEntry(app, stage)
			seed.ReviewerID = actor.UserID
			seed.OpenedAt = s.now()
			*e = seed
		}
		if err := fn(e); err != nil {
			return err
		}
		e.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, domain.ReviewLedgerEntry{}, err
	}
	s.metrics.SetLedgerEntries(s.ledger.Len())
	return app, entry, nil
}

func (s *reviewLedgerService) state(stage domain.Stage, entry domain.ReviewLedgerEntry) *dto.ReviewStateResponse {
	return &dto.ReviewStateResponse{
		Entry:     entry,
		Readiness: workflow.EvaluateApplication(stage, entry.ApplicationID, &entry),
	}
}

// OpenReview creates (or returns) the reviewer's entry for an application.
func (s *reviewLedgerService) OpenReview(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string) (*dto.ReviewStateResponse, error) {
	_, entry, err := s.mutate(ctx, actor, stage, appID, nil, func(*domain.ReviewLedgerEntry) error { return nil })
	if err != nil {
		return nil, err
	}
	return s.state(stage, entry), nil
}

// SetReviewed toggles the reviewed flag and records the change in the audit log.
func (s *reviewLedgerService) SetReviewed(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string, reviewed bool) (*dto.ReviewStateResponse, error) {
	app, entry, err := s.mutate(ctx, actor, stage, appID, nil, func(e *domain.ReviewLedgerEntry) error {
		e.Reviewed = reviewed
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := domain.ActionMarkedReviewed
	if !reviewed {
		action = domain.ActionUnmarkedReview
	}
	s.audit.Record(ctx, actor, action, &app.ID, fmt.Sprintf("Application %s at stage %d", app.ApplicationID, stage))
	return s.state(stage, entry), nil
}

// UpdateDraft stores unsaved comment text.
func (s *reviewLedgerService) UpdateDraft(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string, text string) (*dto.ReviewStateResponse, error) {
	_, entry, err := s.mutate(ctx, actor, stage, appID, nil, func(e *domain.ReviewLedgerEntry) error {
		e.DraftComment = text
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.state(stage, entry), nil
}

// SaveComment persists a reviewer comment and promotes it in the ledger.
func (s *reviewLedgerService) SaveComment(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string, text string) (*domain.WorkflowComment, error) {
	text = strings.TrimSpace(text)

	var saved *domain.WorkflowComment
	persist := func(app *domain.PermitApplication, _ domain.ReviewLedgerEntry) error {
		if text == "" {
			return apperrors.ErrEmptyComment
		}
		comment, err := s.appRepo.AppendComment(ctx, app.ID, domain.WorkflowComment{
			CommentID:     uuid.NewString(),
			ApplicationID: app.ID,
			UserID:        actor.UserID,
			UserType:      actor.Role,
			Comment:       text,
			Stage:         stage,
			Timestamp:     s.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to save comment: %w", err)
		}
		saved = comment
		return nil
	}
	app, _, err := s.mutate(ctx, actor, stage, appID, persist, func(e *domain.ReviewLedgerEntry) error {
		e.SavedComment = text
		e.DraftComment = ""
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyComment) {
			s.LogWarn(ctx, "Empty comment rejected", slog.String("application_id", appID))
		}
		return nil, err
	}

	s.audit.Record(ctx, actor, domain.ActionSavedComment, &app.ID,
		fmt.Sprintf("Comment saved on application %s at stage %d", app.ApplicationID, stage))
	return saved, nil
}

// SaveDecision records the catchment chairperson's decision. Every change of decision is
// persisted as a decision-carrying comment at stage 4, a rejection as its rejection-reason
// comment, so the latest such comment is the decision in force after a restart.
//
// Selecting rejection without a reason records the selection in the ledger, leaving the
// application blocked on its rejection reason, and returns ErrMissingRejectionReason. A reason
// saved earlier for the same rejection is kept.
func (s *reviewLedgerService) SaveDecision(ctx context.Context, actor domain.Actor, appID string, decision domain.Decision, reason string) (*dto.ReviewStateResponse, error) {
	stage := domain.StageCatchmentChairperson
	reason = strings.TrimSpace(reason)
	missingReason := decision == domain.DecisionRejected && reason == ""

	persist := func(app *domain.PermitApplication, current domain.ReviewLedgerEntry) error {
		if !decision.IsValid() {
			return fmt.Errorf("%w: unknown decision %q", apperrors.ErrValidation, decision)
		}
		switch {
		case missingReason:
			return nil
		case decision == domain.DecisionRejected:
			if err := s.appendDecisionComment(ctx, actor, app.ID, decision, domain.RejectionReasonPrefix+reason, true); err != nil {
				return fmt.Errorf("failed to save rejection reason: %w", err)
			}
		case current.Decision == nil || *current.Decision != decision:
			if err := s.appendDecisionComment(ctx, actor, app.ID, decision, domain.DecisionPrefix+strings.ToUpper(string(decision)), false); err != nil {
				return fmt.Errorf("failed to save decision: %w", err)
			}
		}
		return nil
	}

	app, entry, err := s.mutate(ctx, actor, stage, appID, persist, func(e *domain.ReviewLedgerEntry) error {
		switch {
		case missingReason:
			if e.Decision != nil && *e.Decision == domain.DecisionRejected && e.RejectionReasonSaved {
				return nil
			}
			e.RejectionReason = ""
			e.RejectionReasonSaved = false
		case decision == domain.DecisionRejected:
			e.RejectionReason = reason
			e.RejectionReasonSaved = true
		default:
			e.RejectionReason = ""
			e.RejectionReasonSaved = false
		}
		e.Decision = &decision
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			s.LogWarn(ctx, "Decision rejected", slog.String("application_id", appID), slog.String("error", err.Error()))
		}
		return nil, err
	}

	if missingReason {
		s.LogWarn(ctx, "Rejection selected without a reason", slog.String("application_id", app.ID))
		return nil, apperrors.ErrMissingRejectionReason
	}
	switch decision {
	case domain.DecisionRejected:
		s.audit.Record(ctx, actor, domain.ActionSavedRejectionReason, &app.ID,
			fmt.Sprintf("Rejection reason saved for application %s", app.ApplicationID))
	default:
		s.audit.Record(ctx, actor, domain.ActionSavedDecision, &app.ID,
			fmt.Sprintf("Decision %s recorded for application %s", decision, app.ApplicationID))
	}
	return s.state(stage, entry), nil
}

func (s *reviewLedgerService) appendDecisionComment(ctx context.Context, actor domain.Actor, appID string, decision domain.Decision, text string, rejectionReason bool) error {
	_, err := s.appRepo.AppendComment(ctx, appID, domain.WorkflowComment{
		CommentID:         uuid.NewString(),
		ApplicationID:     appID,
		UserID:            actor.UserID,
		UserType:          actor.Role,
		Comment:           text,
		Stage:             domain.StageCatchmentChairperson,
		Decision:          &decision,
		IsRejectionReason: rejectionReason,
		Timestamp:         s.now(),
	})
	return err
}

// DiscardDraft drops unsaved draft text. The entry itself goes away when nothing else was
// recorded in it.
func (s *reviewLedgerService) DiscardDraft(ctx context.Context, actor domain.Actor, stage domain.Stage, appID string) error {
	app, entry, err := s.mutate(ctx, actor, stage, appID, nil, func(e *domain.ReviewLedgerEntry) error {
		e.DraftComment = ""
		return nil
	})
	if err != nil {
		return err
	}
	if !entry.Reviewed && entry.SavedComment == "" && entry.Decision == nil && !entry.RejectionReasonSaved {
		s.ledger.Delete(domain.LedgerKey{ApplicationID: app.ID, Stage: stage})
		s.metrics.SetLedgerEntries(s.ledger.Len())
	}
	return nil
}

// UpdateComment edits a saved comment. Only the ICT override role may do this; comment
// authors cannot edit their own comments.
func (s *reviewLedgerService) UpdateComment(ctx context.Context, actor domain.Actor, commentID string, text string) (*domain.WorkflowComment, error) {
	if actor.Role != domain.RoleICT {
		s.LogWarn(ctx, "Comment edit refused", slog.String("comment_id", commentID), slog.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%w: only the override role may edit comments", apperrors.ErrUnauthorized)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyComment
	}

	original, err := s.appRepo.FindCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	updated, err := s.appRepo.UpdateCommentText(ctx, commentID, text, actor.UserID, s.now())
	if err != nil {
		s.LogError(ctx, err, "Failed to update comment", slog.String("comment_id", commentID))
		return nil, err
	}

	s.audit.Record(ctx, actor, domain.ActionOverrideCommentEdit, &original.ApplicationID,
		fmt.Sprintf("Comment %s by %s (%s) at stage %d edited", commentID, original.UserID, original.UserType, original.Stage))
	return updated, nil
}

// ListPending returns the stage's pending set with per-application readiness and totals.
func (s *reviewLedgerService) ListPending(ctx context.Context, actor domain.Actor, stage domain.Stage) (*dto.PendingListResponse, error) {
	if !stage.IsReviewStage() {
		return nil, fmt.Errorf("%w: stage %d is not a review stage", apperrors.ErrValidation, stage)
	}
	owner, _ := workflow.RequiredRole(stage)
	if err := s.AuthorizeRole(ctx, actor, owner, domain.RoleICT, domain.RolePermitSupervisor); err != nil {
		return nil, err
	}

	apps, err := s.appRepo.GetApplicationsByStage(ctx, stage)
	if err != nil {
		s.LogError(ctx, err, "Failed to load pending applications", slog.Int("stage", int(stage)))
		return nil, err
	}
	entries := s.EntriesForStage(ctx, stage, apps)
	batch := workflow.EvaluateBatch(stage, apps, entries)

	resp := &dto.PendingListResponse{
		Stage:           stage,
		TotalAllocation: decimal.Zero,
		CanSubmit:       actor.Role == owner && batch.AllReady(),
		Items:           make([]dto.PendingApplication, len(apps)),
	}
	resp.Progress.Total = batch.Total
	resp.Progress.Ready = batch.Ready

	for i := range apps {
		item := dto.PendingApplication{
			Application: dto.ToApplicationResponse(&apps[i]),
			Readiness:   batch.Items[i],
		}
		if e, ok := entries[apps[i].ID]; ok {
			item.Review = &e
			countProgress(&resp.Progress, e)
		}
		resp.TotalAllocation = resp.TotalAllocation.Add(apps[i].WaterAllocation)
		resp.Items[i] = item
	}
	return resp, nil
}

func countProgress(p *dto.PendingProgress, e domain.ReviewLedgerEntry) {
	if e.Reviewed {
		p.Reviewed++
	}
	if strings.TrimSpace(e.SavedComment) != "" {
		p.Commented++
	}
	if e.Decision != nil {
		switch *e.Decision {
		case domain.DecisionApproved:
			p.Approved++
		case domain.DecisionRejected:
			p.Rejected++
			if e.RejectionReasonSaved {
				p.RejectedWithReason++
			}
		}
	}
}

// EntriesForStage returns ledger entries at stage keyed by application id. Applications with no
// open entry get one derived from their persisted comments, so saved work survives a restart.
func (s *reviewLedgerService) EntriesForStage(_ context.Context, stage domain.Stage, apps []domain.PermitApplication) map[string]domain.ReviewLedgerEntry {
	entries := s.ledger.EntriesForStage(stage)
	for i := range apps {
		if _, ok := entries[apps[i].ID]; ok {
			continue
		}
		seed := seedEntry(&apps[i], stage)
		if seed.SavedComment != "" || seed.Decision != nil {
			entries[apps[i].ID] = seed
		}
	}
	return entries
}

// ClearEntries removes the entries of committed applications.
func (s *reviewLedgerService) ClearEntries(stage domain.Stage, appIDs []string) {
	for _, id := range appIDs {
		s.ledger.Delete(domain.LedgerKey{ApplicationID: id, Stage: stage})
	}
	s.metrics.SetLedgerEntries(s.ledger.Len())
}

// seedEntry derives ledger state from the comments already persisted at stage, which are in
// write order. The latest decision-carrying comment decides; the reviewed flag is never
// persisted and always starts false.
func seedEntry(app *domain.PermitApplication, stage domain.Stage) domain.ReviewLedgerEntry {
	e := domain.ReviewLedgerEntry{ApplicationID: app.ID, Stage: stage}
	for _, c := range app.WorkflowComments {
		if c.Stage != stage {
			continue
		}
		if c.Decision == nil {
			if strings.TrimSpace(c.Comment) != "" {
				e.SavedComment = c.Comment
			}
			continue
		}
		d := *c.Decision
		e.Decision = &d
		switch {
		case c.IsRejectionReason:
			e.RejectionReason = strings.TrimPrefix(c.Comment, domain.RejectionReasonPrefix)
			e.RejectionReasonSaved = true
		case d == domain.DecisionApproved:
			e.RejectionReason = ""
			e.RejectionReasonSaved = false
		}
	}
	return e
}

var _ portssvc.ReviewLedgerSvcFacade = (*reviewLedgerService)(nil)
