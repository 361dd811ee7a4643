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
	"github.com/google/uuid"
)

type applicationService struct {
	BaseService
	appRepo portsrepo.ApplicationRepositoryFacade
	audit   portssvc.AuditRecorderSvc
}

// NewApplicationService creates the service for the permitting officer's application lifecycle.
func NewApplicationService(appRepo portsrepo.ApplicationRepositoryFacade, audit portssvc.AuditRecorderSvc) portssvc.ApplicationSvcFacade {
	return &applicationService{
		BaseService: newBaseService(),
		appRepo:     appRepo,
		audit:       audit,
	}
}

// CreateApplication opens a draft at stage 0 with a human readable id of the form MC<year>-<seq>.
func (s *applicationService) CreateApplication(ctx context.Context, actor domain.Actor, req dto.CreateApplicationRequest) (*domain.PermitApplication, error) {
	if err := s.AuthorizeRole(ctx, actor, domain.RolePermittingOfficer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ApplicantName) == "" {
		return nil, fmt.Errorf("%w: applicant name is required", apperrors.ErrValidation)
	}
	if !req.WaterAllocation.IsPositive() {
		return nil, fmt.Errorf("%w: water allocation must be positive", apperrors.ErrValidation)
	}

	seq, err := s.appRepo.NextApplicationNumber(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to allocate application number")
		return nil, err
	}

	now := s.now()
	app := domain.PermitApplication{
		ID:              uuid.NewString(),
		ApplicationID:   fmt.Sprintf("MC%d-%04d", now.Year(), seq),
		ApplicantName:   strings.TrimSpace(req.ApplicantName),
		PhysicalAddress: strings.TrimSpace(req.PhysicalAddress),
		PermitType:      req.PermitType,
		WaterSource:     req.WaterSource,
		WaterAllocation: req.WaterAllocation,
		LandSize:        req.LandSize,
		IntendedUse:     req.IntendedUse,
		Status:          domain.StatusUnsubmitted,
		CurrentStage:    domain.StageDraft,
		AuditFields:     domain.NewAuditFields(actor.UserID, now),
	}

	if err := s.appRepo.CreateApplication(ctx, app); err != nil {
		s.LogError(ctx, err, "Failed to create application")
		return nil, err
	}

	s.audit.Record(ctx, actor, domain.ActionCreatedApplication, &app.ID, fmt.Sprintf("Application %s created", app.ApplicationID))
	s.LogInfo(ctx, "Application created", slog.String("application_id", app.ID), slog.String("reference", app.ApplicationID))
	return &app, nil
}

// SubmitApplication moves a draft from stage 0 to the chairperson at stage 2.
func (s *applicationService) SubmitApplication(ctx context.Context, actor domain.Actor, id string) (*domain.PermitApplication, error) {
	app, err := s.appRepo.FindApplicationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	guard := workflow.CanSubmit(workflow.SubmitContext{
		ApplicationID: app.ID,
		Role:          actor.Role,
		CurrentStage:  app.CurrentStage,
		Status:        app.Status,
	})
	if !guard.Allowed {
		s.LogWarn(ctx, "Submission refused", slog.String("application_id", app.ID), slog.String("reason", guard.Reason))
		return nil, guard.Error()
	}
	if guard.NoOp {
		return app, nil
	}

	now := s.now()
	from := domain.StageDraft
	to, _ := workflow.NextStage(from)
	status := domain.StatusSubmitted
	updated, err := s.appRepo.UpdateApplication(ctx, app.ID, domain.ApplicationPatch{
		ExpectedStage: &from,
		Stage:         &to,
		Status:        &status,
		SubmittedAt:   &now,
		UpdatedBy:     actor.UserID,
		UpdatedAt:     now,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleStage) {
			current, ferr := s.appRepo.FindApplicationByID(ctx, app.ID)
			if ferr == nil && current.CurrentStage == to && current.Status == status {
				return current, nil
			}
			return nil, fmt.Errorf("%w: application %s is no longer a draft", apperrors.ErrInvalidTransition, app.ID)
		}
		s.LogError(ctx, err, "Failed to submit application", slog.String("application_id", app.ID))
		return nil, err
	}

	s.audit.Record(ctx, actor, domain.ActionSubmittedApplication, &app.ID, fmt.Sprintf("Application %s submitted for review", app.ApplicationID))
	return updated, nil
}

// GetApplication retrieves an application with its comment history.
func (s *applicationService) GetApplication(ctx context.Context, id string) (*domain.PermitApplication, error) {
	return s.appRepo.FindApplicationByID(ctx, id)
}

// ListComments returns the workflow comments of an application.
func (s *applicationService) ListComments(ctx context.Context, id string) ([]domain.WorkflowComment, error) {
	if _, err := s.appRepo.FindApplicationByID(ctx, id); err != nil {
		return nil, err
	}
	return s.appRepo.ListComments(ctx, id)
}

// ListDecided returns approved and rejected applications.
func (s *applicationService) ListDecided(ctx context.Context, actor domain.Actor, params dto.ListApplicationsParams) ([]domain.PermitApplication, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	apps, err := s.appRepo.ListDecided(ctx, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list decided applications", slog.String("user_id", actor.UserID))
		return nil, err
	}
	return apps, nil
}

var _ portssvc.ApplicationSvcFacade = (*applicationService)(nil)
