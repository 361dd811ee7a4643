package services

import (
	"context"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/dto"
)

// ApplicationReaderSvc defines read operations for permit applications
type ApplicationReaderSvc interface {
	// GetApplication retrieves an application with its comment history.
	GetApplication(ctx context.Context, id string) (*domain.PermitApplication, error)

	// ListComments returns the workflow comments of an application.
	ListComments(ctx context.Context, id string) ([]domain.WorkflowComment, error)

	// ListDecided returns approved and rejected applications.
	ListDecided(ctx context.Context, actor domain.Actor, params dto.ListApplicationsParams) ([]domain.PermitApplication, error)
}

// ApplicationWriterSvc defines the permitting officer's operations
type ApplicationWriterSvc interface {
	// CreateApplication opens a draft application at stage 0.
	CreateApplication(ctx context.Context, actor domain.Actor, req dto.CreateApplicationRequest) (*domain.PermitApplication, error)

	// SubmitApplication moves a draft to the chairperson (stage 0 -> 2).
	SubmitApplication(ctx context.Context, actor domain.Actor, id string) (*domain.PermitApplication, error)
}

// ApplicationSvcFacade combines all application service interfaces
type ApplicationSvcFacade interface {
	ApplicationReaderSvc
	ApplicationWriterSvc
}
