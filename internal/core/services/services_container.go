package services

import (
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/platform/config"
	"github.com/SscSPs/water_permits_app/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, m *metrics.Metrics) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Audit is a leaf every other service writes to
	container.Audit = NewAuditService(repos.AuditLogRepo, m)

	container.Review = NewReviewLedgerService(repos.ApplicationRepo, repos.LedgerStore, container.Audit, m)
	container.Workflow = NewWorkflowService(repos.ApplicationRepo, container.Review, container.Audit, m)
	container.Application = NewApplicationService(repos.ApplicationRepo, container.Audit)
	container.User = NewUserService(repos.UserRepo)
	container.Auth = NewAuthService(cfg, repos.UserRepo, container.Audit)

	return container
}
