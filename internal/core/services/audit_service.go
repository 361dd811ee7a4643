package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/water_permits_app/internal/apperrors"
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/water_permits_app/internal/core/ports/services"
	"github.com/SscSPs/water_permits_app/internal/dto"
	"github.com/SscSPs/water_permits_app/internal/platform/metrics"
	"github.com/SscSPs/water_permits_app/internal/utils/pagination"
	"github.com/google/uuid"
)

type auditService struct {
	BaseService
	auditRepo portsrepo.AuditLogRepositoryFacade
	metrics   *metrics.Metrics
}

// NewAuditService creates the audit log emitter.
func NewAuditService(auditRepo portsrepo.AuditLogRepositoryFacade, m *metrics.Metrics) portssvc.AuditSvcFacade {
	return &auditService{
		BaseService: newBaseService(),
		auditRepo:   auditRepo,
		metrics:     m,
	}
}

// Record appends an audit entry. A failed write is logged and counted but never returned:
// the action it describes has already happened.
func (s *auditService) Record(ctx context.Context, actor domain.Actor, action domain.AuditAction, appID *string, details string) {
	entry := domain.AuditLogEntry{
		LogID:         uuid.NewString(),
		UserID:        actor.UserID,
		UserType:      actor.Role,
		Action:        action,
		Details:       details,
		ApplicationID: appID,
		Timestamp:     s.now(),
	}
	if err := s.auditRepo.AppendLog(ctx, entry); err != nil {
		s.metrics.IncAuditWriteFailure()
		s.GetLogger(ctx).Warn("Failed to write audit log",
			slog.String("error", err.Error()),
			slog.String("action", string(action)),
			slog.String("user_id", actor.UserID))
	}
}

// ListLogs lists audit entries. ICT and permit supervisors may list everything; other roles
// must scope the listing to one application.
func (s *auditService) ListLogs(ctx context.Context, actor domain.Actor, params dto.ListAuditLogsParams) ([]domain.AuditLogEntry, string, error) {
	filter := portsrepo.AuditLogFilter{Limit: params.Limit}
	if params.ApplicationID != "" {
		filter.ApplicationID = &params.ApplicationID
	}
	if filter.ApplicationID == nil {
		if err := s.AuthorizeRole(ctx, actor, domain.RoleICT, domain.RolePermitSupervisor); err != nil {
			return nil, "", err
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if params.NextToken != "" {
		ts, id, err := pagination.DecodeToken(params.NextToken)
		if err != nil {
			s.LogWarn(ctx, "Invalid audit log page token", slog.String("error", err.Error()))
			return nil, "", fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		filter.BeforeTime = &ts
		filter.BeforeID = id
	}

	logs, err := s.auditRepo.ListLogs(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list audit logs")
		return nil, "", err
	}

	var next string
	if len(logs) == filter.Limit {
		last := logs[len(logs)-1]
		next = pagination.EncodeToken(last.Timestamp, last.LogID)
	}
	return logs, next, nil
}

var _ portssvc.AuditSvcFacade = (*auditService)(nil)
