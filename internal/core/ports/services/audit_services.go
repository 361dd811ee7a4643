package services

import (
	"context"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/SscSPs/water_permits_app/internal/dto"
)

// AuditRecorderSvc appends audit entries. Recording never fails the calling operation.
type AuditRecorderSvc interface {
	Record(ctx context.Context, actor domain.Actor, action domain.AuditAction, appID *string, details string)
}

// AuditReaderSvc lists audit entries.
type AuditReaderSvc interface {
	// ListLogs returns one page of entries, newest first, and the token of the next page
	// (empty on the last page).
	ListLogs(ctx context.Context, actor domain.Actor, params dto.ListAuditLogsParams) ([]domain.AuditLogEntry, string, error)
}

// AuditSvcFacade combines the audit interfaces
type AuditSvcFacade interface {
	AuditRecorderSvc
	AuditReaderSvc
}
