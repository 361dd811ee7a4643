package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
)

// AuditLogFilter narrows an audit log listing. When BeforeTime is set only entries sorting
// after (BeforeTime, BeforeID) in the newest-first order are returned.
type AuditLogFilter struct {
	ApplicationID *string
	BeforeTime    *time.Time
	BeforeID      string
	Limit         int
}

// AuditLogWriter is the append-only audit sink.
type AuditLogWriter interface {
	AppendLog(ctx context.Context, entry domain.AuditLogEntry) error
}

// AuditLogReader lists audit entries ordered by (timestamp DESC, log id DESC).
type AuditLogReader interface {
	ListLogs(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLogEntry, error)
}

// AuditLogRepositoryFacade combines the audit log interfaces
type AuditLogRepositoryFacade interface {
	AuditLogWriter
	AuditLogReader
}
