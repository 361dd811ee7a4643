package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	"github.com/SscSPs/water_permits_app/internal/models"
	"github.com/SscSPs/water_permits_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditLogRepository struct {
	pool *pgxpool.Pool
}

func newPgxAuditLogRepository(pool *pgxpool.Pool) portsrepo.AuditLogRepositoryFacade {
	return &PgxAuditLogRepository{pool: pool}
}

var _ portsrepo.AuditLogRepositoryFacade = (*PgxAuditLogRepository)(nil)

func (r *PgxAuditLogRepository) AppendLog(ctx context.Context, entry domain.AuditLogEntry) error {
	m := mapping.ToModelAuditLog(entry)
	query := `
		INSERT INTO audit_logs (log_id, user_id, user_type, action, details, application_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.pool.Exec(ctx, query,
		m.LogID,
		m.UserID,
		m.UserType,
		m.Action,
		m.Details,
		m.ApplicationID,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log %s: %w", m.LogID, err)
	}
	return nil
}

// ListLogs returns entries newest first. A nil ApplicationID lists every entry; a set BeforeTime
// resumes after the given keyset cursor.
func (r *PgxAuditLogRepository) ListLogs(ctx context.Context, filter portsrepo.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT log_id, user_id, user_type, action, details, application_id, created_at
		FROM audit_logs
		WHERE ($1::text IS NULL OR application_id = $1::text)
		  AND ($2::timestamptz IS NULL OR (created_at, log_id) < ($2::timestamptz, $3::text))
		ORDER BY created_at DESC, log_id DESC
		LIMIT $4;
	`
	rows, err := r.pool.Query(ctx, query, filter.ApplicationID, filter.BeforeTime, filter.BeforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditLogEntry{}
	for rows.Next() {
		var m models.AuditLog
		if err := rows.Scan(
			&m.LogID,
			&m.UserID,
			&m.UserType,
			&m.Action,
			&m.Details,
			&m.ApplicationID,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		entries = append(entries, mapping.ToDomainAuditLog(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", rows.Err())
	}
	return entries, nil
}
