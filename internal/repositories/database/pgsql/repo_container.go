package pgsql

import (
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	"github.com/SscSPs/water_permits_app/internal/repositories/database/memory"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires PostgreSQL repositories. The review ledger is process-local state
// and always lives in memory.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ApplicationRepo: newPgxApplicationRepository(dbPool),
		AuditLogRepo:    newPgxAuditLogRepository(dbPool),
		UserRepo:        newPgxUserRepository(dbPool),
		LedgerStore:     memory.NewReviewLedgerStore(),
	}
}
