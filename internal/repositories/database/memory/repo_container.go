package memory

import (
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires in-memory stores for every repository.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ApplicationRepo: NewApplicationStore(),
		AuditLogRepo:    NewAuditLogStore(),
		UserRepo:        NewUserStore(),
		LedgerStore:     NewReviewLedgerStore(),
	}
}
