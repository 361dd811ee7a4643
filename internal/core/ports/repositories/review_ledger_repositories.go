package repositories

import "github.com/SscSPs/water_permits_app/internal/core/domain"

// ReviewLedgerStore holds ephemeral reviewer state keyed by (application, stage).
// Implementations must be safe for concurrent use.
type ReviewLedgerStore interface {
	// Get returns a copy of the entry for key.
	Get(key domain.LedgerKey) (domain.ReviewLedgerEntry, bool)

	// Mutate applies fn to the entry for key under the store's lock, creating it first when
	// absent, and returns the resulting entry. If fn returns an error nothing is stored.
	Mutate(key domain.LedgerKey, fn func(e *domain.ReviewLedgerEntry) error) (domain.ReviewLedgerEntry, error)

	// EntriesForStage returns the entries at stage indexed by application id.
	EntriesForStage(stage domain.Stage) map[string]domain.ReviewLedgerEntry

	// Delete discards the entry for key.
	Delete(key domain.LedgerKey)

	// Len returns the number of open entries.
	Len() int
}
