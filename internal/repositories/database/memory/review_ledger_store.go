package memory

import (
	"sync"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
)

// ReviewLedgerStore holds review ledger entries for the lifetime of the process.
type ReviewLedgerStore struct {
	mu      sync.Mutex
	entries map[domain.LedgerKey]domain.ReviewLedgerEntry
}

// NewReviewLedgerStore creates an empty ledger.
func NewReviewLedgerStore() *ReviewLedgerStore {
	return &ReviewLedgerStore{entries: make(map[domain.LedgerKey]domain.ReviewLedgerEntry)}
}

var _ portsrepo.ReviewLedgerStore = (*ReviewLedgerStore)(nil)

func (s *ReviewLedgerStore) Get(key domain.LedgerKey) (domain.ReviewLedgerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return copyEntry(e), ok
}

func (s *ReviewLedgerStore) Mutate(key domain.LedgerKey, fn func(e *domain.ReviewLedgerEntry) error) (domain.ReviewLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = domain.ReviewLedgerEntry{ApplicationID: key.ApplicationID, Stage: key.Stage}
	}
	e = copyEntry(e)
	if err := fn(&e); err != nil {
		return domain.ReviewLedgerEntry{}, err
	}
	e.ApplicationID, e.Stage = key.ApplicationID, key.Stage
	s.entries[key] = e
	return copyEntry(e), nil
}

func (s *ReviewLedgerStore) EntriesForStage(stage domain.Stage) map[string]domain.ReviewLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.ReviewLedgerEntry)
	for k, e := range s.entries {
		if k.Stage == stage {
			out[k.ApplicationID] = copyEntry(e)
		}
	}
	return out
}

func (s *ReviewLedgerStore) Delete(key domain.LedgerKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *ReviewLedgerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// copyEntry detaches the decision pointer so callers cannot write through to stored state.
func copyEntry(e domain.ReviewLedgerEntry) domain.ReviewLedgerEntry {
	if e.Decision != nil {
		d := *e.Decision
		e.Decision = &d
	}
	return e
}
