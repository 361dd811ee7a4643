package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	"github.com/SscSPs/water_permits_app/internal/utils/pagination"
)

// AuditLogStore is an append-only in-memory audit sink.
type AuditLogStore struct {
	mu      sync.RWMutex
	entries []domain.AuditLogEntry
	failErr error
}

// NewAuditLogStore creates an empty audit log.
func NewAuditLogStore() *AuditLogStore {
	return &AuditLogStore{}
}

var _ portsrepo.AuditLogRepositoryFacade = (*AuditLogStore)(nil)

// FailWrites makes AppendLog return err; a nil err restores normal behaviour.
func (s *AuditLogStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *AuditLogStore) AppendLog(_ context.Context, entry domain.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *AuditLogStore) ListLogs(_ context.Context, filter portsrepo.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	s.mu.RLock()
	sorted := slices.Clone(s.entries)
	s.mu.RUnlock()
	sort.SliceStable(sorted, func(i, j int) bool {
		return pagination.Before(sorted[j].Timestamp, sorted[j].LogID, sorted[i].Timestamp, sorted[i].LogID)
	})

	out := []domain.AuditLogEntry{}
	for _, e := range sorted {
		if filter.ApplicationID != nil && (e.ApplicationID == nil || *e.ApplicationID != *filter.ApplicationID) {
			continue
		}
		if filter.BeforeTime != nil && !pagination.Before(e.Timestamp, e.LogID, *filter.BeforeTime, filter.BeforeID) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
