package store

import (
	"context"
	"sync"

	"erpcore/internal/audit"
	"erpcore/pkg/domain"
)

// InMemory keeps audit entries grouped by organization scope. Test and
// development use only.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string][]audit.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string][]audit.Entry)}
}

func (s *InMemory) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.OrgScope] = append(s.entries[entry.OrgScope], entry)
	return nil
}

func (s *InMemory) ListByOrg(_ context.Context, orgID domain.OrgID, limit int) ([]audit.Entry, error) {
	return s.listScope(orgID.String(), limit), nil
}

func (s *InMemory) ListPlatform(_ context.Context, limit int) ([]audit.Entry, error) {
	return s.listScope(audit.PlatformScope, limit), nil
}

func (s *InMemory) listScope(scope string, limit int) []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[scope]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	// Newest first, matching the persistent store's ordering.
	out := make([]audit.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out
}
