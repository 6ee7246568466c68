package store

import (
	"context"
	"strings"
	"sync"

	"erpcore/internal/tenant/models"
	"erpcore/pkg/domain"
	"erpcore/pkg/platform/sentinel"
)

// InMemory is the test and development organization store. Slug uniqueness
// is enforced case-insensitively, mirroring the database unique index.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[domain.OrgID]*models.Organization
	bySlug map[string]domain.OrgID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[domain.OrgID]*models.Organization),
		bySlug: make(map[string]domain.OrgID),
	}
}

func (s *InMemory) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := strings.ToLower(org.Slug)
	if _, exists := s.byID[org.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.bySlug[slug]; exists {
		return sentinel.ErrConflict
	}

	cp := *org
	s.byID[org.ID] = &cp
	s.bySlug[slug] = org.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.OrgID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// Update persists lifecycle changes. The slug is immutable: an update that
// attempts to change it is rejected.
func (s *InMemory) Update(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[org.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !strings.EqualFold(existing.Slug, org.Slug) {
		return sentinel.ErrInvalidState
	}

	cp := *org
	s.byID[org.ID] = &cp
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Organization, 0, len(s.byID))
	for _, org := range s.byID {
		cp := *org
		out = append(out, &cp)
	}
	return out, nil
}
