// Package store provides vendor persistence backends.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"erpcore/internal/tenant"
	"erpcore/internal/vendors"
	"erpcore/pkg/platform/sentinel"
)

// InMemory keeps vendors in a mutex-guarded map. List applies the same
// tenant filtering the gorm store gets from the query scope.
type InMemory struct {
	mu      sync.RWMutex
	vendors map[uuid.UUID]*vendor.Vendor
}

func NewInMemory() *InMemory {
	return &InMemory{vendors: make(map[uuid.UUID]*vendor.Vendor)}
}

func (s *InMemory) Create(_ context.Context, v *vendor.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vendors[v.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *v
	s.vendors[v.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vendors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *InMemory) List(_ context.Context, tc *tenant.Context) ([]*vendor.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*vendor.Vendor
	for _, v := range s.vendors {
		if !visible(v, tc) {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func visible(v *vendor.Vendor, tc *tenant.Context) bool {
	if tc == nil {
		return false
	}
	if tc.IsPlatform() {
		return true
	}
	orgID, ok := tc.OrgID()
	return ok && v.OrganizationID == orgID
}

func (s *InMemory) Update(_ context.Context, v *vendor.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.vendors[v.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.OrganizationID != v.OrganizationID {
		return sentinel.ErrInvalidState
	}

	cp := *v
	s.vendors[v.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vendors[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.vendors, id)
	return nil
}
