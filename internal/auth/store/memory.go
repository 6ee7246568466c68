// Package store provides user persistence backends.
package store

import (
	"context"
	"sync"

	"erpcore/internal/auth"
	"erpcore/pkg/domain"
	"erpcore/pkg/platform/sentinel"
)

// InMemory keeps users in maps guarded by a RWMutex. Email uniqueness is
// enforced per organization, with platform users in their own namespace.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[domain.UserID]*auth.User
	byEmail map[string]domain.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.UserID]*auth.User),
		byEmail: make(map[string]domain.UserID),
	}
}

func emailKey(orgID *domain.OrgID, email string) string {
	scope := "platform"
	if orgID != nil {
		scope = orgID.String()
	}
	return scope + "\x00" + auth.NormalizeEmail(email)
}

func (s *InMemory) Create(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[user.ID]; exists {
		return sentinel.ErrConflict
	}
	key := emailKey(user.OrgID, user.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}

	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.UserID) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, orgID *domain.OrgID, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(orgID, email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

// Update persists mutable fields. Email and owning organization are fixed at
// creation.
func (s *InMemory) Update(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if emailKey(current.OrgID, current.Email) != emailKey(user.OrgID, user.Email) {
		return sentinel.ErrInvalidState
	}

	cp := *user
	s.byID[user.ID] = &cp
	return nil
}
