// Package store persists the admin registry. Implementations own the two
// views the registry needs: an O(1) membership map and an ordered list for
// enumeration, and they must keep both consistent under every mutation.
package store

import (
	"context"
	"sync"

	"projecthub/internal/admins/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Memory is the in-memory admin store. Every mutation re-validates the
// invariant it depends on under the same lock that commits the write, so
// interleaved callers can never observe or create an empty registry.
type Memory struct {
	mu      sync.RWMutex
	byName  map[domain.Principal]int // index into ordered
	ordered []*models.Admin
	seeded  bool
}

func NewMemory() *Memory {
	return &Memory{byName: make(map[domain.Principal]int)}
}

func (s *Memory) Initialize(_ context.Context, seed *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded {
		return sentinel.ErrAlreadyExists
	}
	s.seeded = true
	s.byName[seed.Principal] = 0
	s.ordered = append(s.ordered, seed)
	return nil
}

func (s *Memory) Add(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[admin.Principal]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.byName[admin.Principal] = len(s.ordered)
	s.ordered = append(s.ordered, admin)
	return nil
}

func (s *Memory) Remove(_ context.Context, principal domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byName[principal]
	if !ok {
		return sentinel.ErrNotFound
	}
	if len(s.ordered) == 1 {
		return sentinel.ErrInvalidState
	}
	s.ordered = append(s.ordered[:idx], s.ordered[idx+1:]...)
	delete(s.byName, principal)
	for i := idx; i < len(s.ordered); i++ {
		s.byName[s.ordered[i].Principal] = i
	}
	return nil
}

func (s *Memory) IsAdmin(_ context.Context, principal domain.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byName[principal]
	return ok, nil
}

func (s *Memory) List(_ context.Context) ([]*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Admin, len(s.ordered))
	for i, a := range s.ordered {
		cp := *a
		out[i] = &cp
	}
	return out, nil
}

// Initialized reports whether the registry has been seeded.
func (s *Memory) Initialized(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seeded, nil
}
