// Package store persists verification records. Request admission and
// decision transitions are validated inside the same critical section that
// commits them, so a concurrent decision cannot slip between check and write.
package store

import (
	"context"
	"sort"
	"sync"

	"projecthub/internal/verification/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Memory is the in-memory verification store.
type Memory struct {
	mu      sync.RWMutex
	records map[domain.ProjectID]*models.Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[domain.ProjectID]*models.Record)}
}

// Put commits a record after admit approves the existing one (nil when none
// exists). Used for request admission: admit rejects pending and verified
// records and waves through absent or rejected ones.
func (s *Memory) Put(_ context.Context, record *models.Record, admit func(existing *models.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *models.Record
	if current, ok := s.records[record.ProjectID]; ok {
		cp := *current
		existing = &cp
	}
	if admit != nil {
		if err := admit(existing); err != nil {
			return err
		}
	}
	cp := *record
	s.records[record.ProjectID] = &cp
	return nil
}

// Restore reinstates the pre-mutation record after a failed follow-up write
// elsewhere. A nil prior removes the record entirely.
func (s *Memory) Restore(_ context.Context, id domain.ProjectID, prior *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prior == nil {
		delete(s.records, id)
		return nil
	}
	cp := *prior
	s.records[id] = &cp
	return nil
}

// Execute runs validate-then-mutate on a record under the store lock.
func (s *Memory) Execute(_ context.Context, id domain.ProjectID, mutate func(*models.Record) error) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := mutate(r); err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (s *Memory) Find(_ context.Context, id domain.ProjectID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// ListPending returns up to limit pending records with project id >= startID
// in ascending id order.
func (s *Memory) ListPending(_ context.Context, startID domain.ProjectID, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.ProjectID, 0, len(s.records))
	for id, r := range s.records {
		if id >= startID && r.Status == domain.StatusPending {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*models.Record, 0, min(limit, len(ids)))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		cp := *s.records[id]
		out = append(out, &cp)
	}
	return out, nil
}
