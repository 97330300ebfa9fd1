// Package store persists reviews and their per-project aggregates. A review
// mutation and its aggregate adjustment commit in the same critical section,
// so the aggregate invariant holds at every observable point.
package store

import (
	"context"
	"sync"

	"projecthub/internal/reviews/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

type reviewKey struct {
	project  domain.ProjectID
	reviewer domain.Principal
}

// Memory is the in-memory review store.
type Memory struct {
	mu         sync.RWMutex
	reviews    map[reviewKey]*models.Review
	aggregates map[domain.ProjectID]models.Aggregate
}

func NewMemory() *Memory {
	return &Memory{
		reviews:    make(map[reviewKey]*models.Review),
		aggregates: make(map[domain.ProjectID]models.Aggregate),
	}
}

// Create commits a new review and folds it into the aggregate. A review from
// the same reviewer for the same project already existing is a conflict.
func (s *Memory) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reviewKey{review.ProjectID, review.Reviewer}
	if _, ok := s.reviews[key]; ok {
		return sentinel.ErrAlreadyExists
	}
	cp := *review
	s.reviews[key] = &cp
	s.aggregates[review.ProjectID] = s.aggregates[review.ProjectID].Add(review.Rating)
	return nil
}

// Update replaces the rating and comment of an existing review, swapping the
// rating in the aggregate with the count unchanged. CreatedAt is preserved.
func (s *Memory) Update(_ context.Context, id domain.ProjectID, reviewer domain.Principal, mutate func(*models.Review) error) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[reviewKey{id, reviewer}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	oldRating := r.Rating
	if err := mutate(r); err != nil {
		return nil, err
	}
	if r.Rating != oldRating {
		s.aggregates[id] = s.aggregates[id].Replace(oldRating, r.Rating)
	}
	cp := *r
	return &cp, nil
}

// Delete removes a review and folds its rating out of the aggregate.
func (s *Memory) Delete(_ context.Context, id domain.ProjectID, reviewer domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reviewKey{id, reviewer}
	r, ok := s.reviews[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.reviews, key)
	s.aggregates[id] = s.aggregates[id].Remove(r.Rating)
	return nil
}

func (s *Memory) Find(_ context.Context, id domain.ProjectID, reviewer domain.Principal) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[reviewKey{id, reviewer}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// Aggregate returns the running rating total for a project. The zero value
// stands in for projects nobody has reviewed.
func (s *Memory) Aggregate(_ context.Context, id domain.ProjectID) (models.Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregates[id], nil
}
