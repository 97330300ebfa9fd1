// Package store persists project records. Implementations own the monotone
// id counter, the global name uniqueness check, and the per-owner quota, all
// of which must be enforced inside the same critical section that commits the
// record.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"projecthub/internal/directory/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Memory is the in-memory project store.
type Memory struct {
	mu       sync.RWMutex
	nextID   domain.ProjectID
	projects map[domain.ProjectID]*models.Project
	byName   map[string]domain.ProjectID
	byOwner  map[domain.Principal]int
}

func NewMemory() *Memory {
	return &Memory{
		nextID:   1,
		projects: make(map[domain.ProjectID]*models.Project),
		byName:   make(map[string]domain.ProjectID),
		byOwner:  make(map[domain.Principal]int),
	}
}

// Create assigns the next id and commits the record if the name is free and
// the owner has quota left. Name uniqueness is case-insensitive.
func (s *Memory) Create(_ context.Context, project *models.Project) (domain.ProjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(project.Name)
	if _, taken := s.byName[nameKey]; taken {
		return 0, sentinel.ErrAlreadyExists
	}
	if s.byOwner[project.Owner] >= models.MaxProjectsPerUser {
		return 0, sentinel.ErrInsufficient
	}

	id := s.nextID
	s.nextID++

	cp := *project
	cp.ID = id
	s.projects[id] = &cp
	s.byName[nameKey] = id
	s.byOwner[project.Owner]++
	return id, nil
}

func (s *Memory) FindByID(_ context.Context, id domain.ProjectID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Execute runs validate-then-mutate on a project under the store lock so the
// validation still holds when the mutation commits.
func (s *Memory) Execute(_ context.Context, id domain.ProjectID, validate func(*models.Project) error, mutate func(*models.Project)) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	mutate(p)
	cp := *p
	return &cp, nil
}

// List returns up to limit projects with id >= startID in ascending id
// order. IDs are never reused, so missing ids are skipped rather than
// treated as the end of the range.
func (s *Memory) List(_ context.Context, startID domain.ProjectID, limit int) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.ProjectID, 0, len(s.projects))
	for id := range s.projects {
		if id >= startID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*models.Project, 0, min(limit, len(ids)))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		cp := *s.projects[id]
		out = append(out, &cp)
	}
	return out, nil
}
