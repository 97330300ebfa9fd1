package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"projecthub/internal/directory/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) create(owner domain.Principal, name string) domain.ProjectID {
	project, err := models.NewProject(owner, models.RegisterRequest{
		Name:        name,
		Description: "a project",
		Category:    "tooling",
	}, time.Now())
	s.Require().NoError(err)
	id, err := s.store.Create(context.Background(), project)
	s.Require().NoError(err)
	return id
}

func (s *MemoryStoreSuite) TestIDsAreMonotoneAndNeverReused() {
	first := s.create("alice", "one")
	second := s.create("alice", "two")
	s.Equal(domain.ProjectID(1), first)
	s.Equal(domain.ProjectID(2), second)
}

func (s *MemoryStoreSuite) TestNameUniquenessIsCaseInsensitive() {
	s.create("alice", "MyProject")

	project, err := models.NewProject("bob", models.RegisterRequest{
		Name:        "myproject",
		Description: "dup",
		Category:    "tooling",
	}, time.Now())
	s.Require().NoError(err)

	_, err = s.store.Create(context.Background(), project)
	s.Require().ErrorIs(err, sentinel.ErrAlreadyExists)
}

func (s *MemoryStoreSuite) TestOwnerQuota() {
	for i := 0; i < models.MaxProjectsPerUser; i++ {
		s.create("alice", fmt.Sprintf("project-%d", i))
	}

	project, err := models.NewProject("alice", models.RegisterRequest{
		Name:        "one-too-many",
		Description: "over quota",
		Category:    "tooling",
	}, time.Now())
	s.Require().NoError(err)

	_, err = s.store.Create(context.Background(), project)
	s.Require().ErrorIs(err, sentinel.ErrInsufficient)

	// A different owner is unaffected.
	s.create("bob", "still-fine")
}

func (s *MemoryStoreSuite) TestExecuteValidatesUnderLock() {
	id := s.create("alice", "guarded")

	_, err := s.store.Execute(context.Background(), id,
		func(p *models.Project) error { return sentinel.ErrInvalidState },
		func(p *models.Project) { p.Description = "must not happen" })
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	p, err := s.store.FindByID(context.Background(), id)
	s.Require().NoError(err)
	s.Equal("a project", p.Description, "failed validation must not mutate")
}

func (s *MemoryStoreSuite) TestListIsSparseAndRestartable() {
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		s.create("alice", name)
	}

	// Page through two at a time, restarting from the last seen id.
	page, err := s.store.List(context.Background(), 1, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(domain.ProjectID(1), page[0].ID)
	s.Equal(domain.ProjectID(2), page[1].ID)

	page, err = s.store.List(context.Background(), page[1].ID+1, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(domain.ProjectID(3), page[0].ID)
	s.Equal(domain.ProjectID(4), page[1].ID)

	page, err = s.store.List(context.Background(), page[1].ID+1, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(domain.ProjectID(5), page[0].ID)
}
