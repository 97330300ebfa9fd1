package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"projecthub/internal/admins/models"
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

func (s *MemoryStoreSuite) seed(principal domain.Principal) *models.Admin {
	admin, err := models.NewAdmin(principal, principal, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Initialize(context.Background(), admin))
	return admin
}

func (s *MemoryStoreSuite) TestInitialize() {
	s.Run("seeds the first admin", func() {
		s.seed("alice")
		ok, err := s.store.IsAdmin(context.Background(), "alice")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("fails when already initialized", func() {
		admin, err := models.NewAdmin("bob", "bob", time.Now())
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.Initialize(context.Background(), admin), sentinel.ErrAlreadyExists)
	})
}

func (s *MemoryStoreSuite) TestAdd() {
	s.seed("alice")

	s.Run("adds a new admin", func() {
		admin, err := models.NewAdmin("bob", "alice", time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Add(context.Background(), admin))

		ok, err := s.store.IsAdmin(context.Background(), "bob")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("rejects a duplicate", func() {
		admin, err := models.NewAdmin("bob", "alice", time.Now())
		s.Require().NoError(err)
		s.Require().ErrorIs(s.store.Add(context.Background(), admin), sentinel.ErrAlreadyExists)
	})
}

func (s *MemoryStoreSuite) TestRemove() {
	s.seed("alice")

	s.Run("refuses to remove the last admin", func() {
		err := s.store.Remove(context.Background(), "alice")
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		ok, err := s.store.IsAdmin(context.Background(), "alice")
		s.Require().NoError(err)
		s.True(ok, "registry must never be left empty")
	})

	s.Run("removes a member when another remains", func() {
		admin, err := models.NewAdmin("bob", "alice", time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Add(context.Background(), admin))

		s.Require().NoError(s.store.Remove(context.Background(), "alice"))

		ok, err := s.store.IsAdmin(context.Background(), "alice")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("fails for an unknown principal", func() {
		s.Require().ErrorIs(s.store.Remove(context.Background(), "mallory"), sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestListOrder() {
	s.seed("alice")
	for _, p := range []domain.Principal{"bob", "carol"} {
		admin, err := models.NewAdmin(p, "alice", time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Add(context.Background(), admin))
	}

	admins, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(admins, 3)
	s.Equal(domain.Principal("alice"), admins[0].Principal)
	s.Equal(domain.Principal("bob"), admins[1].Principal)
	s.Equal(domain.Principal("carol"), admins[2].Principal)

	// Removal keeps the remaining members in registration order.
	s.Require().NoError(s.store.Remove(context.Background(), "bob"))
	admins, err = s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(admins, 2)
	s.Equal(domain.Principal("alice"), admins[0].Principal)
	s.Equal(domain.Principal("carol"), admins[1].Principal)
}
