package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"projecthub/internal/directory/models"
	"projecthub/internal/directory/store"
	"projecthub/internal/events"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	svc  *Service
	sink *events.MemoryStore
	now  time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.sink = events.NewMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = New(store.NewMemory(),
		WithPublisher(events.NewStorePublisher(s.sink)),
		WithClock(func() time.Time { return s.now }),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) register(owner domain.Principal, name string) *models.Project {
	p, err := s.svc.Register(context.Background(), owner, models.RegisterRequest{
		Name:        name,
		Description: "a project",
		Category:    "tooling",
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) TestRegister() {
	s.Run("round trips through get", func() {
		created := s.register("alice", "roundtrip")

		got, err := s.svc.Get(context.Background(), created.ID)
		s.Require().NoError(err)
		s.Equal(created, got)
		s.Equal(domain.StatusUnverified, got.VerificationStatus)
		s.Len(s.sink.ByTopic(events.TopicProjectRegistered), 1)
	})

	s.Run("duplicate name conflicts", func() {
		_, err := s.svc.Register(context.Background(), "bob", models.RegisterRequest{
			Name:        "Roundtrip",
			Description: "same name, different case",
			Category:    "tooling",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing fields are rejected", func() {
		_, err := s.svc.Register(context.Background(), "bob", models.RegisterRequest{Name: "incomplete"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestUpdate() {
	created := s.register("alice", "editable")

	s.Run("owner updates editable fields", func() {
		s.now = s.now.Add(time.Hour)
		desc := "rewritten"
		updated, err := s.svc.Update(context.Background(), "alice", created.ID, models.UpdateRequest{
			Description: &desc,
		})
		s.Require().NoError(err)
		s.Equal("rewritten", updated.Description)
		s.Equal(created.CreatedAt, updated.CreatedAt)
		s.True(updated.UpdatedAt.After(created.UpdatedAt))
	})

	s.Run("non-owner is forbidden", func() {
		desc := "hijacked"
		_, err := s.svc.Update(context.Background(), "mallory", created.ID, models.UpdateRequest{
			Description: &desc,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown project is not found", func() {
		desc := "ghost"
		_, err := s.svc.Update(context.Background(), "alice", 999, models.UpdateRequest{
			Description: &desc,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListClampsLimit() {
	for _, name := range []string{"l1", "l2", "l3"} {
		s.register("alice", name)
	}

	projects, err := s.svc.List(context.Background(), 1, 0)
	s.Require().NoError(err)
	s.Len(projects, 3, "zero limit falls back to the default")

	projects, err = s.svc.List(context.Background(), 1, MaxListLimit+1000)
	s.Require().NoError(err)
	s.Len(projects, 3)
}

func (s *ServiceSuite) TestVerificationStatusMirror() {
	created := s.register("alice", "mirrored")

	s.Require().NoError(s.svc.SyncVerificationStatus(context.Background(), created.ID, domain.StatusPending))

	got, err := s.svc.Get(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, got.VerificationStatus)
}
