package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"projecthub/internal/directory/models"
	"projecthub/internal/directory/service"
	"projecthub/internal/directory/store"
	"projecthub/internal/platform/middleware"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	svc := service.New(store.NewMemory())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(svc, logger)
	r := chi.NewRouter()
	handler.RegisterPublic(r)
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.TrustedHeaderAuth(logger))
		handler.Register(authed)
	})
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path, principal string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) register(owner, name string) models.Project {
	rec := s.do(http.MethodPost, "/projects", owner, models.RegisterRequest{
		Name:        name,
		Description: "a project",
		Category:    "tooling",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var project models.Project
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&project))
	return project
}

func (s *HandlerSuite) TestRegister() {
	s.Run("creates and returns the project", func() {
		project := s.register("alice", "handler-made")
		s.NotZero(project.ID)
		s.Equal("alice", project.Owner.String())
		s.Equal("unverified", project.VerificationStatus.String())
	})

	s.Run("requires authentication", func() {
		rec := s.do(http.MethodPost, "/projects", "", models.RegisterRequest{
			Name: "anon", Description: "d", Category: "c",
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("rejects invalid json", func() {
		req := httptest.NewRequest(http.MethodPost, "/projects", bytes.NewReader([]byte("not json")))
		req.Header.Set("X-Principal", "alice")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("duplicate name is a conflict", func() {
		rec := s.do(http.MethodPost, "/projects", "bob", models.RegisterRequest{
			Name: "handler-made", Description: "d", Category: "c",
		})
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestGetAndList() {
	project := s.register("alice", "fetchable")

	s.Run("get by id", func() {
		rec := s.do(http.MethodGet, fmt.Sprintf("/projects/%d", project.ID), "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var got models.Project
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
		s.Equal(project.ID, got.ID)
	})

	s.Run("unknown id is not found", func() {
		rec := s.do(http.MethodGet, "/projects/999", "", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed id is invalid", func() {
		rec := s.do(http.MethodGet, "/projects/zero", "", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("list pages by start_id", func() {
		s.register("alice", "second")
		rec := s.do(http.MethodGet, "/projects?start_id=2&limit=10", "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp listResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Require().Len(resp.Projects, 1)
		s.Equal("second", resp.Projects[0].Name)
	})
}

func (s *HandlerSuite) TestUpdate() {
	project := s.register("alice", "patchable")
	path := fmt.Sprintf("/projects/%d", project.ID)

	s.Run("owner patches a field", func() {
		rec := s.do(http.MethodPatch, path, "alice", map[string]string{"description": "patched"})
		s.Require().Equal(http.StatusOK, rec.Code)

		var got models.Project
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&got))
		s.Equal("patched", got.Description)
		s.Equal("patchable", got.Name, "name is not editable")
	})

	s.Run("non-owner is forbidden", func() {
		rec := s.do(http.MethodPatch, path, "mallory", map[string]string{"description": "hijack"})
		s.Equal(http.StatusForbidden, rec.Code)
	})
}
