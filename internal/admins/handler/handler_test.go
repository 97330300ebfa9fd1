package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"projecthub/internal/admins/service"
	"projecthub/internal/admins/store"
	"projecthub/internal/platform/middleware"
)

// HandlerSuite drives the admin endpoints through the real service and
// in-memory store, with the trusted-header middleware supplying the caller.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	svc := service.New(store.NewMemory())
	s.Require().NoError(svc.Initialize(context.Background(), "alice"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(middleware.TrustedHeaderAuth(logger))
	New(svc, logger).Register(r)
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

func (s *HandlerSuite) TestAdd() {
	s.Run("admin adds an admin", func() {
		rec := s.do(http.MethodPost, "/admin/admins", "alice", AddAdminRequest{Principal: "bob"})
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp adminResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal("bob", resp.Principal)
		s.Equal("alice", resp.AddedBy)
	})

	s.Run("duplicate add is a conflict", func() {
		rec := s.do(http.MethodPost, "/admin/admins", "alice", AddAdminRequest{Principal: "bob"})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("non-admin is unauthorized", func() {
		rec := s.do(http.MethodPost, "/admin/admins", "mallory", AddAdminRequest{Principal: "eve"})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("unauthenticated is rejected by the middleware", func() {
		rec := s.do(http.MethodPost, "/admin/admins", "", AddAdminRequest{Principal: "eve"})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("empty principal is invalid", func() {
		rec := s.do(http.MethodPost, "/admin/admins", "alice", AddAdminRequest{Principal: "   "})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestRemove() {
	s.Run("removing the last admin conflicts", func() {
		rec := s.do(http.MethodDelete, "/admin/admins/alice", "alice", nil)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("removes once another admin exists", func() {
		rec := s.do(http.MethodPost, "/admin/admins", "alice", AddAdminRequest{Principal: "bob"})
		s.Require().Equal(http.StatusCreated, rec.Code)

		rec = s.do(http.MethodDelete, "/admin/admins/alice", "bob", nil)
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("unknown target is not found", func() {
		rec := s.do(http.MethodDelete, "/admin/admins/mallory", "bob", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestList() {
	rec := s.do(http.MethodGet, "/admin/admins", "alice", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp listResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().Len(resp.Admins, 1)
	s.Equal("alice", resp.Admins[0].Principal)
}
