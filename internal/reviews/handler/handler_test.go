package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	directorymodels "projecthub/internal/directory/models"
	directoryservice "projecthub/internal/directory/service"
	directorystore "projecthub/internal/directory/store"
	"projecthub/internal/platform/middleware"
	"projecthub/internal/reviews/models"
	"projecthub/internal/reviews/service"
	"projecthub/internal/reviews/store"
	"projecthub/pkg/domain"
)

// HandlerSuite drives the review endpoints through the real service and
// in-memory stores.
type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	projectID domain.ProjectID
}

func (s *HandlerSuite) SetupTest() {
	directory := directoryservice.New(directorystore.NewMemory())
	project, err := directory.Register(context.Background(), "alice", directorymodels.RegisterRequest{
		Name:        "reviewable",
		Description: "a project",
		Category:    "tooling",
	})
	s.Require().NoError(err)
	s.projectID = project.ID

	svc := service.New(store.NewMemory(), directory)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	h := New(svc, logger)
	h.RegisterPublic(r)
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.TrustedHeaderAuth(logger))
		h.Register(authed)
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

func (s *HandlerSuite) reviewsPath() string {
	return fmt.Sprintf("/projects/%d/reviews", s.projectID)
}

func (s *HandlerSuite) TestAdd() {
	s.Run("reviewer submits a review", func() {
		rec := s.do(http.MethodPost, s.reviewsPath(), "bob", ReviewRequest{Rating: 4, CommentCID: "comment-cid"})
		s.Require().Equal(http.StatusCreated, rec.Code)

		var review models.Review
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&review))
		s.Equal(4, review.Rating)
		s.Equal(domain.Principal("bob"), review.Reviewer)
	})

	s.Run("second review from the same reviewer conflicts", func() {
		rec := s.do(http.MethodPost, s.reviewsPath(), "bob", ReviewRequest{Rating: 5})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("owner cannot review their own project", func() {
		rec := s.do(http.MethodPost, s.reviewsPath(), "alice", ReviewRequest{Rating: 5})
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("rating out of range is invalid", func() {
		rec := s.do(http.MethodPost, s.reviewsPath(), "carol", ReviewRequest{Rating: 6})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown project is not found", func() {
		rec := s.do(http.MethodPost, "/projects/999/reviews", "bob", ReviewRequest{Rating: 3})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestUpdate() {
	rec := s.do(http.MethodPost, s.reviewsPath(), "bob", ReviewRequest{Rating: 2})
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("reviewer revises their rating", func() {
		rec := s.do(http.MethodPut, s.reviewsPath(), "bob", ReviewRequest{Rating: 5})
		s.Require().Equal(http.StatusOK, rec.Code)

		var review models.Review
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&review))
		s.Equal(5, review.Rating)
	})

	s.Run("updating a missing review is not found", func() {
		rec := s.do(http.MethodPut, s.reviewsPath(), "carol", ReviewRequest{Rating: 3})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestGet() {
	rec := s.do(http.MethodPost, s.reviewsPath(), "bob", ReviewRequest{Rating: 4})
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("review is public", func() {
		rec := s.do(http.MethodGet, s.reviewsPath()+"/bob", "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var review models.Review
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&review))
		s.Equal(4, review.Rating)
	})

	s.Run("missing review is not found", func() {
		rec := s.do(http.MethodGet, s.reviewsPath()+"/carol", "", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestRating() {
	s.Run("no reviews yields a zero average", func() {
		rec := s.do(http.MethodGet, fmt.Sprintf("/projects/%d/rating", s.projectID), "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ratingResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(int64(0), resp.Average)
		s.Equal(uint64(0), resp.Count)
	})

	s.Run("average is in hundredths and truncated", func() {
		rec := s.do(http.MethodPost, s.reviewsPath(), "bob", ReviewRequest{Rating: 4})
		s.Require().Equal(http.StatusCreated, rec.Code)
		rec = s.do(http.MethodPost, s.reviewsPath(), "carol", ReviewRequest{Rating: 5})
		s.Require().Equal(http.StatusCreated, rec.Code)
		rec = s.do(http.MethodPost, s.reviewsPath(), "dave", ReviewRequest{Rating: 5})
		s.Require().Equal(http.StatusCreated, rec.Code)

		rec = s.do(http.MethodGet, fmt.Sprintf("/projects/%d/rating", s.projectID), "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp ratingResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(int64(466), resp.Average)
		s.Equal(uint64(3), resp.Count)
	})
}
