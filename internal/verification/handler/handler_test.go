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

	adminservice "projecthub/internal/admins/service"
	adminstore "projecthub/internal/admins/store"
	directorymodels "projecthub/internal/directory/models"
	directoryservice "projecthub/internal/directory/service"
	directorystore "projecthub/internal/directory/store"
	"projecthub/internal/platform/middleware"
	"projecthub/internal/treasury/ledger"
	treasuryservice "projecthub/internal/treasury/service"
	treasurystore "projecthub/internal/treasury/store"
	"projecthub/internal/verification/models"
	"projecthub/internal/verification/service"
	"projecthub/internal/verification/store"
	"projecthub/pkg/domain"
)

// HandlerSuite drives the verification endpoints through the real service
// stack so the fee gate, ownership check, and directory mirror are exercised
// end to end.
type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	directory *directoryservice.Service
	projectID domain.ProjectID
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()

	admins := adminservice.New(adminstore.NewMemory())
	s.Require().NoError(admins.Initialize(ctx, "admin"))

	s.directory = directoryservice.New(directorystore.NewMemory())
	project, err := s.directory.Register(ctx, "alice", directorymodels.RegisterRequest{
		Name:        "verifiable",
		Description: "a project",
		Category:    "tooling",
	})
	s.Require().NoError(err)
	s.projectID = project.ID

	book := ledger.New()
	treasury := treasuryservice.New(treasurystore.NewMemory(), admins, s.directory, book)
	_, err = treasury.SetFee(ctx, "admin", domain.Native, 500, 0, "dao-treasury")
	s.Require().NoError(err)
	book.Deposit("alice", domain.Native, 10_000)
	_, err = treasury.PayFee(ctx, "alice", s.projectID)
	s.Require().NoError(err)

	svc := service.New(store.NewMemory(), admins, s.directory, treasury)

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

func (s *HandlerSuite) requestPath() string {
	return fmt.Sprintf("/projects/%d/verification", s.projectID)
}

func (s *HandlerSuite) TestRequest() {
	s.Run("owner files a request", func() {
		rec := s.do(http.MethodPost, s.requestPath(), "alice",
			RequestVerificationRequest{EvidenceCID: "evidence-cid"})
		s.Require().Equal(http.StatusAccepted, rec.Code)

		var record models.Record
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&record))
		s.Equal(domain.StatusPending, record.Status)
		s.Equal(domain.CID("evidence-cid"), record.EvidenceCID)
	})

	s.Run("duplicate request conflicts", func() {
		rec := s.do(http.MethodPost, s.requestPath(), "alice",
			RequestVerificationRequest{EvidenceCID: "evidence-cid"})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("non-owner is forbidden", func() {
		rec := s.do(http.MethodPost, s.requestPath(), "mallory",
			RequestVerificationRequest{EvidenceCID: "evidence-cid"})
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("missing evidence is invalid", func() {
		rec := s.do(http.MethodPost, s.requestPath(), "alice",
			RequestVerificationRequest{EvidenceCID: "  "})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed project id is invalid", func() {
		rec := s.do(http.MethodPost, "/projects/abc/verification", "alice",
			RequestVerificationRequest{EvidenceCID: "evidence-cid"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestApprove() {
	rec := s.do(http.MethodPost, s.requestPath(), "alice",
		RequestVerificationRequest{EvidenceCID: "evidence-cid"})
	s.Require().Equal(http.StatusAccepted, rec.Code)

	s.Run("non-admin cannot approve", func() {
		rec := s.do(http.MethodPost, s.requestPath()+"/approve", "alice", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("admin approves with a note and the mirror follows", func() {
		rec := s.do(http.MethodPost, s.requestPath()+"/approve", "admin",
			DecisionRequest{Note: "looks legit"})
		s.Require().Equal(http.StatusOK, rec.Code)

		var record models.Record
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&record))
		s.Equal(domain.StatusVerified, record.Status)
		s.Equal("looks legit", record.Note)

		project, err := s.directory.Get(context.Background(), s.projectID)
		s.Require().NoError(err)
		s.Equal(domain.StatusVerified, project.VerificationStatus)
	})

	s.Run("deciding a decided record conflicts", func() {
		rec := s.do(http.MethodPost, s.requestPath()+"/reject", "admin", nil)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestRejectWithoutBody() {
	rec := s.do(http.MethodPost, s.requestPath(), "alice",
		RequestVerificationRequest{EvidenceCID: "evidence-cid"})
	s.Require().Equal(http.StatusAccepted, rec.Code)

	rec = s.do(http.MethodPost, s.requestPath()+"/reject", "admin", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var record models.Record
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&record))
	s.Equal(domain.StatusRejected, record.Status)
	s.Empty(record.Note)
}

func (s *HandlerSuite) TestGet() {
	s.Run("no record is not found", func() {
		rec := s.do(http.MethodGet, s.requestPath(), "", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("record is public once filed", func() {
		rec := s.do(http.MethodPost, s.requestPath(), "alice",
			RequestVerificationRequest{EvidenceCID: "evidence-cid"})
		s.Require().Equal(http.StatusAccepted, rec.Code)

		rec = s.do(http.MethodGet, s.requestPath(), "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var record models.Record
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&record))
		s.Equal(s.projectID, record.ProjectID)
	})
}

func (s *HandlerSuite) TestListPending() {
	rec := s.do(http.MethodPost, s.requestPath(), "alice",
		RequestVerificationRequest{EvidenceCID: "evidence-cid"})
	s.Require().Equal(http.StatusAccepted, rec.Code)

	s.Run("non-admin is unauthorized", func() {
		rec := s.do(http.MethodGet, "/admin/verifications/pending", "alice", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("admin lists the queue", func() {
		rec := s.do(http.MethodGet, "/admin/verifications/pending", "admin", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp pendingResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Require().Len(resp.Pending, 1)
		s.Equal(s.projectID, resp.Pending[0].ProjectID)
	})

	s.Run("bad limit is invalid", func() {
		rec := s.do(http.MethodGet, "/admin/verifications/pending?limit=-1", "admin", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
