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
	"projecthub/internal/treasury/models"
	"projecthub/internal/treasury/service"
	"projecthub/internal/treasury/store"
	"projecthub/pkg/domain"
)

// HandlerSuite drives the fee and treasury endpoints through the real service
// stack: admin registry for the guard, directory for project existence, and
// the in-process ledger as the value transferrer.
type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	book      *ledger.Ledger
	projectID domain.ProjectID
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()

	admins := adminservice.New(adminstore.NewMemory())
	s.Require().NoError(admins.Initialize(ctx, "admin"))

	directory := directoryservice.New(directorystore.NewMemory())
	project, err := directory.Register(ctx, "alice", directorymodels.RegisterRequest{
		Name:        "billable",
		Description: "a project",
		Category:    "tooling",
	})
	s.Require().NoError(err)
	s.projectID = project.ID

	s.book = ledger.New()
	svc := service.New(store.NewMemory(), admins, directory, s.book)

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

func (s *HandlerSuite) setFee(amount int64) {
	rec := s.do(http.MethodPost, "/admin/fees", "admin", SetFeeRequest{
		VerificationFee: amount,
		Treasury:        "dao-treasury",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestSetFee() {
	s.Run("admin sets the fee", func() {
		rec := s.do(http.MethodPost, "/admin/fees", "admin", SetFeeRequest{
			VerificationFee: 500,
			Treasury:        "dao-treasury",
		})
		s.Require().Equal(http.StatusOK, rec.Code)

		var cfg models.FeeConfig
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&cfg))
		s.Equal(int64(500), cfg.VerificationFee)
		s.Equal(domain.Principal("dao-treasury"), cfg.Treasury)
	})

	s.Run("non-admin is unauthorized", func() {
		rec := s.do(http.MethodPost, "/admin/fees", "mallory", SetFeeRequest{
			VerificationFee: 500,
			Treasury:        "dao-treasury",
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("negative fee is invalid", func() {
		rec := s.do(http.MethodPost, "/admin/fees", "admin", SetFeeRequest{
			VerificationFee: -1,
			Treasury:        "dao-treasury",
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestGetFeeConfig() {
	s.Run("unset config is a precondition failure", func() {
		rec := s.do(http.MethodGet, "/fees", "", nil)
		s.Equal(http.StatusPreconditionFailed, rec.Code)
	})

	s.Run("returns the configured fee without authentication", func() {
		s.setFee(500)
		rec := s.do(http.MethodGet, "/fees", "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var cfg models.FeeConfig
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&cfg))
		s.Equal(int64(500), cfg.VerificationFee)
	})
}

func (s *HandlerSuite) TestPayFee() {
	s.setFee(500)
	s.book.Deposit("alice", domain.Native, 2000)

	path := fmt.Sprintf("/projects/%d/fee", s.projectID)

	s.Run("owner pays the fee", func() {
		rec := s.do(http.MethodPost, path, "alice", nil)
		s.Require().Equal(http.StatusCreated, rec.Code)

		var payment models.Payment
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&payment))
		s.Equal(int64(500), payment.Amount)
		s.Equal(domain.Principal("alice"), payment.Payer)
	})

	s.Run("broke payer gets payment required", func() {
		rec := s.do(http.MethodPost, path, "pauper", nil)
		s.Equal(http.StatusPaymentRequired, rec.Code)
	})

	s.Run("unknown project is not found", func() {
		rec := s.do(http.MethodPost, "/projects/999/fee", "alice", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed project id is invalid", func() {
		rec := s.do(http.MethodPost, "/projects/abc/fee", "alice", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestBalanceAndWithdraw() {
	s.setFee(500)
	s.book.Deposit("alice", domain.Native, 2000)
	rec := s.do(http.MethodPost, fmt.Sprintf("/projects/%d/fee", s.projectID), "alice", nil)
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("balance is public", func() {
		rec := s.do(http.MethodGet, "/treasury/balance", "", nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp balanceResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(int64(500), resp.Balance)
	})

	s.Run("non-admin cannot withdraw", func() {
		rec := s.do(http.MethodPost, "/admin/treasury/withdrawals", "alice", WithdrawRequest{Amount: 100})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("admin withdraws to the configured treasury", func() {
		rec := s.do(http.MethodPost, "/admin/treasury/withdrawals", "admin", WithdrawRequest{Amount: 300})
		s.Require().Equal(http.StatusNoContent, rec.Code)
		s.Equal(int64(300), s.book.BalanceOf("dao-treasury", domain.Native))
	})

	s.Run("overdraw fails", func() {
		rec := s.do(http.MethodPost, "/admin/treasury/withdrawals", "admin", WithdrawRequest{Amount: 10_000})
		s.Equal(http.StatusPaymentRequired, rec.Code)
	})

	s.Run("non-positive amount is invalid", func() {
		rec := s.do(http.MethodPost, "/admin/treasury/withdrawals", "admin", WithdrawRequest{Amount: 0})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
