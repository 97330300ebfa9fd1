package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"projecthub/internal/platform/middleware"
	"projecthub/internal/treasury/models"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/httputil"
)

// Service defines the interface for fee and treasury operations.
type Service interface {
	SetFee(ctx context.Context, caller domain.Principal, asset domain.Asset, verificationFee, registrationFee int64, treasury domain.Principal) (*models.FeeConfig, error)
	GetFeeConfig(ctx context.Context) (*models.FeeConfig, error)
	SetTreasury(ctx context.Context, caller, treasury domain.Principal) error
	PayFee(ctx context.Context, caller domain.Principal, id domain.ProjectID) (*models.Payment, error)
	Balance(ctx context.Context, asset domain.Asset) (int64, error)
	Withdraw(ctx context.Context, caller domain.Principal, asset domain.Asset, amount int64, destination domain.Principal) error
}

// Handler wires fee and treasury endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a treasury handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts fee and treasury endpoints on the authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/fees", h.HandleSetFee)
	r.Post("/admin/treasury", h.HandleSetTreasury)
	r.Post("/admin/treasury/withdrawals", h.HandleWithdraw)
	r.Post("/projects/{id}/fee", h.HandlePayFee)
}

// RegisterPublic mounts the read endpoints on the public router.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/fees", h.HandleGetFeeConfig)
	r.Get("/treasury/balance", h.HandleBalance)
}

// HandleSetFee handles POST /admin/fees requests.
func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	config, err := h.service.SetFee(ctx, caller,
		domain.Asset(req.Asset), req.VerificationFee, req.RegistrationFee, domain.Principal(req.Treasury))
	if err != nil {
		h.logger.WarnContext(ctx, "set fee failed",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "fee configuration updated",
		"request_id", requestID,
		"caller", caller,
		"verification_fee", config.VerificationFee,
	)
	httputil.WriteJSON(w, http.StatusOK, config)
}

// HandleGetFeeConfig handles GET /fees requests.
func (h *Handler) HandleGetFeeConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.service.GetFeeConfig(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, config)
}

// HandleSetTreasury handles POST /admin/treasury requests.
func (h *Handler) HandleSetTreasury(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetTreasuryRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetTreasury(ctx, caller, domain.Principal(req.Treasury)); err != nil {
		h.logger.WarnContext(ctx, "set treasury failed",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePayFee handles POST /projects/{id}/fee requests.
func (h *Handler) HandlePayFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	payment, err := h.service.PayFee(ctx, caller, id)
	if err != nil {
		h.logger.WarnContext(ctx, "fee payment failed",
			"request_id", requestID,
			"caller", caller,
			"project_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification fee paid",
		"request_id", requestID,
		"caller", caller,
		"project_id", id,
		"amount", payment.Amount,
	)
	httputil.WriteJSON(w, http.StatusCreated, payment)
}

// HandleBalance handles GET /treasury/balance requests.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	asset := domain.Asset(r.URL.Query().Get("asset"))
	balance, err := h.service.Balance(r.Context(), asset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balanceResponse{Asset: asset.String(), Balance: balance})
}

// HandleWithdraw handles POST /admin/treasury/withdrawals requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err := h.service.Withdraw(ctx, caller, domain.Asset(req.Asset), req.Amount, domain.Principal(req.Destination))
	if err != nil {
		h.logger.WarnContext(ctx, "treasury withdrawal failed",
			"request_id", requestID,
			"caller", caller,
			"amount", req.Amount,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "treasury withdrawal complete",
		"request_id", requestID,
		"caller", caller,
		"amount", req.Amount,
	)
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	Asset   string `json:"asset"`
	Balance int64  `json:"balance"`
}
