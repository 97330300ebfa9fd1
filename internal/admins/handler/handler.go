package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"projecthub/internal/admins/models"
	"projecthub/internal/platform/middleware"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/httputil"
)

// Service defines the interface for admin registry operations.
type Service interface {
	Add(ctx context.Context, caller, newAdmin domain.Principal) (*models.Admin, error)
	Remove(ctx context.Context, caller, target domain.Principal) error
	List(ctx context.Context) ([]*models.Admin, error)
}

// Handler wires admin registry endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an admin handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts admin registry endpoints on the authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/admins", h.HandleAdd)
	r.Delete("/admin/admins/{principal}", h.HandleRemove)
	r.Get("/admin/admins", h.HandleList)
}

// HandleAdd handles POST /admin/admins requests.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	admin, err := h.service.Add(ctx, caller, req.AdminPrincipal())
	if err != nil {
		h.logger.WarnContext(ctx, "add admin failed",
			"request_id", requestID,
			"caller", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin added",
		"request_id", requestID,
		"caller", caller,
		"admin", admin.Principal,
	)
	httputil.WriteJSON(w, http.StatusCreated, fromAdmin(admin))
}

// HandleRemove handles DELETE /admin/admins/{principal} requests.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	caller := middleware.GetPrincipal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	target := domain.Principal(chi.URLParam(r, "principal"))
	if target.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "principal is required"))
		return
	}

	if err := h.service.Remove(ctx, caller, target); err != nil {
		h.logger.WarnContext(ctx, "remove admin failed",
			"request_id", requestID,
			"caller", caller,
			"target", target,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin removed",
		"request_id", requestID,
		"caller", caller,
		"target", target,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /admin/admins requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admins, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]adminResponse, 0, len(admins))
	for _, a := range admins {
		out = append(out, fromAdmin(a))
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Admins: out})
}

type adminResponse struct {
	Principal string    `json:"principal"`
	AddedBy   string    `json:"added_by"`
	AddedAt   time.Time `json:"added_at"`
}

type listResponse struct {
	Admins []adminResponse `json:"admins"`
}

func fromAdmin(a *models.Admin) adminResponse {
	return adminResponse{
		Principal: a.Principal.String(),
		AddedBy:   a.AddedBy.String(),
		AddedAt:   a.AddedAt,
	}
}
