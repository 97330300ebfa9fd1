package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"projecthub/internal/platform/middleware"
	"projecthub/internal/reviews/models"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/httputil"
)

// Service defines the interface for review ledger operations.
type Service interface {
	Add(ctx context.Context, caller domain.Principal, id domain.ProjectID, rating int, comment domain.CID) (*models.Review, error)
	Update(ctx context.Context, caller domain.Principal, id domain.ProjectID, rating int, comment domain.CID) (*models.Review, error)
	Get(ctx context.Context, id domain.ProjectID, reviewer domain.Principal) (*models.Review, error)
	Average(ctx context.Context, id domain.ProjectID) (int64, uint64, error)
}

// Handler wires review endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a reviews handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the mutating endpoints on the authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/projects/{id}/reviews", h.HandleAdd)
	r.Put("/projects/{id}/reviews", h.HandleUpdate)
}

// RegisterPublic mounts the read endpoints on the public router.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/projects/{id}/reviews/{reviewer}", h.HandleGet)
	r.Get("/projects/{id}/rating", h.HandleRating)
}

// HandleAdd handles POST /projects/{id}/reviews requests.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.service.Add, http.StatusCreated, "review submitted")
}

// HandleUpdate handles PUT /projects/{id}/reviews requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.service.Update, http.StatusOK, "review updated")
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.Principal, domain.ProjectID, int, domain.CID) (*models.Review, error), status int, msg string) {
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

	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	review, err := op(ctx, caller, id, req.Rating, domain.CID(req.CommentCID))
	if err != nil {
		h.logger.WarnContext(ctx, "review submission failed",
			"request_id", requestID,
			"caller", caller,
			"project_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, msg,
		"request_id", requestID,
		"caller", caller,
		"project_id", id,
		"rating", req.Rating,
	)
	httputil.WriteJSON(w, status, review)
}

// HandleGet handles GET /projects/{id}/reviews/{reviewer} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviewer := domain.Principal(chi.URLParam(r, "reviewer"))
	if reviewer.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "reviewer is required"))
		return
	}

	review, err := h.service.Get(r.Context(), id, reviewer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

// HandleRating handles GET /projects/{id}/rating requests. The average is in
// hundredths of a star.
func (h *Handler) HandleRating(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	average, count, err := h.service.Average(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ratingResponse{
		ProjectID: id,
		Average:   average,
		Count:     count,
	})
}

type ratingResponse struct {
	ProjectID domain.ProjectID `json:"project_id"`
	Average   int64            `json:"average"`
	Count     uint64           `json:"count"`
}

// ReviewRequest is the HTTP request body for review submission and update.
type ReviewRequest struct {
	Rating     int    `json:"rating"`
	CommentCID string `json:"comment_cid,omitempty"`
}

// Validate validates and normalizes the request.
func (r *ReviewRequest) Validate() error {
	r.CommentCID = strings.TrimSpace(r.CommentCID)
	if err := models.ValidateRating(r.Rating); err != nil {
		return err
	}
	if len(r.CommentCID) > models.MaxCommentCIDLength {
		return dErrors.Newf(dErrors.CodeValidation, "comment_cid must be %d characters or less", models.MaxCommentCIDLength)
	}
	return nil
}
