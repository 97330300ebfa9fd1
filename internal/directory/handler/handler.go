package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"projecthub/internal/directory/models"
	"projecthub/internal/platform/middleware"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/httputil"
)

// Service defines the interface for project directory operations.
type Service interface {
	Register(ctx context.Context, owner domain.Principal, req models.RegisterRequest) (*models.Project, error)
	Update(ctx context.Context, caller domain.Principal, id domain.ProjectID, req models.UpdateRequest) (*models.Project, error)
	Get(ctx context.Context, id domain.ProjectID) (*models.Project, error)
	List(ctx context.Context, startID domain.ProjectID, limit int) ([]*models.Project, error)
}

// Handler wires project directory endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a directory handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the mutating endpoints on the authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/projects", h.HandleRegister)
	r.Patch("/projects/{id}", h.HandleUpdate)
}

// RegisterPublic mounts the read endpoints on the public router.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/projects", h.HandleList)
	r.Get("/projects/{id}", h.HandleGet)
}

// HandleRegister handles POST /projects requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	owner := middleware.GetPrincipal(ctx)
	if owner.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.service.Register(ctx, owner, req.RegisterRequest)
	if err != nil {
		h.logger.WarnContext(ctx, "project registration failed",
			"request_id", requestID,
			"owner", owner,
			"name", req.Name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "project registered",
		"request_id", requestID,
		"owner", owner,
		"project_id", project.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, project)
}

// HandleUpdate handles PATCH /projects/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[UpdateProjectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.service.Update(ctx, caller, id, req.UpdateRequest)
	if err != nil {
		h.logger.WarnContext(ctx, "project update failed",
			"request_id", requestID,
			"caller", caller,
			"project_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, project)
}

// HandleGet handles GET /projects/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, project)
}

// HandleList handles GET /projects requests. Paging is restartable: pass the
// last seen id plus one as start_id.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	startID, limit, err := pageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	projects, err := h.service.List(r.Context(), startID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Projects: projects})
}

type listResponse struct {
	Projects []*models.Project `json:"projects"`
}

func pageParams(r *http.Request) (domain.ProjectID, int, error) {
	startID := domain.ProjectID(1)
	if raw := r.URL.Query().Get("start_id"); raw != "" {
		parsed, err := domain.ParseProjectID(raw)
		if err != nil {
			return 0, 0, err
		}
		startID = parsed
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
		}
		limit = parsed
	}
	return startID, limit, nil
}
