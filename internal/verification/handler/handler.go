package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"projecthub/internal/platform/middleware"
	"projecthub/internal/verification/models"
	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
	"projecthub/pkg/platform/httputil"
)

// Service defines the interface for verification operations.
type Service interface {
	Request(ctx context.Context, caller domain.Principal, id domain.ProjectID, evidence domain.CID) (*models.Record, error)
	Approve(ctx context.Context, caller domain.Principal, id domain.ProjectID, note string) (*models.Record, error)
	Reject(ctx context.Context, caller domain.Principal, id domain.ProjectID, note string) (*models.Record, error)
	Get(ctx context.Context, id domain.ProjectID) (*models.Record, error)
	ListPending(ctx context.Context, caller domain.Principal, startID domain.ProjectID, limit int) ([]*models.Record, error)
}

// Handler wires verification endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/projects/{id}/verification", h.HandleRequest)
	r.Post("/projects/{id}/verification/approve", h.HandleApprove)
	r.Post("/projects/{id}/verification/reject", h.HandleReject)
	r.Get("/admin/verifications/pending", h.HandleListPending)
}

// RegisterPublic mounts the read endpoint on the public router.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/projects/{id}/verification", h.HandleGet)
}

// HandleRequest handles POST /projects/{id}/verification requests.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
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

	req, ok := httputil.DecodeAndPrepare[RequestVerificationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Request(ctx, caller, id, req.Evidence())
	if err != nil {
		h.logger.WarnContext(ctx, "verification request failed",
			"request_id", requestID,
			"caller", caller,
			"project_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification requested",
		"request_id", requestID,
		"caller", caller,
		"project_id", id,
	)
	httputil.WriteJSON(w, http.StatusAccepted, record)
}

// HandleApprove handles POST /projects/{id}/verification/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve, "verification approved")
}

// HandleReject handles POST /projects/{id}/verification/reject requests.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "verification rejected")
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decide func(context.Context, domain.Principal, domain.ProjectID, string) (*models.Record, error), msg string) {
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

	// The note body is optional; an empty body decides without comment.
	var req DecisionRequest
	if r.ContentLength > 0 {
		parsed, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		req = *parsed
	}

	record, err := decide(ctx, caller, id, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "verification decision failed",
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
	)
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleGet handles GET /projects/{id}/verification requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProjectID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleListPending handles GET /admin/verifications/pending requests.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := middleware.GetPrincipal(ctx)
	if caller.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	startID := domain.ProjectID(1)
	if raw := r.URL.Query().Get("start_id"); raw != "" {
		parsed, err := domain.ParseProjectID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		startID = parsed
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	records, err := h.service.ListPending(ctx, caller, startID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*models.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, pendingResponse{Pending: records})
}

type pendingResponse struct {
	Pending []*models.Record `json:"pending"`
}

// RequestVerificationRequest is the HTTP request body for
// POST /projects/{id}/verification.
type RequestVerificationRequest struct {
	EvidenceCID string `json:"evidence_cid"`
}

// Validate validates and normalizes the request.
func (r *RequestVerificationRequest) Validate() error {
	r.EvidenceCID = strings.TrimSpace(r.EvidenceCID)
	if r.EvidenceCID == "" {
		return dErrors.New(dErrors.CodeValidation, "evidence_cid is required")
	}
	if len(r.EvidenceCID) > models.MaxEvidenceLength {
		return dErrors.Newf(dErrors.CodeValidation, "evidence_cid must be %d characters or less", models.MaxEvidenceLength)
	}
	return nil
}

// Evidence returns the validated evidence CID.
func (r *RequestVerificationRequest) Evidence() domain.CID {
	return domain.CID(r.EvidenceCID)
}

// DecisionRequest is the optional HTTP request body for approve and reject.
type DecisionRequest struct {
	Note string `json:"note,omitempty"`
}

// Validate validates the request.
func (r *DecisionRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > models.MaxNoteLength {
		return dErrors.Newf(dErrors.CodeValidation, "note must be %d characters or less", models.MaxNoteLength)
	}
	return nil
}
