// Package httputil standardizes JSON responses and error translation at the
// HTTP boundary.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "projecthub/pkg/domain-errors"
)

// Validatable is implemented by request bodies that validate and normalize
// themselves after decoding.
type Validatable interface {
	Validate() error
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a coded domain error to an HTTP status and a stable error
// body. Internal errors omit the description so infrastructure detail never
// reaches clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, statusFor(code), resp)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeResourceFailed:
		return http.StatusPaymentRequired
	case dErrors.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON request body into T and runs its
// validation, writing the error response itself on failure.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	var body T
	req := PT(&body)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "invalid request body", "request_id", requestID, "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request validation failed", "request_id", requestID, "error", err)
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
