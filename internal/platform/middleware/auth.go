package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"projecthub/pkg/domain"
)

// PrincipalValidator validates a bearer token and returns the principal it
// attests. Implemented by internal/jwtauth.
type PrincipalValidator interface {
	ValidatePrincipal(tokenString string) (domain.Principal, error)
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for use in handler tests.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated principal from the context. Empty
// means the request never passed the auth middleware.
func GetPrincipal(ctx context.Context) domain.Principal {
	p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal)
	if !ok {
		return ""
	}
	return p
}

// WithPrincipal stores a principal on the context. Exposed for tests that
// drive handlers without the middleware.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// RequireAuth authenticates every request via a bearer token and stores the
// attested principal on the context. Authorization (is this principal an
// admin, does it own the project) stays in the services.
func RequireAuth(validator PrincipalValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r, logger, "missing bearer token")
				return
			}
			principal, err := validator.ValidatePrincipal(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthenticated request",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w, r, logger, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// TrustedHeaderAuth reads the principal from X-Principal. Only for deployments
// behind an authenticating proxy that strips the header from client traffic.
func TrustedHeaderAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := domain.Principal(strings.TrimSpace(r.Header.Get("X-Principal")))
			if principal.IsZero() {
				unauthorized(w, r, logger, "missing principal header")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write unauthorized response", "error", err)
	}
}
