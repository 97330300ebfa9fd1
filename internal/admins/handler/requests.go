package handler

import (
	"strings"

	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

// AddAdminRequest is the HTTP request body for POST /admin/admins.
type AddAdminRequest struct {
	Principal string `json:"principal"`
}

// Validate validates and normalizes the request.
func (r *AddAdminRequest) Validate() error {
	r.Principal = strings.TrimSpace(r.Principal)
	if r.Principal == "" {
		return dErrors.New(dErrors.CodeValidation, "principal is required")
	}
	return nil
}

// AdminPrincipal returns the validated principal.
func (r *AddAdminRequest) AdminPrincipal() domain.Principal {
	return domain.Principal(r.Principal)
}
