package handler

import (
	"projecthub/internal/directory/models"
)

// RegisterProjectRequest is the HTTP request body for POST /projects.
type RegisterProjectRequest struct {
	models.RegisterRequest
}

// Validate validates and normalizes the request.
func (r *RegisterProjectRequest) Validate() error {
	r.Normalize()
	return r.RegisterRequest.Validate()
}

// UpdateProjectRequest is the HTTP request body for PATCH /projects/{id}.
type UpdateProjectRequest struct {
	models.UpdateRequest
}

// Validate validates and normalizes the request.
func (r *UpdateProjectRequest) Validate() error {
	r.Normalize()
	return r.UpdateRequest.Validate()
}
