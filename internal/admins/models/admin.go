package models

import (
	"time"

	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

// Admin is one member of the registry.
//
// Invariants:
//   - Principal is non-empty
//   - The registry as a whole never shrinks below one member once initialized
//     (enforced by the store, which owns both the membership map and the
//     ordered list and keeps them consistent)
type Admin struct {
	Principal domain.Principal `json:"principal"`
	AddedBy   domain.Principal `json:"added_by"`
	AddedAt   time.Time        `json:"added_at"`
}

func NewAdmin(principal, addedBy domain.Principal, now time.Time) (*Admin, error) {
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "admin principal cannot be empty")
	}
	return &Admin{Principal: principal, AddedBy: addedBy, AddedAt: now}, nil
}
