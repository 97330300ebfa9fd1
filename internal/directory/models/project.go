package models

import (
	"strings"
	"time"

	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

// Field bounds for project records. All lengths apply after trimming.
const (
	MaxNameLength        = 128
	MaxDescriptionLength = 2048
	MaxCategoryLength    = 64
	MaxWebsiteLength     = 256
	MaxCIDLength         = 128

	// MaxProjectsPerUser bounds how many projects one owner may register.
	MaxProjectsPerUser = 50
)

// Project is the aggregate root of the directory.
//
// Invariants:
//   - Name is unique across all projects (enforced by the store at creation)
//   - Only the owner mutates editable fields (enforced by the service)
//   - VerificationStatus mirrors the verification record and is written only
//     through the status sync path, never by directory callers
//   - ID is assigned once from a monotone counter and never reused
type Project struct {
	ID                 domain.ProjectID          `json:"id"`
	Owner              domain.Principal          `json:"owner"`
	Name               string                    `json:"name"`
	Description        string                    `json:"description"`
	Category           string                    `json:"category"`
	Website            string                    `json:"website,omitempty"`
	LogoCID            domain.CID                `json:"logo_cid,omitempty"`
	MetadataCID        domain.CID                `json:"metadata_cid,omitempty"`
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// NewProject validates every field and returns a project ready for storage.
// The ID is assigned by the store.
func NewProject(owner domain.Principal, req RegisterRequest, now time.Time) (*Project, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project owner cannot be empty")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &Project{
		Owner:              owner,
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Website:            req.Website,
		LogoCID:            req.LogoCID,
		MetadataCID:        req.MetadataCID,
		VerificationStatus: domain.StatusUnverified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// RegisterRequest carries the caller-supplied fields for registration.
type RegisterRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Website     string     `json:"website,omitempty"`
	LogoCID     domain.CID `json:"logo_cid,omitempty"`
	MetadataCID domain.CID `json:"metadata_cid,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	r.Website = strings.TrimSpace(r.Website)
	r.LogoCID = domain.CID(strings.TrimSpace(r.LogoCID.String()))
	r.MetadataCID = domain.CID(strings.TrimSpace(r.MetadataCID.String()))
}

func (r *RegisterRequest) Validate() error {
	if err := requireBounded("name", r.Name, MaxNameLength); err != nil {
		return err
	}
	if err := requireBounded("description", r.Description, MaxDescriptionLength); err != nil {
		return err
	}
	if err := requireBounded("category", r.Category, MaxCategoryLength); err != nil {
		return err
	}
	if err := optionalBounded("website", r.Website, MaxWebsiteLength); err != nil {
		return err
	}
	if err := optionalBounded("logo_cid", r.LogoCID.String(), MaxCIDLength); err != nil {
		return err
	}
	return optionalBounded("metadata_cid", r.MetadataCID.String(), MaxCIDLength)
}

// UpdateRequest carries the fields an owner may change. Nil pointers leave
// the current value untouched; supplied values are re-validated in full.
type UpdateRequest struct {
	Description *string     `json:"description,omitempty"`
	Category    *string     `json:"category,omitempty"`
	Website     *string     `json:"website,omitempty"`
	LogoCID     *domain.CID `json:"logo_cid,omitempty"`
	MetadataCID *domain.CID `json:"metadata_cid,omitempty"`
}

func (r *UpdateRequest) Normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(r.Description)
	trim(r.Category)
	trim(r.Website)
	if r.LogoCID != nil {
		*r.LogoCID = domain.CID(strings.TrimSpace(r.LogoCID.String()))
	}
	if r.MetadataCID != nil {
		*r.MetadataCID = domain.CID(strings.TrimSpace(r.MetadataCID.String()))
	}
}

func (r *UpdateRequest) Validate() error {
	if r.Description != nil {
		if err := requireBounded("description", *r.Description, MaxDescriptionLength); err != nil {
			return err
		}
	}
	if r.Category != nil {
		if err := requireBounded("category", *r.Category, MaxCategoryLength); err != nil {
			return err
		}
	}
	if r.Website != nil {
		if err := optionalBounded("website", *r.Website, MaxWebsiteLength); err != nil {
			return err
		}
	}
	if r.LogoCID != nil {
		if err := optionalBounded("logo_cid", r.LogoCID.String(), MaxCIDLength); err != nil {
			return err
		}
	}
	if r.MetadataCID != nil {
		return optionalBounded("metadata_cid", r.MetadataCID.String(), MaxCIDLength)
	}
	return nil
}

// Apply writes the supplied fields onto the project and refreshes the update
// timestamp. Validate first.
func (r *UpdateRequest) Apply(p *Project, now time.Time) {
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Website != nil {
		p.Website = *r.Website
	}
	if r.LogoCID != nil {
		p.LogoCID = *r.LogoCID
	}
	if r.MetadataCID != nil {
		p.MetadataCID = *r.MetadataCID
	}
	p.UpdatedAt = now
}

func requireBounded(field, value string, max int) error {
	if value == "" {
		return dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
	}
	if len(value) > max {
		return dErrors.Newf(dErrors.CodeValidation, "%s must be %d characters or less", field, max)
	}
	return nil
}

func optionalBounded(field, value string, max int) error {
	if value == "" {
		return nil
	}
	if len(value) > max {
		return dErrors.Newf(dErrors.CodeValidation, "%s must be %d characters or less", field, max)
	}
	return nil
}
