package models

import (
	"time"

	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

// Field bounds.
const (
	MaxNoteLength     = 512
	MaxEvidenceLength = 128
)

// Record is the verification state for a single project. At most one record
// exists per project; a fresh request after rejection replaces the old record
// rather than appending to it.
type Record struct {
	ProjectID   domain.ProjectID          `json:"project_id"`
	Status      domain.VerificationStatus `json:"status"`
	RequestedBy domain.Principal          `json:"requested_by"`
	RequestedAt time.Time                 `json:"requested_at"`
	EvidenceCID domain.CID                `json:"evidence_cid"`
	ReviewedBy  domain.Principal          `json:"reviewed_by,omitempty"`
	ReviewedAt  time.Time                 `json:"reviewed_at,omitempty"`
	Note        string                    `json:"note,omitempty"`
}

// NewRequest builds a fresh pending record.
func NewRequest(id domain.ProjectID, requester domain.Principal, evidence domain.CID, now time.Time) (*Record, error) {
	if evidence == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence cid is required")
	}
	if len(evidence) > MaxEvidenceLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "evidence cid exceeds %d characters", MaxEvidenceLength)
	}
	return &Record{
		ProjectID:   id,
		Status:      domain.StatusPending,
		RequestedBy: requester,
		RequestedAt: now,
		EvidenceCID: evidence,
	}, nil
}

// Decide applies an admin decision, enforcing that only pending records move.
func (r *Record) Decide(target domain.VerificationStatus, reviewer domain.Principal, note string, now time.Time) error {
	if len(note) > MaxNoteLength {
		return dErrors.Newf(dErrors.CodeValidation, "note exceeds %d characters", MaxNoteLength)
	}
	if !r.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeConflict, "invalid status transition from %s", r.Status)
	}
	r.Status = target
	r.ReviewedBy = reviewer
	r.ReviewedAt = now
	r.Note = note
	return nil
}
