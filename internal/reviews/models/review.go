package models

import (
	"time"

	"projecthub/pkg/domain"
	dErrors "projecthub/pkg/domain-errors"
)

// Rating bounds. Ratings are whole stars on the wire; the aggregate works in
// hundredths to keep averages in integer arithmetic.
const (
	MinRating = 1
	MaxRating = 5

	MaxCommentCIDLength = 128

	// RatingScale converts a star rating to aggregate units.
	RatingScale = 100
)

// Review is one principal's rating of one project. The (project, reviewer)
// pair is the key: a second submission is an update, never a second row.
type Review struct {
	ProjectID  domain.ProjectID `json:"project_id"`
	Reviewer   domain.Principal `json:"reviewer"`
	Rating     int              `json:"rating"`
	CommentCID domain.CID       `json:"comment_cid,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewReview validates and builds a review.
func NewReview(id domain.ProjectID, reviewer domain.Principal, rating int, comment domain.CID, now time.Time) (*Review, error) {
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	if len(comment) > MaxCommentCIDLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "comment cid exceeds %d characters", MaxCommentCIDLength)
	}
	return &Review{
		ProjectID:  id,
		Reviewer:   reviewer,
		Rating:     rating,
		CommentCID: comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return dErrors.Newf(dErrors.CodeValidation, "rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}
