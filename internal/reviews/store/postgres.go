package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"projecthub/internal/reviews/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Postgres persists reviews alongside denormalized per-project aggregates.
//
// Schema:
//
//	CREATE TABLE reviews (
//	    project_id  BIGINT NOT NULL,
//	    reviewer    TEXT NOT NULL,
//	    rating      INT NOT NULL,
//	    comment_cid TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (project_id, reviewer)
//	);
//
//	CREATE TABLE review_aggregates (
//	    project_id BIGINT PRIMARY KEY,
//	    sum        BIGINT NOT NULL,
//	    count      BIGINT NOT NULL CHECK (count >= 0)
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, review *models.Review) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reviews (project_id, reviewer, rating, comment_cid, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uint64(review.ProjectID), review.Reviewer.String(), review.Rating,
			review.CommentCID.String(), review.CreatedAt, review.UpdatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return sentinel.ErrAlreadyExists
			}
			return fmt.Errorf("insert review: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO review_aggregates (project_id, sum, count) VALUES ($1, $2, 1)
			 ON CONFLICT (project_id) DO UPDATE SET
			     sum = review_aggregates.sum + EXCLUDED.sum,
			     count = review_aggregates.count + 1`,
			uint64(review.ProjectID), int64(review.Rating)*models.RatingScale)
		if err != nil {
			return fmt.Errorf("fold review into aggregate: %w", err)
		}
		return nil
	})
}

func (s *Postgres) Update(ctx context.Context, id domain.ProjectID, reviewer domain.Principal, mutate func(*models.Review) error) (*models.Review, error) {
	var out *models.Review
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		review, err := scanReview(tx.QueryRowContext(ctx,
			`SELECT project_id, reviewer, rating, comment_cid, created_at, updated_at
			 FROM reviews WHERE project_id = $1 AND reviewer = $2 FOR UPDATE`,
			uint64(id), reviewer.String()))
		if err != nil {
			return err
		}
		oldRating := review.Rating
		if err := mutate(review); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE reviews SET rating = $3, comment_cid = $4, updated_at = $5
			 WHERE project_id = $1 AND reviewer = $2`,
			uint64(id), reviewer.String(), review.Rating, review.CommentCID.String(), review.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}
		if review.Rating != oldRating {
			_, err = tx.ExecContext(ctx,
				`UPDATE review_aggregates SET sum = sum + $2 WHERE project_id = $1`,
				uint64(id), int64(review.Rating-oldRating)*models.RatingScale)
			if err != nil {
				return fmt.Errorf("swap rating in aggregate: %w", err)
			}
		}
		out = review
		return nil
	})
	return out, err
}

func (s *Postgres) Delete(ctx context.Context, id domain.ProjectID, reviewer domain.Principal) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var rating int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM reviews WHERE project_id = $1 AND reviewer = $2 RETURNING rating`,
			uint64(id), reviewer.String()).Scan(&rating)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE review_aggregates SET sum = sum - $2, count = count - 1 WHERE project_id = $1`,
			uint64(id), int64(rating)*models.RatingScale)
		if err != nil {
			return fmt.Errorf("fold review out of aggregate: %w", err)
		}
		return nil
	})
}

func (s *Postgres) Find(ctx context.Context, id domain.ProjectID, reviewer domain.Principal) (*models.Review, error) {
	return scanReview(s.db.QueryRowContext(ctx,
		`SELECT project_id, reviewer, rating, comment_cid, created_at, updated_at
		 FROM reviews WHERE project_id = $1 AND reviewer = $2`,
		uint64(id), reviewer.String()))
}

func (s *Postgres) Aggregate(ctx context.Context, id domain.ProjectID) (models.Aggregate, error) {
	var agg models.Aggregate
	err := s.db.QueryRowContext(ctx,
		`SELECT sum, count FROM review_aggregates WHERE project_id = $1`, uint64(id)).
		Scan(&agg.Sum, &agg.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Aggregate{}, nil
	}
	if err != nil {
		return models.Aggregate{}, fmt.Errorf("select aggregate: %w", err)
	}
	return agg, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	var r models.Review
	var projectID uint64
	var reviewer, comment string
	err := row.Scan(&projectID, &reviewer, &r.Rating, &comment, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan review: %w", err)
	}
	r.ProjectID = domain.ProjectID(projectID)
	r.Reviewer = domain.Principal(reviewer)
	r.CommentCID = domain.CID(comment)
	return &r, nil
}

func (s *Postgres) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
