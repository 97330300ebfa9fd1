package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"projecthub/internal/verification/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Postgres persists verification records.
//
// Schema:
//
//	CREATE TABLE verification_records (
//	    project_id   BIGINT PRIMARY KEY,
//	    status       TEXT NOT NULL,
//	    requested_by TEXT NOT NULL,
//	    requested_at TIMESTAMPTZ NOT NULL,
//	    evidence_cid TEXT NOT NULL,
//	    reviewed_by  TEXT NOT NULL DEFAULT '',
//	    reviewed_at  TIMESTAMPTZ,
//	    note         TEXT NOT NULL DEFAULT ''
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Put(ctx context.Context, record *models.Record, admit func(existing *models.Record) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanRecord(tx.QueryRowContext(ctx,
			`SELECT project_id, status, requested_by, requested_at, evidence_cid, reviewed_by, reviewed_at, note
			 FROM verification_records WHERE project_id = $1 FOR UPDATE`, uint64(record.ProjectID)))
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		if admit != nil {
			if err := admit(existing); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO verification_records (project_id, status, requested_by, requested_at, evidence_cid, reviewed_by, reviewed_at, note)
			 VALUES ($1, $2, $3, $4, $5, '', NULL, '')
			 ON CONFLICT (project_id) DO UPDATE SET
			     status = EXCLUDED.status,
			     requested_by = EXCLUDED.requested_by,
			     requested_at = EXCLUDED.requested_at,
			     evidence_cid = EXCLUDED.evidence_cid,
			     reviewed_by = '',
			     reviewed_at = NULL,
			     note = ''`,
			uint64(record.ProjectID), record.Status.String(), record.RequestedBy.String(), record.RequestedAt, record.EvidenceCID.String())
		if err != nil {
			return fmt.Errorf("upsert verification record: %w", err)
		}
		return nil
	})
}

// Restore reinstates the pre-mutation record after a failed follow-up write
// elsewhere. A nil prior removes the row entirely.
func (s *Postgres) Restore(ctx context.Context, id domain.ProjectID, prior *models.Record) error {
	if prior == nil {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM verification_records WHERE project_id = $1`, uint64(id))
		if err != nil {
			return fmt.Errorf("delete verification record: %w", err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_records (project_id, status, requested_by, requested_at, evidence_cid, reviewed_by, reviewed_at, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (project_id) DO UPDATE SET
		     status = EXCLUDED.status,
		     requested_by = EXCLUDED.requested_by,
		     requested_at = EXCLUDED.requested_at,
		     evidence_cid = EXCLUDED.evidence_cid,
		     reviewed_by = EXCLUDED.reviewed_by,
		     reviewed_at = EXCLUDED.reviewed_at,
		     note = EXCLUDED.note`,
		uint64(prior.ProjectID), prior.Status.String(), prior.RequestedBy.String(), prior.RequestedAt,
		prior.EvidenceCID.String(), prior.ReviewedBy.String(), nullableTime(prior.ReviewedAt), prior.Note)
	if err != nil {
		return fmt.Errorf("restore verification record: %w", err)
	}
	return nil
}

func (s *Postgres) Execute(ctx context.Context, id domain.ProjectID, mutate func(*models.Record) error) (*models.Record, error) {
	var out *models.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		record, err := scanRecord(tx.QueryRowContext(ctx,
			`SELECT project_id, status, requested_by, requested_at, evidence_cid, reviewed_by, reviewed_at, note
			 FROM verification_records WHERE project_id = $1 FOR UPDATE`, uint64(id)))
		if err != nil {
			return err
		}
		if err := mutate(record); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE verification_records
			 SET status = $2, reviewed_by = $3, reviewed_at = $4, note = $5
			 WHERE project_id = $1`,
			uint64(id), record.Status.String(), record.ReviewedBy.String(),
			nullableTime(record.ReviewedAt), record.Note)
		if err != nil {
			return fmt.Errorf("update verification record: %w", err)
		}
		out = record
		return nil
	})
	return out, err
}

func (s *Postgres) Find(ctx context.Context, id domain.ProjectID) (*models.Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx,
		`SELECT project_id, status, requested_by, requested_at, evidence_cid, reviewed_by, reviewed_at, note
		 FROM verification_records WHERE project_id = $1`, uint64(id)))
}

func (s *Postgres) ListPending(ctx context.Context, startID domain.ProjectID, limit int) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT project_id, status, requested_by, requested_at, evidence_cid, reviewed_by, reviewed_at, note
		 FROM verification_records
		 WHERE project_id >= $1 AND status = $2
		 ORDER BY project_id LIMIT $3`,
		uint64(startID), domain.StatusPending.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	var projectID uint64
	var status, requestedBy, evidence, reviewedBy string
	var reviewedAt sql.NullTime
	err := row.Scan(&projectID, &status, &requestedBy, &r.RequestedAt, &evidence, &reviewedBy, &reviewedAt, &r.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan verification record: %w", err)
	}
	r.ProjectID = domain.ProjectID(projectID)
	r.Status = domain.VerificationStatus(status)
	r.RequestedBy = domain.Principal(requestedBy)
	r.EvidenceCID = domain.CID(evidence)
	r.ReviewedBy = domain.Principal(reviewedBy)
	if reviewedAt.Valid {
		r.ReviewedAt = reviewedAt.Time
	}
	return &r, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
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
