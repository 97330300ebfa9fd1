package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"projecthub/internal/admins/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Postgres persists the admin registry. The position column provides the
// ordered enumeration view; the primary key provides the membership view.
//
// Schema:
//
//	CREATE TABLE admins (
//	    principal TEXT PRIMARY KEY,
//	    added_by  TEXT NOT NULL,
//	    added_at  TIMESTAMPTZ NOT NULL,
//	    position  BIGINT NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Initialize(ctx context.Context, seed *models.Admin) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if count > 0 {
			return sentinel.ErrAlreadyExists
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO admins (principal, added_by, added_at, position) VALUES ($1, $2, $3, 0)`,
			seed.Principal.String(), seed.AddedBy.String(), seed.AddedAt)
		if err != nil {
			return fmt.Errorf("insert seed admin: %w", err)
		}
		return nil
	})
}

func (s *Postgres) Add(ctx context.Context, admin *models.Admin) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (principal, added_by, added_at, position)
		 VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), -1) + 1 FROM admins))`,
		admin.Principal.String(), admin.AddedBy.String(), admin.AddedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *Postgres) Remove(ctx context.Context, principal domain.Principal) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		// Lock every row before counting; another caller may have removed a
		// member since the service read the registry. FOR UPDATE cannot sit on
		// the aggregate itself, so the lock happens in the subquery.
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM (SELECT 1 FROM admins FOR UPDATE) locked`).Scan(&count); err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM admins WHERE principal = $1`, principal.String())
		if err != nil {
			return fmt.Errorf("delete admin: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete admin: %w", err)
		}
		if affected == 0 {
			return sentinel.ErrNotFound
		}
		if count == 1 {
			return sentinel.ErrInvalidState
		}
		return nil
	})
}

func (s *Postgres) IsAdmin(ctx context.Context, principal domain.Principal) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM admins WHERE principal = $1)`, principal.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return exists, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Admin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT principal, added_by, added_at FROM admins ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []*models.Admin
	for rows.Next() {
		var a models.Admin
		var principal, addedBy string
		if err := rows.Scan(&principal, &addedBy, &a.AddedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		a.Principal = domain.Principal(principal)
		a.AddedBy = domain.Principal(addedBy)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *Postgres) Initialized(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
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
