package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"projecthub/internal/directory/models"
	"projecthub/pkg/domain"
	"projecthub/pkg/platform/sentinel"
)

// Postgres persists project records.
//
// Schema:
//
//	CREATE TABLE projects (
//	    id            BIGSERIAL PRIMARY KEY,
//	    owner_id      TEXT NOT NULL,
//	    name          TEXT NOT NULL,
//	    description   TEXT NOT NULL,
//	    category      TEXT NOT NULL,
//	    website       TEXT NOT NULL DEFAULT '',
//	    logo_cid      TEXT NOT NULL DEFAULT '',
//	    metadata_cid  TEXT NOT NULL DEFAULT '',
//	    verification_status TEXT NOT NULL DEFAULT 'unverified',
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX projects_name_key ON projects (LOWER(name));
//	CREATE INDEX projects_owner_idx ON projects (owner_id);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const projectColumns = `id, owner_id, name, description, category, website, logo_cid, metadata_cid, verification_status, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, project *models.Project) (domain.ProjectID, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE owner_id = $1`, project.Owner.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count owner projects: %w", err)
	}
	if count >= models.MaxProjectsPerUser {
		return 0, sentinel.ErrInsufficient
	}

	var id uint64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO projects (owner_id, name, description, category, website, logo_cid, metadata_cid, verification_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		project.Owner.String(), project.Name, project.Description, project.Category,
		project.Website, project.LogoCID.String(), project.MetadataCID.String(),
		string(project.VerificationStatus), project.CreatedAt, project.UpdatedAt).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, sentinel.ErrAlreadyExists
		}
		return 0, fmt.Errorf("insert project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return domain.ProjectID(id), nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ProjectID) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, uint64(id))
	return scanProject(row)
}

func (s *Postgres) Execute(ctx context.Context, id domain.ProjectID, validate func(*models.Project) error, mutate func(*models.Project)) (*models.Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, uint64(id))
	project, err := scanProject(row)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(project); err != nil {
			return nil, err
		}
	}
	mutate(project)

	_, err = tx.ExecContext(ctx,
		`UPDATE projects
		 SET description = $2, category = $3, website = $4, logo_cid = $5,
		     metadata_cid = $6, verification_status = $7, updated_at = $8
		 WHERE id = $1`,
		uint64(project.ID), project.Description, project.Category, project.Website,
		project.LogoCID.String(), project.MetadataCID.String(),
		string(project.VerificationStatus), project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return project, nil
}

func (s *Postgres) List(ctx context.Context, startID domain.ProjectID, limit int) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id >= $1 ORDER BY id LIMIT $2`,
		uint64(startID), limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, project)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var id uint64
	var owner, logoCID, metadataCID, status string
	err := row.Scan(&id, &owner, &p.Name, &p.Description, &p.Category, &p.Website,
		&logoCID, &metadataCID, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.ID = domain.ProjectID(id)
	p.Owner = domain.Principal(owner)
	p.LogoCID = domain.CID(logoCID)
	p.MetadataCID = domain.CID(metadataCID)
	p.VerificationStatus = domain.VerificationStatus(status)
	return &p, nil
}
