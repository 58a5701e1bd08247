package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
  id            text PRIMARY KEY,
  owner_id      text NOT NULL,
  name          text NOT NULL,
  description   text NOT NULL DEFAULT '',
  is_temporary  boolean NOT NULL DEFAULT false,
  created_at    timestamptz NOT NULL DEFAULT now(),
  updated_at    timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS projects_owner_idx ON projects (owner_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS project_files (
  id          text PRIMARY KEY,
  project_id  text NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  name        text NOT NULL,
  path        text NOT NULL,
  content     text NOT NULL DEFAULT '',
  language    text NOT NULL DEFAULT 'plaintext',
  position    integer NOT NULL DEFAULT 0,
  created_at  timestamptz NOT NULL DEFAULT now(),
  updated_at  timestamptz NOT NULL DEFAULT now(),
  UNIQUE (project_id, path)
);
`

// PostgresStore provides persistence operations for projects and their files.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables when they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) Create(ctx context.Context, p *domain.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO projects (id, owner_id, name, description, is_temporary, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, p.ID, p.OwnerID, p.Name, p.Description, p.Temporary, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		// unique violation on id → caller retries with a new id
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIDTaken
		}
		return err
	}

	for i := range p.Files {
		if err := upsertFile(ctx, tx, p.ID, i, &p.Files[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) Get(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	return loadProject(ctx, s.db, ownerID, projectID, false)
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	const q = `
SELECT p.id, p.name, p.description, p.is_temporary, p.created_at, p.updated_at,
       (SELECT count(*) FROM project_files f WHERE f.project_id = p.id)
FROM projects p
WHERE p.owner_id = $1
ORDER BY p.updated_at DESC;
`
	rows, err := s.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ProjectSummary, 0, 16)
	for rows.Next() {
		var ps domain.ProjectSummary
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Description, &ps.Temporary, &ps.CreatedAt, &ps.UpdatedAt, &ps.FileCount); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, ownerID, projectID string, mutate MutateFunc) (*domain.Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	p, err := loadProject(ctx, tx, ownerID, projectID, true)
	if err != nil {
		return nil, err
	}
	before := p.Clone()

	if err := mutate(p); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
UPDATE projects
SET name = $2, description = $3, is_temporary = $4, updated_at = $5
WHERE id = $1
`, p.ID, p.Name, p.Description, p.Temporary, p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	kept := make(map[string]bool, len(p.Files))
	for _, f := range p.Files {
		kept[f.ID] = true
	}
	for _, f := range before.Files {
		if kept[f.ID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_files WHERE id = $1 AND project_id = $2`, f.ID, p.ID); err != nil {
			return nil, err
		}
	}

	for i := range p.Files {
		if !fileChanged(before, i, &p.Files[i]) {
			continue
		}
		if err := upsertFile(ctx, tx, p.ID, i, &p.Files[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID, projectID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND owner_id = $2`, projectID, ownerID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListExpiredTemporary(ctx context.Context, cutoff time.Time) ([]ProjectRef, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, owner_id
FROM projects
WHERE is_temporary AND updated_at < $1
ORDER BY id
`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectRef
	for rows.Next() {
		var ref ProjectRef
		if err := rows.Scan(&ref.ID, &ref.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func loadProject(ctx context.Context, q queryer, ownerID, projectID string, forUpdate bool) (*domain.Project, error) {
	query := `
SELECT id, owner_id, name, description, is_temporary, created_at, updated_at
FROM projects
WHERE id = $1 AND owner_id = $2`
	if forUpdate {
		query += "\nFOR UPDATE"
	}

	var p domain.Project
	err := q.QueryRowContext(ctx, query, projectID, ownerID).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Temporary, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
SELECT id, name, path, content, language, created_at, updated_at
FROM project_files
WHERE project_id = $1
ORDER BY position, created_at
`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.Files = make([]domain.File, 0, 8)
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.ID, &f.Name, &f.Path, &f.Content, &f.Language, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		p.Files = append(p.Files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func upsertFile(ctx context.Context, tx *sql.Tx, projectID string, position int, f *domain.File) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO project_files (id, project_id, name, path, content, language, position, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    path = EXCLUDED.path,
    content = EXCLUDED.content,
    language = EXCLUDED.language,
    position = EXCLUDED.position,
    updated_at = EXCLUDED.updated_at
`, f.ID, projectID, f.Name, f.Path, f.Content, f.Language, position, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrFileExists
		}
		return err
	}
	return nil
}

// fileChanged reports whether the file at index i differs from its stored row,
// including a change of position.
func fileChanged(before *domain.Project, i int, f *domain.File) bool {
	if i >= len(before.Files) {
		return true
	}
	old := before.Files[i]
	return old.ID != f.ID ||
		old.Name != f.Name ||
		old.Path != f.Path ||
		old.Content != f.Content ||
		old.Language != f.Language ||
		!old.UpdatedAt.Equal(f.UpdatedAt)
}
