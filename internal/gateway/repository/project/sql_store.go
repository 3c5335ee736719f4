package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sitegen/internal/types"
)

// Dialect names the SQL flavour behind a SQLStore.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore keeps projects in Postgres (pgx) or SQLite (modernc). Queries are
// written with $N placeholders and rebound for SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time

	schemaOnce sync.Once
	schemaErr  error
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(dsn string) (*SQLStore, error) {
	return open("pgx", strings.TrimSpace(dsn), DialectPostgres)
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*SQLStore, error) {
	dsn := strings.TrimSpace(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	s, err := open("sqlite", dsn, DialectSQLite)
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func open(driver, dsn string, d Dialect) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return NewSQLStore(db, d), nil
}

func NewSQLStore(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d, now: time.Now}
}

func (s *SQLStore) Close() error { return s.db.Close() }

var placeholder = regexp.MustCompile(`\$\d+`)

func (s *SQLStore) q(query string) string {
	if s.dialect == DialectSQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(context.WithoutCancel(ctx), `
CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  slug TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects (user_id);

CREATE TABLE IF NOT EXISTS project_pages (
  project_id TEXT NOT NULL REFERENCES projects (id),
  path TEXT NOT NULL,
  name TEXT NOT NULL,
  code TEXT NOT NULL,
  seo_title TEXT NOT NULL DEFAULT '',
  seo_description TEXT NOT NULL DEFAULT '',
  position INTEGER NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (project_id, path)
);

CREATE TABLE IF NOT EXISTS project_versions (
  project_id TEXT NOT NULL REFERENCES projects (id),
  number INTEGER NOT NULL,
  run_id TEXT NOT NULL DEFAULT '',
  snapshot TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  PRIMARY KEY (project_id, number)
);
`)
	})
	return s.schemaErr
}

const projectColumns = `id, name, description, slug, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var created, updated int64
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Slug, &p.UserID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return p, nil
}

func (s *SQLStore) Create(ctx context.Context, p Project) (Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Project{}, err
	}
	p, err := prepareCreate(p, s.now())
	if err != nil {
		return Project{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
	p.UpdatedAt = p.UpdatedAt.UTC().Truncate(time.Millisecond)

	if _, err := s.GetBySlug(ctx, p.Slug); err == nil {
		return Project{}, ErrSlugTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Project{}, err
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO projects (`+projectColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`),
		p.ID, p.Name, p.Description, p.Slug, p.UserID, p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli())
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Project{}, err
	}
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+projectColumns+` FROM projects WHERE id = $1`), strings.TrimSpace(id))
	return scanProject(row)
}

func (s *SQLStore) GetBySlug(ctx context.Context, slug string) (Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Project{}, err
	}
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+projectColumns+` FROM projects WHERE slug = $1`), slug)
	return scanProject(row)
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY updated_at DESC, id`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 8)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) SavePages(ctx context.Context, projectID, runID string, pages []types.GeneratedPage) (Version, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Version{}, err
	}
	snapshot, err := json.Marshal(pages)
	if err != nil {
		return Version{}, fmt.Errorf("encode snapshot: %w", err)
	}
	now := s.now().UTC().Truncate(time.Millisecond)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, s.q(`UPDATE projects SET updated_at = $1 WHERE id = $2`), now.UnixMilli(), projectID)
	if err != nil {
		return Version{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Version{}, ErrNotFound
	}

	var number int
	if err := tx.QueryRowContext(ctx, s.q(`SELECT COALESCE(MAX(number), 0) + 1 FROM project_versions WHERE project_id = $1`), projectID).Scan(&number); err != nil {
		return Version{}, err
	}
	if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO project_versions (project_id, number, run_id, snapshot, created_at) VALUES ($1,$2,$3,$4,$5)`),
		projectID, number, runID, string(snapshot), now.UnixMilli()); err != nil {
		return Version{}, fmt.Errorf("insert version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM project_pages WHERE project_id = $1`), projectID); err != nil {
		return Version{}, err
	}
	for i, p := range pages {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO project_pages (project_id, path, name, code, seo_title, seo_description, position, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`),
			projectID, p.Path, p.Name, p.Code, p.SEOTitle, p.SEODescription, i, now.UnixMilli()); err != nil {
			return Version{}, fmt.Errorf("insert page %s: %w", p.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Version{}, err
	}
	return Version{
		ProjectID: projectID,
		Number:    number,
		RunID:     runID,
		Pages:     append([]types.GeneratedPage(nil), pages...),
		CreatedAt: now,
	}, nil
}

func (s *SQLStore) Pages(ctx context.Context, projectID string) ([]Page, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT name, path, code, seo_title, seo_description, updated_at FROM project_pages WHERE project_id = $1 ORDER BY position`), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Page{}
	for rows.Next() {
		p := Page{ProjectID: projectID}
		var updated int64
		if err := rows.Scan(&p.Name, &p.Path, &p.Code, &p.SEOTitle, &p.SEODescription, &updated); err != nil {
			return nil, err
		}
		p.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) Versions(ctx context.Context, projectID string) ([]Version, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT number, run_id, snapshot, created_at FROM project_versions WHERE project_id = $1 ORDER BY number DESC`), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Version{}
	for rows.Next() {
		v := Version{ProjectID: projectID}
		var snapshot string
		var created int64
		if err := rows.Scan(&v.Number, &v.RunID, &snapshot, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(snapshot), &v.Pages); err != nil {
			return nil, fmt.Errorf("decode version %d: %w", v.Number, err)
		}
		v.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}
