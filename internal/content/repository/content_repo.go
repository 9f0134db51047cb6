package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/domain"
)

// querier is the subset shared by the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DBTX is what the repository needs from a connection pool.
// *pgxpool.Pool satisfies it.
type DBTX interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var _ DBTX = (*pgxpool.Pool)(nil)

// ContentRepository persists projects and their key/value content.
type ContentRepository struct {
	db DBTX
}

// NewContentRepository creates a new content repository
func NewContentRepository(db DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreFailure, op, err)
}

// CreateProject inserts an empty project. Admin-only at the route layer.
func (r *ContentRepository) CreateProject(ctx context.Context, projectID, name string) (*domain.Project, error) {
	if !domain.ValidProjectID(projectID) {
		return nil, domain.ErrInvalidID
	}

	const q = `
INSERT INTO projects (project_id, name)
VALUES ($1, $2)
RETURNING project_id, name, settings, created_at, updated_at;
`
	var p domain.Project
	err := r.db.QueryRow(ctx, q, projectID, name).
		Scan(&p.ProjectID, &p.Name, &p.Settings, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExist
		}
		return nil, storeErr("create project", err)
	}
	p.Content = []domain.ContentItem{}
	return &p, nil
}

// GetProject returns the project with its ordered content.
func (r *ContentRepository) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	p, err := getProject(ctx, r.db, projectID, false)
	if err != nil {
		return nil, err
	}
	items, err := listContent(ctx, r.db, projectID)
	if err != nil {
		return nil, err
	}
	p.Content = items
	return p, nil
}

// ListProjects returns all projects without content, newest edits first.
func (r *ContentRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	const q = `
SELECT project_id, name, settings, created_at, updated_at
FROM projects
ORDER BY updated_at DESC;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.Settings, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storeErr("scan project", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list projects", err)
	}
	return out, nil
}

// GetContent returns the ordered content of a project.
func (r *ContentRepository) GetContent(ctx context.Context, projectID string) ([]domain.ContentItem, error) {
	if _, err := getProject(ctx, r.db, projectID, false); err != nil {
		return nil, err
	}
	return listContent(ctx, r.db, projectID)
}

// SaveContent merges items into the project's content and returns the
// merged result. Keys not mentioned are preserved.
func (r *ContentRepository) SaveContent(ctx context.Context, projectID string, items []domain.ContentItem) ([]domain.ContentItem, error) {
	p, err := r.Save(ctx, projectID, items, domain.Metadata{})
	if err != nil {
		return nil, err
	}
	return p.Content, nil
}

// UpdateMetadata changes name and/or settings.
func (r *ContentRepository) UpdateMetadata(ctx context.Context, projectID string, meta domain.Metadata) (*domain.Project, error) {
	return r.Save(ctx, projectID, nil, meta)
}

// Save merges content and updates metadata in a single transaction, so a
// reader never sees new content next to stale metadata.
func (r *ContentRepository) Save(ctx context.Context, projectID string, items []domain.ContentItem, meta domain.Metadata) (*domain.Project, error) {
	if err := domain.ValidateItems(items); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Row lock serialises concurrent saves of one project; the last
	// writer wins key by key.
	if _, err := getProject(ctx, tx, projectID, true); err != nil {
		return nil, err
	}

	const upsert = `
INSERT INTO content_items (project_id, key, value, position)
VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), -1) + 1 FROM content_items WHERE project_id = $1))
ON CONFLICT (project_id, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = now()
WHERE content_items.value IS DISTINCT FROM EXCLUDED.value;
`
	for _, it := range items {
		if _, err := tx.Exec(ctx, upsert, projectID, it.Key, it.Value); err != nil {
			return nil, storeErr("upsert content", err)
		}
	}

	const touch = `
UPDATE projects
SET name = COALESCE($2, name), settings = COALESCE($3, settings), updated_at = now()
WHERE project_id = $1
RETURNING project_id, name, settings, created_at, updated_at;
`
	var p domain.Project
	if err := tx.QueryRow(ctx, touch, projectID, meta.Name, meta.Settings).
		Scan(&p.ProjectID, &p.Name, &p.Settings, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, storeErr("update project", err)
	}

	merged, err := listContent(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	p.Content = merged

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit", err)
	}
	return &p, nil
}

// Touch bumps updated_at so timestamp-based staleness checks see a fresh value.
func (r *ContentRepository) Touch(ctx context.Context, projectID string) error {
	const q = `UPDATE projects SET updated_at = now() WHERE project_id = $1;`
	tag, err := r.db.Exec(ctx, q, projectID)
	if err != nil {
		return storeErr("touch", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func getProject(ctx context.Context, q querier, projectID string, forUpdate bool) (*domain.Project, error) {
	query := `
SELECT project_id, name, settings, created_at, updated_at
FROM projects
WHERE project_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var p domain.Project
	err := q.QueryRow(ctx, query, projectID).
		Scan(&p.ProjectID, &p.Name, &p.Settings, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("get project", err)
	}
	return &p, nil
}

func listContent(ctx context.Context, q querier, projectID string) ([]domain.ContentItem, error) {
	const query = `
SELECT key, value
FROM content_items
WHERE project_id = $1
ORDER BY position ASC, key ASC;
`
	rows, err := q.Query(ctx, query, projectID)
	if err != nil {
		return nil, storeErr("list content", err)
	}
	defer rows.Close()

	out := make([]domain.ContentItem, 0, 16)
	for rows.Next() {
		var it domain.ContentItem
		if err := rows.Scan(&it.Key, &it.Value); err != nil {
			return nil, storeErr("scan content", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list content", err)
	}
	return out, nil
}
