package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// ListFilter narrows progress listings.
type ListFilter struct {
	ProjectID  int64
	Kind       Kind
	Status     Status
	AssignedTo string
}

// Repository persists progress entries in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, e *Entry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO progress_entries (project_id, kind, entry_date, assigned_to, planned_task, actual_progress, admin_remarks, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		e.ProjectID, e.Kind, e.Date, e.AssignedTo, e.PlannedTask, e.ActualProgress, e.AdminRemarks, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%s progress for project %d on %s already assigned to %s: %w",
			e.Kind, e.ProjectID, e.Date.Format("2006-01-02"), e.AssignedTo, shared.ErrDuplicate)
	}
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("project %d: %w", e.ProjectID, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert progress entry: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, kind, entry_date, assigned_to, planned_task, actual_progress, admin_remarks, status, created_at, updated_at
		FROM progress_entries WHERE id = $1`, id,
	).Scan(&e.ID, &e.ProjectID, &e.Kind, &e.Date, &e.AssignedTo, &e.PlannedTask, &e.ActualProgress, &e.AdminRemarks, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("progress entry %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress entry: %w", err)
	}
	return &e, nil
}

func (r *Repository) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, kind, entry_date, assigned_to, planned_task, actual_progress, admin_remarks, status, created_at, updated_at
		FROM progress_entries
		WHERE ($1 = 0 OR project_id = $1)
		  AND ($2 = '' OR kind = $2)
		  AND ($3 = '' OR status = $3)
		  AND ($4 = '' OR assigned_to = $4)
		ORDER BY entry_date DESC, id DESC
		LIMIT $5 OFFSET $6`,
		f.ProjectID, string(f.Kind), string(f.Status), f.AssignedTo, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list progress entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Kind, &e.Date, &e.AssignedTo, &e.PlannedTask, &e.ActualProgress, &e.AdminRemarks, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan progress entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, e *Entry) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE progress_entries
		SET planned_task = $1, actual_progress = $2, admin_remarks = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		e.PlannedTask, e.ActualProgress, e.AdminRemarks, e.Status, e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("progress entry %d: %w", e.ID, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update progress entry: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM progress_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete progress entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("progress entry %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
