package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// ListFilter narrows daily report listings.
type ListFilter struct {
	ProjectID int64
}

// Repository persists daily reports and their logs in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the report and its logs in one transaction. The report
// number continues the project's own count; the unique constraint on
// (project_id, report_number) turns a concurrent draw into a retryable
// duplicate instead of a silent double.
func (r *Repository) Create(ctx context.Context, rep *DailyReport) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO daily_reports
				(project_id, report_number, report_date, contractor_name, subcontractor_name,
				 chronological_account, activities_for_next_day, issues_encountered)
			VALUES
				($1,
				 (SELECT COALESCE(MAX(report_number), 0) + 1 FROM daily_reports WHERE project_id = $1),
				 $2, $3, $4, $5, $6, $7)
			RETURNING id, report_number, created_at, updated_at`,
			rep.ProjectID, rep.Date, rep.ContractorName, rep.SubcontractorName,
			rep.ChronologicalAccount, rep.ActivitiesForNextDay, rep.IssuesEncountered,
		).Scan(&rep.ID, &rep.ReportNumber, &rep.CreatedAt, &rep.UpdatedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("project %d already has a report for %s: %w",
				rep.ProjectID, rep.Date.Format("2006-01-02"), shared.ErrDuplicate)
		}
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("project %d: %w", rep.ProjectID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("insert daily report: %w", err)
		}
		return insertLogs(ctx, tx, rep)
	})
}

// Update rewrites the report's narrative fields and replaces its logs. The
// report number and date are fixed at creation.
func (r *Repository) Update(ctx context.Context, rep *DailyReport) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE daily_reports
			SET contractor_name = $1, subcontractor_name = $2, chronological_account = $3,
			    activities_for_next_day = $4, issues_encountered = $5, updated_at = NOW()
			WHERE id = $6
			RETURNING project_id, report_number, report_date, updated_at`,
			rep.ContractorName, rep.SubcontractorName, rep.ChronologicalAccount,
			rep.ActivitiesForNextDay, rep.IssuesEncountered, rep.ID,
		).Scan(&rep.ProjectID, &rep.ReportNumber, &rep.Date, &rep.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("daily report %d: %w", rep.ID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update daily report: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM daily_report_logs WHERE report_id = $1`, rep.ID); err != nil {
			return fmt.Errorf("clear report logs: %w", err)
		}
		return insertLogs(ctx, tx, rep)
	})
}

func insertLogs(ctx context.Context, tx pgx.Tx, rep *DailyReport) error {
	for _, l := range rep.allLogs() {
		_, err := tx.Exec(ctx, `
			INSERT INTO daily_report_logs (report_id, category, label, day_count, night_count)
			VALUES ($1, $2, $3, $4, $5)`,
			rep.ID, l.Category, l.Label, l.DayCount, l.NightCount)
		if err != nil {
			return fmt.Errorf("insert report log: %w", err)
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*DailyReport, error) {
	var rep DailyReport
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, report_number, report_date, contractor_name, subcontractor_name,
		       chronological_account, activities_for_next_day, issues_encountered, created_at, updated_at
		FROM daily_reports WHERE id = $1`, id,
	).Scan(&rep.ID, &rep.ProjectID, &rep.ReportNumber, &rep.Date, &rep.ContractorName, &rep.SubcontractorName,
		&rep.ChronologicalAccount, &rep.ActivitiesForNextDay, &rep.IssuesEncountered, &rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("daily report %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get daily report: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, report_id, category, label, day_count, night_count
		FROM daily_report_logs
		WHERE report_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load report logs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.ReportID, &l.Category, &l.Label, &l.DayCount, &l.NightCount); err != nil {
			return nil, fmt.Errorf("scan report log: %w", err)
		}
		rep.attachLog(l)
	}
	return &rep, rows.Err()
}

func (r *Repository) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]DailyReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, report_number, report_date, contractor_name, subcontractor_name,
		       chronological_account, activities_for_next_day, issues_encountered, created_at, updated_at
		FROM daily_reports
		WHERE ($1 = 0 OR project_id = $1)
		ORDER BY report_date DESC
		LIMIT $2 OFFSET $3`, f.ProjectID, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list daily reports: %w", err)
	}
	defer rows.Close()

	var out []DailyReport
	for rows.Next() {
		var rep DailyReport
		if err := rows.Scan(&rep.ID, &rep.ProjectID, &rep.ReportNumber, &rep.Date, &rep.ContractorName, &rep.SubcontractorName,
			&rep.ChronologicalAccount, &rep.ActivitiesForNextDay, &rep.IssuesEncountered, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM daily_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete daily report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("daily report %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
