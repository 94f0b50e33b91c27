package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// Repository persists projects and answers the typed aggregation queries the
// ledger rollups are built on.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the project and its copied items in one transaction.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (quotation_id, title, status, tax_percentage)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			p.QuotationID, p.Title, p.Status, p.TaxPercentage,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("quotation %d already has a project: %w", p.QuotationID, shared.ErrDuplicate)
		}
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("quotation %d: %w", p.QuotationID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return insertItems(ctx, tx, p.ID, p.Items)
	})
}

// Update rewrites the project's editable fields and replaces its items.
func (r *Repository) Update(ctx context.Context, p *Project) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE projects
			SET title = $1, tax_percentage = $2, updated_at = NOW()
			WHERE id = $3
			RETURNING quotation_id, status, updated_at`,
			p.Title, p.TaxPercentage, p.ID,
		).Scan(&p.QuotationID, &p.Status, &p.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("project %d: %w", p.ID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM project_items WHERE project_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear project items: %w", err)
		}
		return insertItems(ctx, tx, p.ID, p.Items)
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, projectID int64, items []Item) error {
	for i := range items {
		items[i].ProjectID = projectID
		items[i].Position = i
		err := tx.QueryRow(ctx, `
			INSERT INTO project_items (project_id, description, quantity, unit, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			projectID, items[i].Description, items[i].Quantity, items[i].Unit, items[i].UnitPrice, i,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert project item: %w", err)
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, quotation_id, title, status, tax_percentage, created_at, updated_at
		FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.QuotationID, &p.Title, &p.Status, &p.TaxPercentage, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, description, quantity, unit, unit_price, position
		FROM project_items
		WHERE project_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load project items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.Description, &it.Quantity, &it.Unit, &it.UnitPrice, &it.Position); err != nil {
			return nil, fmt.Errorf("scan project item: %w", err)
		}
		p.Items = append(p.Items, it)
	}
	return &p, rows.Err()
}

func (r *Repository) List(ctx context.Context, status Status, p shared.PageRequest) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quotation_id, title, status, tax_percentage, created_at, updated_at
		FROM projects
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, string(status), p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var pr Project
		if err := rows.Scan(&pr.ID, &pr.QuotationID, &pr.Title, &pr.Status, &pr.TaxPercentage, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("project %d has invoices: %w", id, shared.ErrHasDependents)
	}
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) CountInvoicesForProject(ctx context.Context, projectID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE project_id = $1`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

func (r *Repository) ExistsForQuotation(ctx context.Context, quotationID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE quotation_id = $1)`, quotationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check project for quotation: %w", err)
	}
	return exists, nil
}

// ListInvoiceFinancials loads every invoice of the project with the raw
// inputs for totals derivation. VOID invoices are included here and filtered
// by the ledger, so callers can still show their historical figures.
func (r *Repository) ListInvoiceFinancials(ctx context.Context, projectID int64) ([]InvoiceFinancial, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.id, i.invoice_number, i.status = 'VOID', i.tax_percentage,
		       COALESCE(it.quantity_type, ''), COALESCE(it.quantity, 0), COALESCE(it.unit_price, 0)
		FROM invoices i
		LEFT JOIN invoice_items it ON it.invoice_id = i.id
		WHERE i.project_id = $1
		ORDER BY i.id, it.position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load invoice financials: %w", err)
	}
	defer rows.Close()

	var out []InvoiceFinancial
	index := map[int64]int{}
	for rows.Next() {
		var (
			id           int64
			number       string
			void         bool
			tax          decimal.Decimal
			quantityType string
			quantity     decimal.Decimal
			unitPrice    decimal.Decimal
		)
		if err := rows.Scan(&id, &number, &void, &tax, &quantityType, &quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("scan invoice financial: %w", err)
		}
		pos, ok := index[id]
		if !ok {
			out = append(out, InvoiceFinancial{InvoiceID: id, Number: number, Void: void, TaxPercentage: tax})
			pos = len(out) - 1
			index[id] = pos
		}
		if quantityType == "" {
			continue // invoice without items
		}
		out[pos].Items = append(out[pos].Items, finance.LineItem{
			QuantityType: finance.QuantityType(quantityType),
			Quantity:     quantity,
			UnitPrice:    unitPrice,
		})
	}
	return out, rows.Err()
}

// SumPaymentsForProject totals cash received across the project's non-void
// invoices.
func (r *Repository) SumPaymentsForProject(ctx context.Context, projectID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE i.project_id = $1 AND i.status <> 'VOID'`, projectID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments for project: %w", err)
	}
	return total, nil
}

// SumCreditsForProject totals credit notes across the project's non-void
// invoices.
func (r *Repository) SumCreditsForProject(ctx context.Context, projectID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(cn.amount), 0)
		FROM credit_notes cn
		JOIN invoices i ON i.id = cn.invoice_id
		WHERE i.project_id = $1 AND i.status <> 'VOID'`, projectID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum credits for project: %w", err)
	}
	return total, nil
}
