package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/docnum"
	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// ListFilter narrows invoice listings.
type ListFilter struct {
	ProjectID int64
	Status    Status
}

// Repository persists invoices and their line items in Postgres.
type Repository struct {
	pool *pgxpool.Pool
	gen  *docnum.Generator
}

func NewRepository(pool *pgxpool.Pool, gen *docnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

// Create inserts the invoice and its items in one transaction, drawing the
// invoice number from the year-scoped sequence inside the same transaction.
func (r *Repository) Create(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := r.gen.WithQuerier(tx).Next(ctx, docnum.DocInvoice, time.Now())
		if err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}
		inv.Number = number

		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (project_id, invoice_number, issue_date, due_date, status, tax_percentage)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			inv.ProjectID, inv.Number, inv.IssueDate, inv.DueDate, inv.Status, inv.TaxPercentage,
		).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("project %d: %w", inv.ProjectID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return insertItems(ctx, tx, inv.ID, inv.Items)
	})
}

// Update rewrites the invoice's editable fields and replaces its items. The
// number and status are never touched here.
func (r *Repository) Update(ctx context.Context, inv *Invoice) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE invoices
			SET issue_date = $1, due_date = $2, tax_percentage = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING project_id, invoice_number, status, updated_at`,
			inv.IssueDate, inv.DueDate, inv.TaxPercentage, inv.ID,
		).Scan(&inv.ProjectID, &inv.Number, &inv.Status, &inv.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("invoice %d: %w", inv.ID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return fmt.Errorf("clear invoice items: %w", err)
		}
		return insertItems(ctx, tx, inv.ID, inv.Items)
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID int64, items []Item) error {
	for i := range items {
		items[i].InvoiceID = invoiceID
		items[i].Position = i
		err := tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, description, quantity_type, quantity, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			invoiceID, items[i].Description, items[i].QuantityType, items[i].Quantity, items[i].UnitPrice, i,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, invoice_number, issue_date, due_date, status, tax_percentage, created_at, updated_at
		FROM invoices WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.ProjectID, &inv.Number, &inv.IssueDate, &inv.DueDate, &inv.Status, &inv.TaxPercentage, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity_type, quantity, unit_price, position
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.QuantityType, &it.Quantity, &it.UnitPrice, &it.Position); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		inv.Items = append(inv.Items, it)
	}
	return &inv, rows.Err()
}

func (r *Repository) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, invoice_number, issue_date, due_date, status, tax_percentage, created_at, updated_at
		FROM invoices
		WHERE ($1 = 0 OR project_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY invoice_number DESC
		LIMIT $3 OFFSET $4`, f.ProjectID, string(f.Status), p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.ProjectID, &inv.Number, &inv.IssueDate, &inv.DueDate, &inv.Status, &inv.TaxPercentage, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// SumPayments totals cash received against one invoice.
func (r *Repository) SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

// SumCredits totals credit notes issued against one invoice.
func (r *Repository) SumCredits(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_notes WHERE invoice_id = $1`, invoiceID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum credits: %w", err)
	}
	return total, nil
}

// ListOverdue returns SENT invoices whose due date has passed as of the
// given day. Used by the overdue scan job.
func (r *Repository) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, invoice_number, issue_date, due_date, status, tax_percentage, created_at, updated_at
		FROM invoices
		WHERE status = $1 AND due_date IS NOT NULL AND due_date < $2
		ORDER BY due_date`, StatusSent, asOf)
	if err != nil {
		return nil, fmt.Errorf("list overdue invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.ProjectID, &inv.Number, &inv.IssueDate, &inv.DueDate, &inv.Status, &inv.TaxPercentage, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan overdue invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
