package quotations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curvacraft/studio-erp/internal/docnum"
	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// ListFilter narrows quotation listings.
type ListFilter struct {
	EnquiryID int64
	Status    QuoteStatus
}

// Repository persists quotations and their line items in Postgres.
type Repository struct {
	pool *pgxpool.Pool
	gen  *docnum.Generator
}

func NewRepository(pool *pgxpool.Pool, gen *docnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

// Create inserts the quotation and its items in one transaction. The
// quotation number is drawn from the year-scoped sequence inside the same
// transaction, so a failed insert never burns a visible number.
func (r *Repository) Create(ctx context.Context, q *Quotation) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := r.gen.WithQuerier(tx).Next(ctx, docnum.DocQuotation, time.Now())
		if err != nil {
			return fmt.Errorf("next quotation number: %w", err)
		}
		q.Number = number

		err = tx.QueryRow(ctx, `
			INSERT INTO quotations (enquiry_id, quote_type, quotation_number, status, tax_percentage)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at`,
			q.EnquiryID, q.QuoteType, q.Number, q.Status, q.TaxPercentage,
		).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("enquiry %d already has a %s quotation: %w", q.EnquiryID, q.QuoteType, shared.ErrDuplicate)
		}
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("enquiry %d: %w", q.EnquiryID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("insert quotation: %w", err)
		}
		return insertItems(ctx, tx, q.ID, q.Items)
	})
}

// Update rewrites the quotation's editable fields and replaces its line
// items. The assigned number and status are never touched here.
func (r *Repository) Update(ctx context.Context, q *Quotation) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE quotations
			SET tax_percentage = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING quotation_number, status, updated_at`,
			q.TaxPercentage, q.ID,
		).Scan(&q.Number, &q.Status, &q.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("quotation %d: %w", q.ID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update quotation: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM quotation_items WHERE quotation_id = $1`, q.ID); err != nil {
			return fmt.Errorf("clear quotation items: %w", err)
		}
		return insertItems(ctx, tx, q.ID, q.Items)
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, quotationID int64, items []Item) error {
	for i := range items {
		items[i].QuotationID = quotationID
		items[i].Position = i
		err := tx.QueryRow(ctx, `
			INSERT INTO quotation_items (quotation_id, description, quantity, unit, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			quotationID, items[i].Description, items[i].Quantity, items[i].Unit, items[i].UnitPrice, i,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert quotation item: %w", err)
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	var q Quotation
	err := r.pool.QueryRow(ctx, `
		SELECT id, enquiry_id, quote_type, quotation_number, status, tax_percentage, created_at, updated_at
		FROM quotations WHERE id = $1`, id,
	).Scan(&q.ID, &q.EnquiryID, &q.QuoteType, &q.Number, &q.Status, &q.TaxPercentage, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, quotation_id, description, quantity, unit, unit_price, position
		FROM quotation_items
		WHERE quotation_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load quotation items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.QuotationID, &it.Description, &it.Quantity, &it.Unit, &it.UnitPrice, &it.Position); err != nil {
			return nil, fmt.Errorf("scan quotation item: %w", err)
		}
		q.Items = append(q.Items, it)
	}
	return &q, rows.Err()
}

func (r *Repository) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Quotation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, enquiry_id, quote_type, quotation_number, status, tax_percentage, created_at, updated_at
		FROM quotations
		WHERE ($1 = 0 OR enquiry_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, f.EnquiryID, string(f.Status), p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.EnquiryID, &q.QuoteType, &q.Number, &q.Status, &q.TaxPercentage, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quotation: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quotations SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update quotation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("quotation %d has a project: %w", id, shared.ErrHasDependents)
	}
	if err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) HasProject(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE quotation_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quotation project: %w", err)
	}
	return exists, nil
}

func (r *Repository) ExistsForEnquiryType(ctx context.Context, enquiryID int64, t QuoteType) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quotations WHERE enquiry_id = $1 AND quote_type = $2)`,
		enquiryID, t,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quotation type: %w", err)
	}
	return exists, nil
}
