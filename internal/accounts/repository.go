package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/docnum"
	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// TxPort is the slice of the repository available inside a settlement
// transaction. The invoice row stays locked until the transaction ends, so
// validation and insert cannot interleave with a concurrent write.
type TxPort interface {
	LockInvoice(ctx context.Context, invoiceID int64) (*InvoiceSnapshot, error)
	SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error)
	SumCredits(ctx context.Context, invoiceID int64) (decimal.Decimal, error)
	InsertPayment(ctx context.Context, p *Payment) error
	InsertCreditNote(ctx context.Context, cn *CreditNote) error
	SetInvoiceStatus(ctx context.Context, invoiceID int64, status string) error
}

// Repository persists payments and credit notes in Postgres.
type Repository struct {
	pool *pgxpool.Pool
	gen  *docnum.Generator
}

func NewRepository(pool *pgxpool.Pool, gen *docnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

// InTx runs fn against a transaction-scoped port.
func (r *Repository) InTx(ctx context.Context, fn func(TxPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txPort{tx: tx, gen: r.gen})
	})
}

type txPort struct {
	tx  pgx.Tx
	gen *docnum.Generator
}

func (p *txPort) LockInvoice(ctx context.Context, invoiceID int64) (*InvoiceSnapshot, error) {
	var snap InvoiceSnapshot
	err := p.tx.QueryRow(ctx, `
		SELECT id, invoice_number, status, tax_percentage
		FROM invoices WHERE id = $1
		FOR UPDATE`, invoiceID,
	).Scan(&snap.ID, &snap.Number, &snap.Status, &snap.TaxPercentage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock invoice: %w", err)
	}

	rows, err := p.tx.Query(ctx, `
		SELECT quantity_type, quantity, unit_price
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it finance.LineItem
		var qt string
		if err := rows.Scan(&qt, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		it.QuantityType = finance.QuantityType(qt)
		snap.Items = append(snap.Items, it)
	}
	return &snap, rows.Err()
}

func (p *txPort) SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := p.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

func (p *txPort) SumCredits(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := p.tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_notes WHERE invoice_id = $1`, invoiceID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum credits: %w", err)
	}
	return total, nil
}

func (p *txPort) InsertPayment(ctx context.Context, pay *Payment) error {
	err := p.tx.QueryRow(ctx, `
		INSERT INTO payments (invoice_id, amount, date_paid, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		pay.InvoiceID, pay.Amount, pay.DatePaid, pay.Method, pay.Notes,
	).Scan(&pay.ID, &pay.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (p *txPort) InsertCreditNote(ctx context.Context, cn *CreditNote) error {
	number, err := p.gen.WithQuerier(p.tx).Next(ctx, docnum.DocCreditNote, time.Now())
	if err != nil {
		return fmt.Errorf("next credit note number: %w", err)
	}
	cn.Number = number

	err = p.tx.QueryRow(ctx, `
		INSERT INTO credit_notes (invoice_id, credit_note_number, date_issued, amount, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		cn.InvoiceID, cn.Number, cn.DateIssued, cn.Amount, cn.Reason,
	).Scan(&cn.ID, &cn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert credit note: %w", err)
	}
	return nil
}

func (p *txPort) SetInvoiceStatus(ctx context.Context, invoiceID int64, status string) error {
	if _, err := p.tx.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`, status, invoiceID,
	); err != nil {
		return fmt.Errorf("set invoice status: %w", err)
	}
	return nil
}

func (r *Repository) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, amount, date_paid, payment_method, notes, created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY date_paid DESC, id DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.DatePaid, &p.Method, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) ListCreditNotes(ctx context.Context, invoiceID int64) ([]CreditNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, credit_note_number, date_issued, amount, reason, created_at
		FROM credit_notes
		WHERE invoice_id = $1
		ORDER BY date_issued DESC, id DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list credit notes: %w", err)
	}
	defer rows.Close()

	var out []CreditNote
	for rows.Next() {
		var cn CreditNote
		if err := rows.Scan(&cn.ID, &cn.InvoiceID, &cn.Number, &cn.DateIssued, &cn.Amount, &cn.Reason, &cn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit note: %w", err)
		}
		out = append(out, cn)
	}
	return out, rows.Err()
}

func (r *Repository) DeletePayment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// ListProjectSummaries loads the per-project dashboard rows: each project's
// item subtotal against invoiced, received and credited sums over its
// non-void invoices. Derived fields are left zero for the service to fill.
func (r *Repository) ListProjectSummaries(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.title,
		       COALESCE(pv.sub, 0),
		       COALESCE(inv.sub, 0),
		       COALESCE(inv.grand, 0),
		       COALESCE(rec.total, 0),
		       COALESCE(cr.total, 0)
		FROM projects p
		LEFT JOIN (
			SELECT project_id, SUM(quantity * unit_price) AS sub
			FROM project_items
			GROUP BY project_id
		) pv ON pv.project_id = p.id
		LEFT JOIN (
			SELECT project_id,
			       SUM(sub) AS sub,
			       SUM(CASE WHEN tax_percentage > 0 THEN sub * (1 + tax_percentage / 100) ELSE sub END) AS grand
			FROM (
				SELECT i.project_id, i.tax_percentage,
				       COALESCE(SUM(CASE WHEN it.quantity_type = 'PERCENTAGE'
				                         THEN it.quantity / 100 * it.unit_price
				                         ELSE it.quantity * it.unit_price END), 0) AS sub
				FROM invoices i
				LEFT JOIN invoice_items it ON it.invoice_id = i.id
				WHERE i.status <> 'VOID'
				GROUP BY i.id, i.project_id, i.tax_percentage
			) per_invoice
			GROUP BY project_id
		) inv ON inv.project_id = p.id
		LEFT JOIN (
			SELECT i.project_id, SUM(pm.amount) AS total
			FROM payments pm
			JOIN invoices i ON i.id = pm.invoice_id
			WHERE i.status <> 'VOID'
			GROUP BY i.project_id
		) rec ON rec.project_id = p.id
		LEFT JOIN (
			SELECT i.project_id, SUM(cn.amount) AS total
			FROM credit_notes cn
			JOIN invoices i ON i.id = cn.invoice_id
			WHERE i.status <> 'VOID'
			GROUP BY i.project_id
		) cr ON cr.project_id = p.id
		ORDER BY p.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list project summaries: %w", err)
	}
	defer rows.Close()

	var summaries []ProjectSummary
	for rows.Next() {
		var s ProjectSummary
		if err := rows.Scan(&s.ProjectID, &s.Title, &s.ProjectValue,
			&s.InvoicedSubtotal, &s.InvoicedGrand, &s.Received, &s.Credited); err != nil {
			return nil, fmt.Errorf("scan project summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SumProjectValue totals every project's subtotal (project items, no tax).
func (r *Repository) SumProjectValue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity * unit_price), 0) FROM project_items`,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum project value: %w", err)
	}
	return total, nil
}

// SumInvoicedTotals totals subtotal and grand total across all non-void
// invoices. Tax is applied per invoice before summing, matching the
// per-document derivation.
func (r *Repository) SumInvoicedTotals(ctx context.Context) (subtotal, grand decimal.Decimal, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(sub), 0),
		       COALESCE(SUM(CASE WHEN tax_percentage > 0 THEN sub * (1 + tax_percentage / 100) ELSE sub END), 0)
		FROM (
			SELECT i.tax_percentage,
			       COALESCE(SUM(CASE WHEN it.quantity_type = 'PERCENTAGE'
			                         THEN it.quantity / 100 * it.unit_price
			                         ELSE it.quantity * it.unit_price END), 0) AS sub
			FROM invoices i
			LEFT JOIN invoice_items it ON it.invoice_id = i.id
			WHERE i.status <> 'VOID'
			GROUP BY i.id, i.tax_percentage
		) invoiced`,
	).Scan(&subtotal, &grand)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sum invoiced totals: %w", err)
	}
	return subtotal, grand, nil
}

// SumReceived totals payments across non-void invoices.
func (r *Repository) SumReceived(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		WHERE i.status <> 'VOID'`,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum received: %w", err)
	}
	return total, nil
}

// SumCredited totals credit notes across non-void invoices.
func (r *Repository) SumCredited(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(cn.amount), 0)
		FROM credit_notes cn
		JOIN invoices i ON i.id = cn.invoice_id
		WHERE i.status <> 'VOID'`,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum credited: %w", err)
	}
	return total, nil
}
