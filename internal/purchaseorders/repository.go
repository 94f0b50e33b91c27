package purchaseorders

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

// ListFilter narrows purchase order listings.
type ListFilter struct {
	ContractorID int64
	Status       Status
}

// Repository persists contractors and purchase orders in Postgres.
type Repository struct {
	pool *pgxpool.Pool
	gen  *docnum.Generator
}

func NewRepository(pool *pgxpool.Pool, gen *docnum.Generator) *Repository {
	return &Repository{pool: pool, gen: gen}
}

func (r *Repository) CreateContractor(ctx context.Context, c *Contractor) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contractors (name, contact_person, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		c.Name, c.ContactPerson, c.Email, c.Phone, c.Address,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("contractor email %q already registered: %w", c.Email, shared.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert contractor: %w", err)
	}
	return nil
}

func (r *Repository) UpdateContractor(ctx context.Context, c *Contractor) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE contractors
		SET name = $1, contact_person = $2, email = $3, phone = $4, address = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at`,
		c.Name, c.ContactPerson, c.Email, c.Phone, c.Address, c.ID,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("contractor %d: %w", c.ID, shared.ErrNotFound)
	}
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("contractor email %q already registered: %w", c.Email, shared.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("update contractor: %w", err)
	}
	return nil
}

func (r *Repository) GetContractor(ctx context.Context, id int64) (*Contractor, error) {
	var c Contractor
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, contact_person, email, phone, address, created_at, updated_at
		FROM contractors WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("contractor %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get contractor: %w", err)
	}
	return &c, nil
}

func (r *Repository) ListContractors(ctx context.Context, p shared.PageRequest) ([]Contractor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, contact_person, email, phone, address, created_at, updated_at
		FROM contractors
		ORDER BY name
		LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	defer rows.Close()

	var out []Contractor
	for rows.Next() {
		var c Contractor
		if err := rows.Scan(&c.ID, &c.Name, &c.ContactPerson, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan contractor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteContractor(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contractors WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("contractor %d has purchase orders: %w", id, shared.ErrHasDependents)
	}
	if err != nil {
		return fmt.Errorf("delete contractor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contractor %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) CountOrdersForContractor(ctx context.Context, contractorID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE contractor_id = $1`, contractorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count purchase orders: %w", err)
	}
	return n, nil
}

// Create inserts the purchase order and its items in one transaction,
// drawing the PO number from the year-scoped sequence inside that same
// transaction.
func (r *Repository) Create(ctx context.Context, po *PurchaseOrder) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		number, err := r.gen.WithQuerier(tx).Next(ctx, docnum.DocPurchaseOrder, time.Now())
		if err != nil {
			return fmt.Errorf("next purchase order number: %w", err)
		}
		po.Number = number

		err = tx.QueryRow(ctx, `
			INSERT INTO purchase_orders (contractor_id, po_number, status, tax_percentage)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			po.ContractorID, po.Number, po.Status, po.TaxPercentage,
		).Scan(&po.ID, &po.CreatedAt, &po.UpdatedAt)
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("contractor %d: %w", po.ContractorID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("insert purchase order: %w", err)
		}
		return insertItems(ctx, tx, po.ID, po.Items)
	})
}

// Update rewrites the order's editable fields and replaces its line items.
// The assigned number and status are never touched here.
func (r *Repository) Update(ctx context.Context, po *PurchaseOrder) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE purchase_orders
			SET tax_percentage = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING po_number, status, updated_at`,
			po.TaxPercentage, po.ID,
		).Scan(&po.Number, &po.Status, &po.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("purchase order %d: %w", po.ID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, po.ID); err != nil {
			return fmt.Errorf("clear purchase order items: %w", err)
		}
		return insertItems(ctx, tx, po.ID, po.Items)
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID int64, items []Item) error {
	for i := range items {
		items[i].PurchaseOrderID = orderID
		items[i].Position = i
		err := tx.QueryRow(ctx, `
			INSERT INTO purchase_order_items (purchase_order_id, description, quantity, unit, unit_price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			orderID, items[i].Description, items[i].Quantity, items[i].Unit, items[i].UnitPrice, i,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert purchase order item: %w", err)
		}
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	var po PurchaseOrder
	err := r.pool.QueryRow(ctx, `
		SELECT id, contractor_id, po_number, status, tax_percentage, created_at, updated_at
		FROM purchase_orders WHERE id = $1`, id,
	).Scan(&po.ID, &po.ContractorID, &po.Number, &po.Status, &po.TaxPercentage, &po.CreatedAt, &po.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("purchase order %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_order_id, description, quantity, unit, unit_price, position
		FROM purchase_order_items
		WHERE purchase_order_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load purchase order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.Description, &it.Quantity, &it.Unit, &it.UnitPrice, &it.Position); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		po.Items = append(po.Items, it)
	}
	return &po, rows.Err()
}

func (r *Repository) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, contractor_id, po_number, status, tax_percentage, created_at, updated_at
		FROM purchase_orders
		WHERE ($1 = 0 OR contractor_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, f.ContractorID, string(f.Status), p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(&po.ID, &po.ContractorID, &po.Number, &po.Status, &po.TaxPercentage, &po.CreatedAt, &po.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update purchase order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
