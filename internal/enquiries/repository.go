package enquiries

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curvacraft/studio-erp/internal/platform/db"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// Repository persists customers and enquiries in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateCustomer(ctx context.Context, c *Customer) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone_number, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Email, c.PhoneNumber, c.Address,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("customer email %s: %w", c.Email, shared.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCustomer(ctx context.Context, c *Customer) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone_number = $3, address = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		c.Name, c.Email, c.PhoneNumber, c.Address, c.ID,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("customer %d: %w", c.ID, shared.ErrNotFound)
	}
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("customer email %s: %w", c.Email, shared.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

func (r *Repository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone_number, address, created_at, updated_at
		FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PhoneNumber, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (r *Repository) ListCustomers(ctx context.Context, p shared.PageRequest) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone_number, address, created_at, updated_at
		FROM customers
		ORDER BY name
		LIMIT $1 OFFSET $2`, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.PhoneNumber, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteCustomer(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("customer %d has enquiries: %w", id, shared.ErrHasDependents)
	}
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) CountEnquiriesForCustomer(ctx context.Context, customerID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enquiries WHERE customer_id = $1`, customerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count enquiries: %w", err)
	}
	return n, nil
}

func (r *Repository) CreateEnquiry(ctx context.Context, e *Enquiry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO enquiries (customer_id, project_type, scope, location, budget, timeframe, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		e.CustomerID, e.ProjectType, e.Scope, e.Location, e.Budget, e.Timeframe, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("customer %d: %w", e.CustomerID, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("insert enquiry: %w", err)
	}
	return nil
}

func (r *Repository) UpdateEnquiry(ctx context.Context, e *Enquiry) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE enquiries
		SET project_type = $1, scope = $2, location = $3, budget = $4, timeframe = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at`,
		e.ProjectType, e.Scope, e.Location, e.Budget, e.Timeframe, e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("enquiry %d: %w", e.ID, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update enquiry: %w", err)
	}
	return nil
}

func (r *Repository) GetEnquiry(ctx context.Context, id int64) (*Enquiry, error) {
	var e Enquiry
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, project_type, scope, location, budget, timeframe, status, created_at, updated_at
		FROM enquiries WHERE id = $1`, id,
	).Scan(&e.ID, &e.CustomerID, &e.ProjectType, &e.Scope, &e.Location, &e.Budget, &e.Timeframe, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("enquiry %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get enquiry: %w", err)
	}
	return &e, nil
}

func (r *Repository) ListEnquiries(ctx context.Context, status EnquiryStatus, p shared.PageRequest) ([]EnquiryWithCustomer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.customer_id, e.project_type, e.scope, e.location, e.budget,
		       e.timeframe, e.status, e.created_at, e.updated_at, c.name
		FROM enquiries e
		JOIN customers c ON c.id = e.customer_id
		WHERE $1 = '' OR e.status = $1
		ORDER BY e.created_at DESC
		LIMIT $2 OFFSET $3`, string(status), p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	defer rows.Close()

	var out []EnquiryWithCustomer
	for rows.Next() {
		var e EnquiryWithCustomer
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.ProjectType, &e.Scope, &e.Location, &e.Budget,
			&e.Timeframe, &e.Status, &e.CreatedAt, &e.UpdatedAt, &e.CustomerName); err != nil {
			return nil, fmt.Errorf("scan enquiry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateEnquiryStatus(ctx context.Context, id int64, status EnquiryStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE enquiries SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update enquiry status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("enquiry %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteEnquiry(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM enquiries WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("enquiry %d has quotations: %w", id, shared.ErrHasDependents)
	}
	if err != nil {
		return fmt.Errorf("delete enquiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("enquiry %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) CountQuotationsForEnquiry(ctx context.Context, enquiryID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotations WHERE enquiry_id = $1`, enquiryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count quotations: %w", err)
	}
	return n, nil
}
