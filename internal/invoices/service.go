package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Invoice, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error)
	SumCredits(ctx context.Context, invoiceID int64) (decimal.Decimal, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error)
}

// AuditRecorder receives a record of every status change and void.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns invoice business rules: item validation, the DRAFT, SENT,
// PAID, VOID state machine, and derived settlement figures.
type Service struct {
	repo   RepositoryPort
	audit  AuditRecorder
	logger *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SetAudit installs the audit trail sink for status changes and voids.
func (s *Service) SetAudit(rec AuditRecorder) {
	s.audit = rec
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "invoice",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record", "action", action, "error", err)
	}
}

func validStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusVoid:
		return true
	}
	return false
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("at least one line item is required: %w", shared.ErrValidation)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return fmt.Errorf("item %d: description is required: %w", i+1, shared.ErrValidation)
		}
		switch it.QuantityType {
		case finance.QuantityFixed:
			if !it.Quantity.IsPositive() {
				return fmt.Errorf("item %d: quantity must be greater than zero: %w", i+1, shared.ErrValidation)
			}
		case finance.QuantityPercentage:
			if !it.Quantity.IsPositive() || it.Quantity.GreaterThan(hundred) {
				return fmt.Errorf("item %d: percentage must be between 0 and 100: %w", i+1, shared.ErrValidation)
			}
		default:
			return fmt.Errorf("item %d: quantity type %q: %w", i+1, it.QuantityType, shared.ErrValidation)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price must not be negative: %w", i+1, shared.ErrValidation)
		}
	}
	return nil
}

// Create stores a new invoice in DRAFT and assigns its document number.
func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	if inv.TaxPercentage.IsNegative() {
		return fmt.Errorf("tax percentage must not be negative: %w", shared.ErrValidation)
	}
	if err := validateItems(inv.Items); err != nil {
		return err
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = time.Now()
	}
	inv.Status = StatusDraft
	if err := s.repo.Create(ctx, inv); err != nil {
		return err
	}
	s.logger.Info("invoice created", "invoice_id", inv.ID, "number", inv.Number, "project_id", inv.ProjectID)
	return nil
}

// Update replaces the invoice's dates, tax rate and items. A VOID invoice
// rejects every edit.
func (s *Service) Update(ctx context.Context, inv *Invoice) error {
	current, err := s.repo.Get(ctx, inv.ID)
	if err != nil {
		return err
	}
	if current.Status == StatusVoid {
		return fmt.Errorf("invoice %s is void: %w", current.Number, shared.ErrImmutable)
	}
	if inv.TaxPercentage.IsNegative() {
		return fmt.Errorf("tax percentage must not be negative: %w", shared.ErrValidation)
	}
	if err := validateItems(inv.Items); err != nil {
		return err
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = current.IssueDate
	}
	return s.repo.Update(ctx, inv)
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// Detail loads an invoice with its settlement position.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.SumPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	credited, err := s.repo.SumCredits(ctx, id)
	if err != nil {
		return nil, err
	}
	totals := inv.Totals()
	settlement := finance.Settlement{GrandTotal: totals.GrandTotal, TotalPaid: paid, TotalCredited: credited}
	return &Detail{
		Invoice:       inv,
		Subtotal:      totals.Subtotal,
		TaxAmount:     totals.TaxAmount,
		GrandTotal:    totals.GrandTotal,
		TotalPaid:     paid,
		TotalCredited: credited,
		AmountDue:     settlement.AmountDue(),
	}, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Invoice, error) {
	if f.Status != "" && !validStatus(f.Status) {
		return nil, fmt.Errorf("status %q: %w", f.Status, shared.ErrValidation)
	}
	return s.repo.List(ctx, f, p)
}

// SetStatus is the manual status form: any transition between non-VOID
// states is allowed, but a VOID invoice rejects every change and voiding
// must go through Void with its confirmation step.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if !validStatus(status) {
		return fmt.Errorf("status %q: %w", status, shared.ErrValidation)
	}
	if status == StatusVoid {
		return fmt.Errorf("voiding requires the void confirmation step: %w", shared.ErrValidation)
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == StatusVoid {
		return fmt.Errorf("invoice %s is void: %w", inv.Number, shared.ErrImmutable)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.recordAudit(ctx, "invoice.status", id, map[string]any{"from": inv.Status, "to": status})
	s.logger.Info("invoice status changed", "invoice_id", id, "status", status)
	return nil
}

// Void flips an invoice to VOID. One-way: the invoice and its line items
// stay visible but drop out of every aggregate. The confirm flag mirrors the
// confirmation step required of callers.
func (s *Service) Void(ctx context.Context, id int64, confirm bool) error {
	if !confirm {
		return fmt.Errorf("voiding must be confirmed: %w", shared.ErrValidation)
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == StatusVoid {
		return fmt.Errorf("invoice %s is already void: %w", inv.Number, shared.ErrImmutable)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusVoid); err != nil {
		return err
	}
	s.recordAudit(ctx, "invoice.void", id, map[string]any{"number": inv.Number, "from": inv.Status})
	s.logger.Info("invoice voided", "invoice_id", id, "number", inv.Number)
	return nil
}

// ListOverdue returns SENT invoices past their due date.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	return s.repo.ListOverdue(ctx, asOf)
}
