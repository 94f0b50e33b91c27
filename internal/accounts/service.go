package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/shared"
)

const (
	dashboardCacheKey = "accounts:dashboard"
	dashboardCacheTTL = time.Minute

	invoiceStatusVoid = "VOID"
	invoiceStatusPaid = "PAID"
)

var hundred = decimal.NewFromInt(100)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	InTx(ctx context.Context, fn func(TxPort) error) error
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	ListCreditNotes(ctx context.Context, invoiceID int64) ([]CreditNote, error)
	DeletePayment(ctx context.Context, id int64) error
	ListProjectSummaries(ctx context.Context) ([]ProjectSummary, error)
	SumProjectValue(ctx context.Context) (decimal.Decimal, error)
	SumInvoicedTotals(ctx context.Context) (subtotal, grand decimal.Decimal, err error)
	SumReceived(ctx context.Context) (decimal.Decimal, error)
	SumCredited(ctx context.Context) (decimal.Decimal, error)
}

// AuditRecorder receives a record of every settlement write.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns payment and credit-note rules. Every settlement write
// revalidates against the invoice inside a transaction, so the amount-due
// check cannot go stale between form render and submit.
type Service struct {
	repo   RepositoryPort
	cache  Cache
	audit  AuditRecorder
	logger *slog.Logger
}

func NewService(repo RepositoryPort, cache Cache, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// SetAudit installs the audit trail sink for settlement writes.
func (s *Service) SetAudit(rec AuditRecorder) {
	s.audit = rec
}

func (s *Service) recordAudit(ctx context.Context, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record", "action", action, "error", err)
	}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero: %w", shared.ErrValidation)
	}
	if !finance.WithinTwoDecimals(amount) {
		return fmt.Errorf("amount must have at most two decimal places: %w", shared.ErrValidation)
	}
	return nil
}

// RecordPayment stores a payment after checking, under lock, that it does
// not exceed the invoice's current amount due. Settling the invoice flips it
// to PAID in the same transaction.
func (s *Service) RecordPayment(ctx context.Context, p *Payment) error {
	if err := validateAmount(p.Amount); err != nil {
		return err
	}
	if p.DatePaid.IsZero() {
		p.DatePaid = time.Now()
	}

	err := s.repo.InTx(ctx, func(tx TxPort) error {
		snap, err := tx.LockInvoice(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if snap.Status == invoiceStatusVoid {
			return fmt.Errorf("invoice %s is void: %w", snap.Number, shared.ErrImmutable)
		}
		paid, err := tx.SumPayments(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		credited, err := tx.SumCredits(ctx, p.InvoiceID)
		if err != nil {
			return err
		}

		settlement := finance.Settlement{GrandTotal: snap.GrandTotal(), TotalPaid: paid, TotalCredited: credited}
		due := settlement.AmountDue()
		if p.Amount.GreaterThan(due) {
			return fmt.Errorf("payment of %s exceeds the amount due (%s): %w",
				p.Amount.StringFixed(2), due.StringFixed(2), shared.ErrValidation)
		}
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}
		if due.Sub(p.Amount).Sign() <= 0 {
			return tx.SetInvoiceStatus(ctx, p.InvoiceID, invoiceStatusPaid)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "payment.recorded", "payment", p.ID, map[string]any{
		"invoice_id": p.InvoiceID,
		"amount":     p.Amount.StringFixed(2),
	})
	s.logger.Info("payment recorded", "payment_id", p.ID, "invoice_id", p.InvoiceID, "amount", p.Amount.StringFixed(2))
	return nil
}

// IssueCreditNote stores a credit note after checking, under lock, that
// total credit does not exceed the invoice's grand total. The rejection
// reports the maximum additional credit still allowed.
func (s *Service) IssueCreditNote(ctx context.Context, cn *CreditNote) error {
	if err := validateAmount(cn.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(cn.Reason) == "" {
		return fmt.Errorf("a reason is required: %w", shared.ErrValidation)
	}
	if cn.DateIssued.IsZero() {
		cn.DateIssued = time.Now()
	}

	err := s.repo.InTx(ctx, func(tx TxPort) error {
		snap, err := tx.LockInvoice(ctx, cn.InvoiceID)
		if err != nil {
			return err
		}
		if snap.Status == invoiceStatusVoid {
			return fmt.Errorf("invoice %s is void: %w", snap.Number, shared.ErrImmutable)
		}
		paid, err := tx.SumPayments(ctx, cn.InvoiceID)
		if err != nil {
			return err
		}
		credited, err := tx.SumCredits(ctx, cn.InvoiceID)
		if err != nil {
			return err
		}

		grand := snap.GrandTotal()
		potential := credited.Add(cn.Amount)
		if potential.GreaterThan(grand) {
			maxCredit := finance.MaxAdditionalCredit(grand, credited)
			return fmt.Errorf("total credit cannot exceed the invoice total; maximum additional credit allowed is %s: %w",
				maxCredit.StringFixed(2), shared.ErrValidation)
		}
		if err := tx.InsertCreditNote(ctx, cn); err != nil {
			return err
		}

		settlement := finance.Settlement{GrandTotal: grand, TotalPaid: paid, TotalCredited: potential}
		if settlement.Settled() {
			return tx.SetInvoiceStatus(ctx, cn.InvoiceID, invoiceStatusPaid)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "credit_note.issued", "credit_note", cn.ID, map[string]any{
		"invoice_id": cn.InvoiceID,
		"number":     cn.Number,
		"amount":     cn.Amount.StringFixed(2),
		"reason":     cn.Reason,
	})
	s.logger.Info("credit note issued", "credit_note_id", cn.ID, "number", cn.Number, "invoice_id", cn.InvoiceID)
	return nil
}

func (s *Service) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	return s.repo.ListPayments(ctx, invoiceID)
}

func (s *Service) ListCreditNotes(ctx context.Context, invoiceID int64) ([]CreditNote, error) {
	return s.repo.ListCreditNotes(ctx, invoiceID)
}

// DeletePayment removes a recorded payment. The invoice status is left
// untouched; a PAID invoice whose payment was removed in error is corrected
// through the manual status form.
func (s *Service) DeletePayment(ctx context.Context, id int64) error {
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "payment.deleted", "payment", id, nil)
	s.logger.Info("payment deleted", "payment_id", id)
	return nil
}

// Dashboard assembles the studio-wide financial overview. The aggregates
// are fetched concurrently and the result is cached briefly, as this is the
// most expensive read in the system.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if raw, ok, err := s.cache.Get(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache read", "error", err)
	} else if ok {
		var d Dashboard
		if err := json.Unmarshal(raw, &d); err == nil {
			return &d, nil
		}
	}

	var (
		projectValue     decimal.Decimal
		invoicedSubtotal decimal.Decimal
		invoicedGrand    decimal.Decimal
		received         decimal.Decimal
		credited         decimal.Decimal
		summaries        []ProjectSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projectValue, err = s.repo.SumProjectValue(gctx)
		return err
	})
	g.Go(func() (err error) {
		summaries, err = s.repo.ListProjectSummaries(gctx)
		return err
	})
	g.Go(func() (err error) {
		invoicedSubtotal, invoicedGrand, err = s.repo.SumInvoicedTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		received, err = s.repo.SumReceived(gctx)
		return err
	})
	g.Go(func() (err error) {
		credited, err = s.repo.SumCredited(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range summaries {
		row := &summaries[i]
		row.Receivable = row.InvoicedGrand.Sub(row.Received).Sub(row.Credited)
		if row.ProjectValue.IsPositive() {
			row.InvoicingPercentage = row.InvoicedSubtotal.Div(row.ProjectValue).Mul(hundred)
		}
		if row.InvoicedGrand.IsPositive() {
			row.PaymentPercentage = row.Received.Div(row.InvoicedGrand).Mul(hundred)
		}
	}

	d := &Dashboard{
		Projects:              summaries,
		TotalProjectValue:     projectValue,
		TotalInvoicedSubtotal: invoicedSubtotal,
		TotalInvoicedGrand:    invoicedGrand,
		TotalReceived:         received,
		TotalCredited:         credited,
		AccountsReceivable:    invoicedGrand.Sub(received).Sub(credited),
	}
	if projectValue.IsPositive() {
		d.InvoicingPercentage = invoicedSubtotal.Div(projectValue).Mul(hundred)
	}
	if invoicedGrand.IsPositive() {
		d.PaymentPercentage = received.Div(invoicedGrand).Mul(hundred)
	}

	if raw, err := json.Marshal(d); err == nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL); err != nil {
			s.logger.Warn("dashboard cache write", "error", err)
		}
	}
	return d, nil
}
