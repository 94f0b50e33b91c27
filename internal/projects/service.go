package projects

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/quotations"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, p *Project) error
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, status Status, p shared.PageRequest) ([]Project, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	CountInvoicesForProject(ctx context.Context, projectID int64) (int64, error)
	ExistsForQuotation(ctx context.Context, quotationID int64) (bool, error)
	ListInvoiceFinancials(ctx context.Context, projectID int64) ([]InvoiceFinancial, error)
	SumPaymentsForProject(ctx context.Context, projectID int64) (decimal.Decimal, error)
	SumCreditsForProject(ctx context.Context, projectID int64) (decimal.Decimal, error)
}

// QuotationSource is the slice of the quotation module project creation
// needs.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotations.Quotation, error)
	MarkAccepted(ctx context.Context, id int64) error
}

// Service owns project business rules, including the ledger rollups that
// feed the accounts screens.
type Service struct {
	repo   RepositoryPort
	quotes QuotationSource
	logger *slog.Logger
}

func NewService(repo RepositoryPort, quotes QuotationSource, logger *slog.Logger) *Service {
	return &Service{repo: repo, quotes: quotes, logger: logger}
}

func validStatus(s Status) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CreateFromQuotation spawns a project from a quotation, copying its line
// items and tax rate, and marks the quotation ACCEPTED. The copied items are
// independent of the quotation's from this point on.
func (s *Service) CreateFromQuotation(ctx context.Context, quotationID int64, title string) (*Project, error) {
	q, err := s.quotes.Get(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsForQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("quotation %s already has a project: %w", q.Number, shared.ErrDuplicate)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("Project for %s", q.Number)
	}

	p := &Project{
		QuotationID:   quotationID,
		Title:         title,
		Status:        StatusNotStarted,
		TaxPercentage: q.TaxPercentage,
	}
	for _, it := range q.Items {
		p.Items = append(p.Items, Item{
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice,
		})
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.quotes.MarkAccepted(ctx, quotationID); err != nil {
		s.logger.Warn("mark quotation accepted", "quotation_id", quotationID, "error", err)
	}
	s.logger.Info("project created from quotation",
		"project_id", p.ID, "quotation_id", quotationID, "items", len(p.Items))
	return p, nil
}

// Update replaces the project's title, tax rate and items.
func (s *Service) Update(ctx context.Context, p *Project) error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("project title is required: %w", shared.ErrValidation)
	}
	if p.TaxPercentage.IsNegative() {
		return fmt.Errorf("tax percentage must not be negative: %w", shared.ErrValidation)
	}
	for i, it := range p.Items {
		if strings.TrimSpace(it.Description) == "" {
			return fmt.Errorf("item %d: description is required: %w", i+1, shared.ErrValidation)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("item %d: quantity must be greater than zero: %w", i+1, shared.ErrValidation)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price must not be negative: %w", i+1, shared.ErrValidation)
		}
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, status Status, p shared.PageRequest) ([]Project, error) {
	if status != "" && !validStatus(status) {
		return nil, fmt.Errorf("status %q: %w", status, shared.ErrValidation)
	}
	return s.repo.List(ctx, status, p)
}

func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if !validStatus(status) {
		return fmt.Errorf("status %q: %w", status, shared.ErrValidation)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("project status changed", "project_id", id, "status", status)
	return nil
}

// Delete refuses to remove a project that has invoices, void or not.
func (s *Service) Delete(ctx context.Context, id int64) error {
	n, err := s.repo.CountInvoicesForProject(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("project %d has %d invoices: %w", id, n, shared.ErrHasDependents)
	}
	return s.repo.Delete(ctx, id)
}

// Ledger assembles the project's financial position: budget from its own
// items, per-invoice figures, and cash received and credited across non-void
// invoices. Everything is derived on read; nothing is cached.
func (s *Service) Ledger(ctx context.Context, id int64) (*finance.ProjectLedger, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	financials, err := s.repo.ListInvoiceFinancials(ctx, id)
	if err != nil {
		return nil, err
	}
	received, err := s.repo.SumPaymentsForProject(ctx, id)
	if err != nil {
		return nil, err
	}
	credited, err := s.repo.SumCreditsForProject(ctx, id)
	if err != nil {
		return nil, err
	}

	ledger := &finance.ProjectLedger{
		Budget:        p.Totals(),
		TotalReceived: received,
		TotalCredited: credited,
	}
	for _, f := range financials {
		ledger.Invoices = append(ledger.Invoices, f.Figures())
	}
	return ledger, nil
}
