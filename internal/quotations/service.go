package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curvacraft/studio-erp/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, q *Quotation) error
	Update(ctx context.Context, q *Quotation) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Quotation, error)
	UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error
	Delete(ctx context.Context, id int64) error
	HasProject(ctx context.Context, id int64) (bool, error)
	ExistsForEnquiryType(ctx context.Context, enquiryID int64, t QuoteType) (bool, error)
}

// EnquiryDirectory is the slice of the enquiries service the quotation flow
// needs: existence checks and the PENDING to QUALIFIED promotion on first
// quotation.
type EnquiryDirectory interface {
	MarkQualified(ctx context.Context, id int64) error
}

// Service owns quotation business rules.
type Service struct {
	repo      RepositoryPort
	enquiries EnquiryDirectory
	logger    *slog.Logger
}

func NewService(repo RepositoryPort, enquiries EnquiryDirectory, logger *slog.Logger) *Service {
	return &Service{repo: repo, enquiries: enquiries, logger: logger}
}

func validQuoteType(t QuoteType) bool {
	return t == QuoteTypeDesign || t == QuoteTypeFitout
}

func validQuoteStatus(s QuoteStatus) bool {
	switch s {
	case QuoteStatusPending, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected:
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
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("item %d: quantity must be greater than zero: %w", i+1, shared.ErrValidation)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price must not be negative: %w", i+1, shared.ErrValidation)
		}
	}
	return nil
}

// Create stores a new quotation, assigns its document number, and promotes
// the owning enquiry to QUALIFIED if it was still PENDING.
func (s *Service) Create(ctx context.Context, q *Quotation) error {
	if !validQuoteType(q.QuoteType) {
		return fmt.Errorf("quote type %q: %w", q.QuoteType, shared.ErrValidation)
	}
	if q.TaxPercentage.IsNegative() {
		return fmt.Errorf("tax percentage must not be negative: %w", shared.ErrValidation)
	}
	if err := validateItems(q.Items); err != nil {
		return err
	}
	exists, err := s.repo.ExistsForEnquiryType(ctx, q.EnquiryID, q.QuoteType)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("enquiry %d already has a %s quotation: %w", q.EnquiryID, q.QuoteType, shared.ErrDuplicate)
	}

	q.Status = QuoteStatusPending
	if err := s.repo.Create(ctx, q); err != nil {
		return err
	}
	if err := s.enquiries.MarkQualified(ctx, q.EnquiryID); err != nil {
		s.logger.Warn("qualify enquiry after quotation", "enquiry_id", q.EnquiryID, "error", err)
	}
	s.logger.Info("quotation created", "quotation_id", q.ID, "number", q.Number, "quote_type", q.QuoteType)
	return nil
}

// Update replaces a quotation's tax rate and line items. The document number
// is assigned exactly once at creation and never regenerated.
func (s *Service) Update(ctx context.Context, q *Quotation) error {
	if q.TaxPercentage.IsNegative() {
		return fmt.Errorf("tax percentage must not be negative: %w", shared.ErrValidation)
	}
	if err := validateItems(q.Items); err != nil {
		return err
	}
	return s.repo.Update(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Quotation, error) {
	if f.Status != "" && !validQuoteStatus(f.Status) {
		return nil, fmt.Errorf("status %q: %w", f.Status, shared.ErrValidation)
	}
	return s.repo.List(ctx, f, p)
}

// SetStatus moves a quotation between PENDING, SENT and REJECTED. ACCEPTED
// is reserved for project creation, which goes through MarkAccepted.
func (s *Service) SetStatus(ctx context.Context, id int64, status QuoteStatus) error {
	if !validQuoteStatus(status) {
		return fmt.Errorf("status %q: %w", status, shared.ErrValidation)
	}
	if status == QuoteStatusAccepted {
		return fmt.Errorf("quotations are accepted by creating a project from them: %w", shared.ErrValidation)
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if q.Status == QuoteStatusAccepted {
		return fmt.Errorf("quotation %s is accepted and locked: %w", q.Number, shared.ErrImmutable)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("quotation status changed", "quotation_id", id, "status", status)
	return nil
}

// MarkAccepted flips a quotation to ACCEPTED. Called by the project module
// when a project is created from the quotation.
func (s *Service) MarkAccepted(ctx context.Context, id int64) error {
	return s.repo.UpdateStatus(ctx, id, QuoteStatusAccepted)
}

// Delete refuses to remove a quotation that a project was created from.
func (s *Service) Delete(ctx context.Context, id int64) error {
	hasProject, err := s.repo.HasProject(ctx, id)
	if err != nil {
		return err
	}
	if hasProject {
		return fmt.Errorf("quotation %d has a project: %w", id, shared.ErrHasDependents)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("quotation deleted", "quotation_id", id)
	return nil
}
