package enquiries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curvacraft/studio-erp/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on. Tests
// substitute an in-memory implementation.
type RepositoryPort interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListCustomers(ctx context.Context, p shared.PageRequest) ([]Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	CountEnquiriesForCustomer(ctx context.Context, customerID int64) (int64, error)

	CreateEnquiry(ctx context.Context, e *Enquiry) error
	UpdateEnquiry(ctx context.Context, e *Enquiry) error
	GetEnquiry(ctx context.Context, id int64) (*Enquiry, error)
	ListEnquiries(ctx context.Context, status EnquiryStatus, p shared.PageRequest) ([]EnquiryWithCustomer, error)
	UpdateEnquiryStatus(ctx context.Context, id int64, status EnquiryStatus) error
	DeleteEnquiry(ctx context.Context, id int64) error
	CountQuotationsForEnquiry(ctx context.Context, enquiryID int64) (int64, error)
}

// Service owns customer and enquiry business rules.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func validProjectType(t ProjectType) bool {
	switch t {
	case ProjectTypeDesign, ProjectTypeFitout, ProjectTypeBoth:
		return true
	}
	return false
}

func validEnquiryStatus(s EnquiryStatus) bool {
	switch s {
	case EnquiryStatusPending, EnquiryStatusQualified, EnquiryStatusRejected:
		return true
	}
	return false
}

func (s *Service) CreateCustomer(ctx context.Context, c *Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" {
		return fmt.Errorf("customer name is required: %w", shared.ErrValidation)
	}
	if c.Email == "" {
		return fmt.Errorf("customer email is required: %w", shared.ErrValidation)
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return err
	}
	s.logger.Info("customer created", "customer_id", c.ID, "email", c.Email)
	return nil
}

func (s *Service) UpdateCustomer(ctx context.Context, c *Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" || c.Email == "" {
		return fmt.Errorf("customer name and email are required: %w", shared.ErrValidation)
	}
	return s.repo.UpdateCustomer(ctx, c)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context, p shared.PageRequest) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, p)
}

// DeleteCustomer refuses to remove a customer that still has enquiries.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	n, err := s.repo.CountEnquiriesForCustomer(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("customer %d has %d enquiries: %w", id, n, shared.ErrHasDependents)
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logger.Info("customer deleted", "customer_id", id)
	return nil
}

func (s *Service) CreateEnquiry(ctx context.Context, e *Enquiry) error {
	if !validProjectType(e.ProjectType) {
		return fmt.Errorf("project type %q: %w", e.ProjectType, shared.ErrValidation)
	}
	if e.Budget.IsNegative() {
		return fmt.Errorf("budget must not be negative: %w", shared.ErrValidation)
	}
	if _, err := s.repo.GetCustomer(ctx, e.CustomerID); err != nil {
		return err
	}
	e.Status = EnquiryStatusPending
	if err := s.repo.CreateEnquiry(ctx, e); err != nil {
		return err
	}
	s.logger.Info("enquiry created", "enquiry_id", e.ID, "customer_id", e.CustomerID)
	return nil
}

func (s *Service) UpdateEnquiry(ctx context.Context, e *Enquiry) error {
	if !validProjectType(e.ProjectType) {
		return fmt.Errorf("project type %q: %w", e.ProjectType, shared.ErrValidation)
	}
	if e.Budget.IsNegative() {
		return fmt.Errorf("budget must not be negative: %w", shared.ErrValidation)
	}
	return s.repo.UpdateEnquiry(ctx, e)
}

func (s *Service) GetEnquiry(ctx context.Context, id int64) (*Enquiry, error) {
	return s.repo.GetEnquiry(ctx, id)
}

func (s *Service) ListEnquiries(ctx context.Context, status EnquiryStatus, p shared.PageRequest) ([]EnquiryWithCustomer, error) {
	if status != "" && !validEnquiryStatus(status) {
		return nil, fmt.Errorf("status %q: %w", status, shared.ErrValidation)
	}
	return s.repo.ListEnquiries(ctx, status, p)
}

// DeleteEnquiry refuses to remove an enquiry that already has quotations.
func (s *Service) DeleteEnquiry(ctx context.Context, id int64) error {
	n, err := s.repo.CountQuotationsForEnquiry(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("enquiry %d has %d quotations: %w", id, n, shared.ErrHasDependents)
	}
	return s.repo.DeleteEnquiry(ctx, id)
}

// SetStatus moves an enquiry to a new state. Used directly for manual
// qualification or rejection; quotation creation flips PENDING enquiries to
// QUALIFIED through MarkQualified.
func (s *Service) SetStatus(ctx context.Context, id int64, status EnquiryStatus) error {
	if !validEnquiryStatus(status) {
		return fmt.Errorf("status %q: %w", status, shared.ErrValidation)
	}
	if err := s.repo.UpdateEnquiryStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("enquiry status changed", "enquiry_id", id, "status", status)
	return nil
}

// MarkQualified promotes a PENDING enquiry to QUALIFIED. Enquiries already
// qualified or rejected are left untouched.
func (s *Service) MarkQualified(ctx context.Context, id int64) error {
	e, err := s.repo.GetEnquiry(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != EnquiryStatusPending {
		return nil
	}
	return s.repo.UpdateEnquiryStatus(ctx, id, EnquiryStatusQualified)
}
