package purchaseorders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curvacraft/studio-erp/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	CreateContractor(ctx context.Context, c *Contractor) error
	UpdateContractor(ctx context.Context, c *Contractor) error
	GetContractor(ctx context.Context, id int64) (*Contractor, error)
	ListContractors(ctx context.Context, p shared.PageRequest) ([]Contractor, error)
	DeleteContractor(ctx context.Context, id int64) error
	CountOrdersForContractor(ctx context.Context, contractorID int64) (int, error)

	Create(ctx context.Context, po *PurchaseOrder) error
	Update(ctx context.Context, po *PurchaseOrder) error
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

// Service owns contractor and purchase order business rules.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func validStatus(s Status) bool {
	switch s {
	case StatusPending, StatusSent, StatusAccepted, StatusRejected, StatusCompleted:
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

func validateContractor(c *Contractor) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("contractor name is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("contractor email is required: %w", shared.ErrValidation)
	}
	return nil
}

func (s *Service) CreateContractor(ctx context.Context, c *Contractor) error {
	if err := validateContractor(c); err != nil {
		return err
	}
	if err := s.repo.CreateContractor(ctx, c); err != nil {
		return err
	}
	s.logger.Info("contractor created", "contractor_id", c.ID, "name", c.Name)
	return nil
}

func (s *Service) UpdateContractor(ctx context.Context, c *Contractor) error {
	if err := validateContractor(c); err != nil {
		return err
	}
	return s.repo.UpdateContractor(ctx, c)
}

func (s *Service) GetContractor(ctx context.Context, id int64) (*Contractor, error) {
	return s.repo.GetContractor(ctx, id)
}

func (s *Service) ListContractors(ctx context.Context, p shared.PageRequest) ([]Contractor, error) {
	return s.repo.ListContractors(ctx, p)
}

// DeleteContractor refuses to remove a contractor that still has purchase
// orders on record.
func (s *Service) DeleteContractor(ctx context.Context, id int64) error {
	n, err := s.repo.CountOrdersForContractor(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("contractor %d has %d purchase orders: %w", id, n, shared.ErrHasDependents)
	}
	if err := s.repo.DeleteContractor(ctx, id); err != nil {
		return err
	}
	s.logger.Info("contractor deleted", "contractor_id", id)
	return nil
}

// Create stores a new purchase order and assigns its document number.
func (s *Service) Create(ctx context.Context, po *PurchaseOrder) error {
	if po.ContractorID <= 0 {
		return fmt.Errorf("contractor is required: %w", shared.ErrValidation)
	}
	if po.TaxPercentage.IsNegative() {
		return fmt.Errorf("tax percentage must not be negative: %w", shared.ErrValidation)
	}
	if err := validateItems(po.Items); err != nil {
		return err
	}

	po.Status = StatusPending
	if err := s.repo.Create(ctx, po); err != nil {
		return err
	}
	s.logger.Info("purchase order created", "purchase_order_id", po.ID, "number", po.Number, "contractor_id", po.ContractorID)
	return nil
}

// Update replaces an order's tax rate and line items. The document number is
// assigned exactly once at creation and never regenerated.
func (s *Service) Update(ctx context.Context, po *PurchaseOrder) error {
	if po.TaxPercentage.IsNegative() {
		return fmt.Errorf("tax percentage must not be negative: %w", shared.ErrValidation)
	}
	if err := validateItems(po.Items); err != nil {
		return err
	}
	return s.repo.Update(ctx, po)
}

func (s *Service) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]PurchaseOrder, error) {
	if f.Status != "" && !validStatus(f.Status) {
		return nil, fmt.Errorf("status %q: %w", f.Status, shared.ErrValidation)
	}
	return s.repo.List(ctx, f, p)
}

func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if !validStatus(status) {
		return fmt.Errorf("status %q: %w", status, shared.ErrValidation)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("purchase order status changed", "purchase_order_id", id, "status", status)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("purchase order deleted", "purchase_order_id", id)
	return nil
}
