package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curvacraft/studio-erp/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id int64) error
}

// Service owns the progress entry lifecycle: an entry is planned, then
// submitted with the work done, then reviewed and locked.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func validKind(k Kind) bool {
	return k == KindDaily || k == KindWeekly
}

func validStatus(s Status) bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusReviewed:
		return true
	}
	return false
}

// Plan creates a new entry with the planned task. Weekly entries are keyed by
// the Monday of the selected week regardless of which day was picked.
func (s *Service) Plan(ctx context.Context, e *Entry) error {
	if !validKind(e.Kind) {
		return fmt.Errorf("progress kind %q: %w", e.Kind, shared.ErrValidation)
	}
	if e.ProjectID <= 0 {
		return fmt.Errorf("project is required: %w", shared.ErrValidation)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(e.AssignedTo) == "" {
		return fmt.Errorf("assignee is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(e.PlannedTask) == "" {
		return fmt.Errorf("planned task is required: %w", shared.ErrValidation)
	}
	if e.Kind == KindWeekly {
		e.Date = WeekStart(e.Date)
	}

	e.Status = StatusPending
	e.ActualProgress = ""
	e.AdminRemarks = ""
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	s.logger.Info("progress planned", "entry_id", e.ID, "project_id", e.ProjectID, "kind", e.Kind, "assigned_to", e.AssignedTo)
	return nil
}

// Submit records the actual progress and moves PENDING to SUBMITTED.
func (s *Service) Submit(ctx context.Context, id int64, actualProgress string) (*Entry, error) {
	if strings.TrimSpace(actualProgress) == "" {
		return nil, fmt.Errorf("actual progress is required: %w", shared.ErrValidation)
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch e.Status {
	case StatusReviewed:
		return nil, fmt.Errorf("progress entry %d is reviewed and locked: %w", id, shared.ErrImmutable)
	case StatusSubmitted:
		return nil, fmt.Errorf("progress entry %d is already submitted: %w", id, shared.ErrValidation)
	}
	e.ActualProgress = actualProgress
	e.Status = StatusSubmitted
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("progress submitted", "entry_id", id)
	return e, nil
}

// Review records the reviewer's remarks and moves SUBMITTED to REVIEWED,
// after which the entry is locked.
func (s *Service) Review(ctx context.Context, id int64, remarks string) (*Entry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch e.Status {
	case StatusReviewed:
		return nil, fmt.Errorf("progress entry %d is reviewed and locked: %w", id, shared.ErrImmutable)
	case StatusPending:
		return nil, fmt.Errorf("progress entry %d has not been submitted yet: %w", id, shared.ErrValidation)
	}
	e.AdminRemarks = remarks
	e.Status = StatusReviewed
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("progress reviewed", "entry_id", id)
	return e, nil
}

// UpdatePlan rewrites the planned task of a PENDING entry.
func (s *Service) UpdatePlan(ctx context.Context, id int64, plannedTask string) (*Entry, error) {
	if strings.TrimSpace(plannedTask) == "" {
		return nil, fmt.Errorf("planned task is required: %w", shared.ErrValidation)
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusPending {
		return nil, fmt.Errorf("progress entry %d can only be re-planned while pending: %w", id, shared.ErrImmutable)
	}
	e.PlannedTask = plannedTask
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]Entry, error) {
	if f.Kind != "" && !validKind(f.Kind) {
		return nil, fmt.Errorf("progress kind %q: %w", f.Kind, shared.ErrValidation)
	}
	if f.Status != "" && !validStatus(f.Status) {
		return nil, fmt.Errorf("status %q: %w", f.Status, shared.ErrValidation)
	}
	return s.repo.List(ctx, f, p)
}

// Delete removes an entry unless it has been reviewed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == StatusReviewed {
		return fmt.Errorf("progress entry %d is reviewed and locked: %w", id, shared.ErrImmutable)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("progress entry deleted", "entry_id", id)
	return nil
}
