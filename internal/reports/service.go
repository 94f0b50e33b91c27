package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curvacraft/studio-erp/internal/shared"
)

// RepositoryPort is the persistence contract the service depends on.
type RepositoryPort interface {
	Create(ctx context.Context, rep *DailyReport) error
	Update(ctx context.Context, rep *DailyReport) error
	Get(ctx context.Context, id int64) (*DailyReport, error)
	List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]DailyReport, error)
	Delete(ctx context.Context, id int64) error
}

// Service owns daily report rules.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func validateLogs(rep *DailyReport) error {
	for _, l := range rep.allLogs() {
		if strings.TrimSpace(l.Label) == "" {
			return fmt.Errorf("log label is required: %w", shared.ErrValidation)
		}
		if l.DayCount < 0 || l.NightCount < 0 {
			return fmt.Errorf("log counts must not be negative: %w", shared.ErrValidation)
		}
	}
	return nil
}

// Create stores a new report and assigns the next report number for its
// project. The date defaults to today.
func (s *Service) Create(ctx context.Context, rep *DailyReport) error {
	if rep.ProjectID <= 0 {
		return fmt.Errorf("project is required: %w", shared.ErrValidation)
	}
	if rep.Date.IsZero() {
		rep.Date = time.Now()
	}
	if err := validateLogs(rep); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return err
	}
	s.logger.Info("daily report created", "report_id", rep.ID, "project_id", rep.ProjectID, "report_number", rep.ReportNumber)
	return nil
}

// Update replaces a report's narrative and logs. Number and date stay fixed.
func (s *Service) Update(ctx context.Context, rep *DailyReport) error {
	if err := validateLogs(rep); err != nil {
		return err
	}
	return s.repo.Update(ctx, rep)
}

func (s *Service) Get(ctx context.Context, id int64) (*DailyReport, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, p shared.PageRequest) ([]DailyReport, error) {
	return s.repo.List(ctx, f, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("daily report deleted", "report_id", id)
	return nil
}
