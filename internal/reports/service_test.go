package reports

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curvacraft/studio-erp/internal/shared"
)

type fakeRepo struct {
	reports map[int64]*DailyReport
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reports: map[int64]*DailyReport{}}
}

func (f *fakeRepo) Create(_ context.Context, rep *DailyReport) error {
	maxNum := 0
	for _, other := range f.reports {
		if other.ProjectID != rep.ProjectID {
			continue
		}
		if sameDay(other.Date, rep.Date) {
			return fmt.Errorf("project %d already has a report for %s: %w",
				rep.ProjectID, rep.Date.Format("2006-01-02"), shared.ErrDuplicate)
		}
		if other.ReportNumber > maxNum {
			maxNum = other.ReportNumber
		}
	}
	f.nextID++
	rep.ID = f.nextID
	rep.ReportNumber = maxNum + 1
	cp := *rep
	f.reports[rep.ID] = &cp
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (f *fakeRepo) Update(_ context.Context, rep *DailyReport) error {
	existing, ok := f.reports[rep.ID]
	if !ok {
		return fmt.Errorf("daily report %d: %w", rep.ID, shared.ErrNotFound)
	}
	rep.ProjectID = existing.ProjectID
	rep.ReportNumber = existing.ReportNumber
	rep.Date = existing.Date
	cp := *rep
	f.reports[rep.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*DailyReport, error) {
	rep, ok := f.reports[id]
	if !ok {
		return nil, fmt.Errorf("daily report %d: %w", id, shared.ErrNotFound)
	}
	cp := *rep
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter, _ shared.PageRequest) ([]DailyReport, error) {
	var out []DailyReport
	for _, rep := range f.reports {
		if filter.ProjectID != 0 && rep.ProjectID != filter.ProjectID {
			continue
		}
		out = append(out, *rep)
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.reports[id]; !ok {
		return fmt.Errorf("daily report %d: %w", id, shared.ErrNotFound)
	}
	delete(f.reports, id)
	return nil
}

func testService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestReportNumbersCountPerProject(t *testing.T) {
	svc, _ := testService(t)

	first := &DailyReport{ProjectID: 1, Date: day(t, "2025-04-01")}
	require.NoError(t, svc.Create(context.Background(), first))
	require.Equal(t, 1, first.ReportNumber)

	second := &DailyReport{ProjectID: 1, Date: day(t, "2025-04-02")}
	require.NoError(t, svc.Create(context.Background(), second))
	require.Equal(t, 2, second.ReportNumber)

	// Another project starts its own count.
	other := &DailyReport{ProjectID: 2, Date: day(t, "2025-04-02")}
	require.NoError(t, svc.Create(context.Background(), other))
	require.Equal(t, 1, other.ReportNumber)
}

func TestOneReportPerProjectPerDay(t *testing.T) {
	svc, _ := testService(t)

	require.NoError(t, svc.Create(context.Background(), &DailyReport{ProjectID: 1, Date: day(t, "2025-04-01")}))
	err := svc.Create(context.Background(), &DailyReport{ProjectID: 1, Date: day(t, "2025-04-01")})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateDefaultsDateToToday(t *testing.T) {
	svc, _ := testService(t)

	rep := &DailyReport{ProjectID: 1}
	require.NoError(t, svc.Create(context.Background(), rep))
	require.True(t, sameDay(rep.Date, time.Now()))
}

func TestLogValidation(t *testing.T) {
	svc, _ := testService(t)

	err := svc.Create(context.Background(), &DailyReport{
		ProjectID:    1,
		Date:         day(t, "2025-04-01"),
		ManpowerLogs: []Log{{Label: "", DayCount: 4}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.Create(context.Background(), &DailyReport{
		ProjectID:     1,
		Date:          day(t, "2025-04-01"),
		EquipmentLogs: []Log{{Label: "Scissor lift", DayCount: -1}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateKeepsNumberAndDate(t *testing.T) {
	svc, _ := testService(t)

	rep := &DailyReport{ProjectID: 1, Date: day(t, "2025-04-01"), ContractorName: "CurvaCraft"}
	require.NoError(t, svc.Create(context.Background(), rep))

	updated := &DailyReport{
		ID:                   rep.ID,
		ChronologicalAccount: "Blockwork on level 2 from 8am",
		ManpowerLogs:         []Log{{Label: "Mason", DayCount: 6, NightCount: 2}},
	}
	require.NoError(t, svc.Update(context.Background(), updated))
	require.Equal(t, rep.ReportNumber, updated.ReportNumber)
	require.True(t, updated.Date.Equal(rep.Date))
}
