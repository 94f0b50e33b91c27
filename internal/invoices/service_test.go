package invoices

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/shared"
)

type fakeRepo struct {
	invoices map[int64]*Invoice
	payments map[int64]decimal.Decimal
	credits  map[int64]decimal.Decimal
	nextID   int64
	nextSeq  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		invoices: map[int64]*Invoice{},
		payments: map[int64]decimal.Decimal{},
		credits:  map[int64]decimal.Decimal{},
	}
}

func (f *fakeRepo) Create(_ context.Context, inv *Invoice) error {
	f.nextID++
	f.nextSeq++
	inv.ID = f.nextID
	inv.Number = fmt.Sprintf("CURV-%d%03d", time.Now().Year(), f.nextSeq)
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, inv *Invoice) error {
	cur, ok := f.invoices[inv.ID]
	if !ok {
		return fmt.Errorf("invoice %d: %w", inv.ID, shared.ErrNotFound)
	}
	inv.Number = cur.Number
	inv.Status = cur.Status
	inv.ProjectID = cur.ProjectID
	cp := *inv
	f.invoices[inv.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter, _ shared.PageRequest) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range f.invoices {
		if filter.ProjectID != 0 && inv.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	inv, ok := f.invoices[id]
	if !ok {
		return fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	inv.Status = status
	return nil
}

func (f *fakeRepo) SumPayments(_ context.Context, invoiceID int64) (decimal.Decimal, error) {
	return f.payments[invoiceID], nil
}

func (f *fakeRepo) SumCredits(_ context.Context, invoiceID int64) (decimal.Decimal, error) {
	return f.credits[invoiceID], nil
}

func (f *fakeRepo) ListOverdue(_ context.Context, asOf time.Time) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range f.invoices {
		if inv.Status == StatusSent && inv.DueDate != nil && inv.DueDate.Before(asOf) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testService(t *testing.T) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func sampleInvoice(t *testing.T) *Invoice {
	t.Helper()
	return &Invoice{
		ProjectID:     4,
		TaxPercentage: decimal.Zero,
		Items: []Item{
			{Description: "Mobilisation", QuantityType: finance.QuantityFixed, Quantity: dec(t, "1"), UnitPrice: dec(t, "1000.00")},
		},
	}
}

func TestCreateStartsDraftWithNumber(t *testing.T) {
	svc, _ := testService(t)

	inv := sampleInvoice(t)
	require.NoError(t, svc.Create(context.Background(), inv))
	require.Equal(t, StatusDraft, inv.Status)
	require.NotEmpty(t, inv.Number)
	require.False(t, inv.IssueDate.IsZero())
}

func TestCreateValidatesQuantityTypes(t *testing.T) {
	svc, _ := testService(t)

	inv := sampleInvoice(t)
	inv.Items[0].QuantityType = "HOURLY"
	require.ErrorIs(t, svc.Create(context.Background(), inv), shared.ErrValidation)

	inv = sampleInvoice(t)
	inv.Items[0].QuantityType = finance.QuantityPercentage
	inv.Items[0].Quantity = dec(t, "150")
	require.ErrorIs(t, svc.Create(context.Background(), inv), shared.ErrValidation)
}

func TestPercentageItemBillsShareOfBase(t *testing.T) {
	svc, _ := testService(t)

	// 10 percent of a 1000.00 base.
	inv := &Invoice{
		ProjectID:     4,
		TaxPercentage: decimal.Zero,
		Items: []Item{
			{Description: "First instalment", QuantityType: finance.QuantityPercentage, Quantity: dec(t, "10"), UnitPrice: dec(t, "1000.00")},
		},
	}
	require.NoError(t, svc.Create(context.Background(), inv))
	require.True(t, inv.Totals().GrandTotal.Equal(dec(t, "100.00")))
}

func TestDetailDerivesSettlement(t *testing.T) {
	svc, repo := testService(t)

	inv := sampleInvoice(t)
	require.NoError(t, svc.Create(context.Background(), inv))
	repo.payments[inv.ID] = dec(t, "600.00")
	repo.credits[inv.ID] = dec(t, "150.00")

	d, err := svc.Detail(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, d.GrandTotal.Equal(dec(t, "1000.00")))
	require.True(t, d.AmountDue.Equal(dec(t, "250.00")))
}

func TestVoidIsTerminal(t *testing.T) {
	svc, repo := testService(t)

	inv := sampleInvoice(t)
	require.NoError(t, svc.Create(context.Background(), inv))

	// Confirmation step required.
	require.ErrorIs(t, svc.Void(context.Background(), inv.ID, false), shared.ErrValidation)
	require.NoError(t, svc.Void(context.Background(), inv.ID, true))
	require.Equal(t, StatusVoid, repo.invoices[inv.ID].Status)

	// No way out of VOID: not by status form, not by edit, not by re-void.
	require.ErrorIs(t, svc.SetStatus(context.Background(), inv.ID, StatusDraft), shared.ErrImmutable)
	require.ErrorIs(t, svc.Update(context.Background(), sampleInvoiceWithID(t, inv.ID)), shared.ErrImmutable)
	require.ErrorIs(t, svc.Void(context.Background(), inv.ID, true), shared.ErrImmutable)

	// The voided invoice keeps its historical totals.
	d, err := svc.Detail(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, d.GrandTotal.Equal(dec(t, "1000.00")))
}

func sampleInvoiceWithID(t *testing.T, id int64) *Invoice {
	t.Helper()
	inv := sampleInvoice(t)
	inv.ID = id
	return inv
}

func TestManualStatusCannotVoid(t *testing.T) {
	svc, _ := testService(t)

	inv := sampleInvoice(t)
	require.NoError(t, svc.Create(context.Background(), inv))
	require.ErrorIs(t, svc.SetStatus(context.Background(), inv.ID, StatusVoid), shared.ErrValidation)
}

func TestListOverdue(t *testing.T) {
	svc, _ := testService(t)

	due := time.Now().AddDate(0, 0, -10)
	inv := sampleInvoice(t)
	inv.DueDate = &due
	require.NoError(t, svc.Create(context.Background(), inv))
	require.NoError(t, svc.SetStatus(context.Background(), inv.ID, StatusSent))

	fresh := sampleInvoice(t)
	future := time.Now().AddDate(0, 0, 10)
	fresh.DueDate = &future
	require.NoError(t, svc.Create(context.Background(), fresh))

	overdue, err := svc.ListOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, inv.ID, overdue[0].ID)
}

func TestDueDateIsOptional(t *testing.T) {
	svc, repo := testService(t)

	inv := sampleInvoice(t)
	require.NoError(t, svc.Create(context.Background(), inv))
	require.Nil(t, repo.invoices[inv.ID].DueDate)
	require.NoError(t, svc.SetStatus(context.Background(), inv.ID, StatusSent))

	// Without a due date the invoice can never age into the overdue list.
	overdue, err := svc.ListOverdue(context.Background(), time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	require.Empty(t, overdue)
}
