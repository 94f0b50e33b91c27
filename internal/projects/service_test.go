package projects

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
	"github.com/curvacraft/studio-erp/internal/quotations"
	"github.com/curvacraft/studio-erp/internal/shared"
)

type fakeRepo struct {
	projects   map[int64]*Project
	financials map[int64][]InvoiceFinancial
	received   map[int64]decimal.Decimal
	credited   map[int64]decimal.Decimal
	invoiceCnt map[int64]int64
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects:   map[int64]*Project{},
		financials: map[int64][]InvoiceFinancial{},
		received:   map[int64]decimal.Decimal{},
		credited:   map[int64]decimal.Decimal{},
		invoiceCnt: map[int64]int64{},
	}
}

func (f *fakeRepo) Create(_ context.Context, p *Project) error {
	for _, other := range f.projects {
		if other.QuotationID == p.QuotationID {
			return fmt.Errorf("quotation %d already has a project: %w", p.QuotationID, shared.ErrDuplicate)
		}
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, p *Project) error {
	cur, ok := f.projects[p.ID]
	if !ok {
		return fmt.Errorf("project %d: %w", p.ID, shared.ErrNotFound)
	}
	p.QuotationID = cur.QuotationID
	p.Status = cur.Status
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, shared.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, status Status, _ shared.PageRequest) ([]Project, error) {
	var out []Project
	for _, p := range f.projects {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	p, ok := f.projects[id]
	if !ok {
		return fmt.Errorf("project %d: %w", id, shared.ErrNotFound)
	}
	p.Status = status
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return fmt.Errorf("project %d: %w", id, shared.ErrNotFound)
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeRepo) CountInvoicesForProject(_ context.Context, projectID int64) (int64, error) {
	return f.invoiceCnt[projectID], nil
}

func (f *fakeRepo) ExistsForQuotation(_ context.Context, quotationID int64) (bool, error) {
	for _, p := range f.projects {
		if p.QuotationID == quotationID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListInvoiceFinancials(_ context.Context, projectID int64) ([]InvoiceFinancial, error) {
	return f.financials[projectID], nil
}

func (f *fakeRepo) SumPaymentsForProject(_ context.Context, projectID int64) (decimal.Decimal, error) {
	return f.received[projectID], nil
}

func (f *fakeRepo) SumCreditsForProject(_ context.Context, projectID int64) (decimal.Decimal, error) {
	return f.credited[projectID], nil
}

type fakeQuotes struct {
	quotes   map[int64]*quotations.Quotation
	accepted []int64
}

func (f *fakeQuotes) Get(_ context.Context, id int64) (*quotations.Quotation, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, fmt.Errorf("quotation %d: %w", id, shared.ErrNotFound)
	}
	return q, nil
}

func (f *fakeQuotes) MarkAccepted(_ context.Context, id int64) error {
	f.accepted = append(f.accepted, id)
	return nil
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testService(t *testing.T) (*Service, *fakeRepo, *fakeQuotes) {
	t.Helper()
	repo := newFakeRepo()
	quotes := &fakeQuotes{quotes: map[int64]*quotations.Quotation{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, quotes, logger), repo, quotes
}

func seedQuotation(t *testing.T, quotes *fakeQuotes) *quotations.Quotation {
	t.Helper()
	q := &quotations.Quotation{
		ID:            11,
		EnquiryID:     3,
		QuoteType:     quotations.QuoteTypeFitout,
		Number:        "CURV-QT-2500004",
		Status:        quotations.QuoteStatusSent,
		TaxPercentage: dec(t, "5.00"),
		Items: []quotations.Item{
			{Description: "Partitioning", Quantity: dec(t, "2"), Unit: "Pcs", UnitPrice: dec(t, "150.00")},
			{Description: "Ceiling works", Quantity: dec(t, "1"), Unit: "Lump Sum", UnitPrice: dec(t, "200.00")},
		},
	}
	quotes.quotes[q.ID] = q
	return q
}

func TestCreateFromQuotationCopiesItemsAndAccepts(t *testing.T) {
	svc, _, quotes := testService(t)
	q := seedQuotation(t, quotes)

	p, err := svc.CreateFromQuotation(context.Background(), q.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusNotStarted, p.Status)
	require.Equal(t, "Project for CURV-QT-2500004", p.Title)
	require.Len(t, p.Items, 2)
	require.True(t, p.TaxPercentage.Equal(q.TaxPercentage))
	require.Equal(t, []int64{q.ID}, quotes.accepted)

	// Copied budget matches the quotation's totals at the moment of copy.
	totals := p.Totals()
	require.True(t, totals.Subtotal.Equal(dec(t, "500.00")))
	require.True(t, totals.GrandTotal.Equal(dec(t, "525.00")))
}

func TestCreateFromQuotationIsOneToOne(t *testing.T) {
	svc, _, quotes := testService(t)
	q := seedQuotation(t, quotes)

	_, err := svc.CreateFromQuotation(context.Background(), q.ID, "First")
	require.NoError(t, err)
	_, err = svc.CreateFromQuotation(context.Background(), q.ID, "Second")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestProjectItemsIndependentOfQuotation(t *testing.T) {
	svc, _, quotes := testService(t)
	q := seedQuotation(t, quotes)

	p, err := svc.CreateFromQuotation(context.Background(), q.ID, "Fitout works")
	require.NoError(t, err)

	// Editing the project does not touch the quotation's items.
	p.Items = []Item{{Description: "Revised scope", Quantity: dec(t, "1"), UnitPrice: dec(t, "900.00")}}
	p.TaxPercentage = decimal.Zero
	require.NoError(t, svc.Update(context.Background(), p))

	require.Len(t, quotes.quotes[q.ID].Items, 2)
	require.True(t, p.Totals().GrandTotal.Equal(dec(t, "900.00")))
}

func TestDeleteBlockedByInvoices(t *testing.T) {
	svc, repo, quotes := testService(t)
	q := seedQuotation(t, quotes)

	p, err := svc.CreateFromQuotation(context.Background(), q.ID, "")
	require.NoError(t, err)

	repo.invoiceCnt[p.ID] = 1
	require.ErrorIs(t, svc.Delete(context.Background(), p.ID), shared.ErrHasDependents)

	repo.invoiceCnt[p.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), p.ID))
}

func TestLedgerExcludesVoidInvoices(t *testing.T) {
	svc, repo, quotes := testService(t)
	q := seedQuotation(t, quotes)

	p, err := svc.CreateFromQuotation(context.Background(), q.ID, "")
	require.NoError(t, err)

	repo.financials[p.ID] = []InvoiceFinancial{
		{
			InvoiceID:     1,
			TaxPercentage: decimal.Zero,
			Items:         []finance.LineItem{{QuantityType: finance.QuantityFixed, Quantity: dec(t, "1"), UnitPrice: dec(t, "500.00")}},
		},
		{
			InvoiceID:     2,
			Void:          true,
			TaxPercentage: decimal.Zero,
			Items:         []finance.LineItem{{QuantityType: finance.QuantityFixed, Quantity: dec(t, "1"), UnitPrice: dec(t, "300.00")}},
		},
	}
	repo.received[p.ID] = dec(t, "200.00")
	repo.credited[p.ID] = dec(t, "50.00")

	ledger, err := svc.Ledger(context.Background(), p.ID)
	require.NoError(t, err)

	// The voided invoice still reads 300.00 on its own record but is
	// excluded from every project aggregate.
	require.True(t, ledger.Invoices[1].GrandTotal.Equal(dec(t, "300.00")))
	require.True(t, ledger.TotalInvoicedGrand().Equal(dec(t, "500.00")))
	require.True(t, ledger.AccountsReceivable().Equal(dec(t, "250.00")))
	require.True(t, ledger.Budget.GrandTotal.Equal(dec(t, "525.00")))
	require.True(t, ledger.BudgetRemainingToInvoiceGrand().Equal(dec(t, "25.00")))
}
