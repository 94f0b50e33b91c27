package accounts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/curvacraft/studio-erp/internal/finance"
	"github.com/curvacraft/studio-erp/internal/shared"
)

// fakeRepo keeps one invoice with its payments and credit notes in memory
// and implements both the repository port and the transaction port.
type fakeRepo struct {
	invoice  *InvoiceSnapshot
	payments []Payment
	credits  []CreditNote

	projectValue     decimal.Decimal
	invoicedSubtotal decimal.Decimal
	invoicedGrand    decimal.Decimal
	summaries        []ProjectSummary
	dashboardCalls   int

	nextID  int64
	nextSeq int64
}

func newFakeRepo(grandTotal string) *fakeRepo {
	return &fakeRepo{
		invoice: &InvoiceSnapshot{
			ID:            1,
			Number:        "CURV-2025001",
			Status:        "SENT",
			TaxPercentage: decimal.Zero,
			Items: []finance.LineItem{{
				QuantityType: finance.QuantityFixed,
				Quantity:     decimal.NewFromInt(1),
				UnitPrice:    decimal.RequireFromString(grandTotal),
			}},
		},
	}
}

func (f *fakeRepo) InTx(_ context.Context, fn func(TxPort) error) error {
	return fn(f)
}

func (f *fakeRepo) LockInvoice(_ context.Context, invoiceID int64) (*InvoiceSnapshot, error) {
	if invoiceID != f.invoice.ID {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, shared.ErrNotFound)
	}
	cp := *f.invoice
	return &cp, nil
}

func (f *fakeRepo) SumPayments(_ context.Context, _ int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range f.payments {
		total = total.Add(p.Amount)
	}
	return total, nil
}

func (f *fakeRepo) SumCredits(_ context.Context, _ int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, cn := range f.credits {
		total = total.Add(cn.Amount)
	}
	return total, nil
}

func (f *fakeRepo) InsertPayment(_ context.Context, p *Payment) error {
	f.nextID++
	p.ID = f.nextID
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeRepo) InsertCreditNote(_ context.Context, cn *CreditNote) error {
	f.nextID++
	f.nextSeq++
	cn.ID = f.nextID
	cn.Number = fmt.Sprintf("CN-2025%03d", f.nextSeq)
	f.credits = append(f.credits, *cn)
	return nil
}

func (f *fakeRepo) SetInvoiceStatus(_ context.Context, _ int64, status string) error {
	f.invoice.Status = status
	return nil
}

func (f *fakeRepo) ListPayments(_ context.Context, _ int64) ([]Payment, error) {
	return f.payments, nil
}

func (f *fakeRepo) ListCreditNotes(_ context.Context, _ int64) ([]CreditNote, error) {
	return f.credits, nil
}

func (f *fakeRepo) DeletePayment(_ context.Context, id int64) error {
	for i, p := range f.payments {
		if p.ID == id {
			f.payments = append(f.payments[:i], f.payments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("payment %d: %w", id, shared.ErrNotFound)
}

func (f *fakeRepo) ListProjectSummaries(_ context.Context) ([]ProjectSummary, error) {
	return f.summaries, nil
}

func (f *fakeRepo) SumProjectValue(_ context.Context) (decimal.Decimal, error) {
	f.dashboardCalls++
	return f.projectValue, nil
}

func (f *fakeRepo) SumInvoicedTotals(_ context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return f.invoicedSubtotal, f.invoicedGrand, nil
}

func (f *fakeRepo) SumReceived(ctx context.Context) (decimal.Decimal, error) {
	return f.SumPayments(ctx, 0)
}

func (f *fakeRepo) SumCredited(ctx context.Context) (decimal.Decimal, error) {
	return f.SumCredits(ctx, 0)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testService(t *testing.T, grandTotal string) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo(grandTotal)
	return NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestRecordPaymentValidatesAmount(t *testing.T) {
	svc, _ := testService(t, "1000.00")

	err := svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "-5")})
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "10.999")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordPaymentCapsAtAmountDue(t *testing.T) {
	svc, repo := testService(t, "1000.00")

	err := svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "600.00")})
	require.NoError(t, err)
	require.Equal(t, "SENT", repo.invoice.Status)

	// 500 > 400 still due.
	err = svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "500.00")})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "400.00")
}

func TestFullPaymentSettlesInvoice(t *testing.T) {
	svc, repo := testService(t, "1000.00")

	require.NoError(t, svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "600.00")}))
	require.NoError(t, svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "400.00")}))
	require.Equal(t, "PAID", repo.invoice.Status)
}

func TestPaymentRejectedOnVoidInvoice(t *testing.T) {
	svc, repo := testService(t, "1000.00")
	repo.invoice.Status = "VOID"

	err := svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "100.00")})
	require.ErrorIs(t, err, shared.ErrImmutable)
}

func TestCreditNoteCapReportsMaximum(t *testing.T) {
	svc, _ := testService(t, "1000.00")

	err := svc.IssueCreditNote(context.Background(), &CreditNote{InvoiceID: 1, Amount: dec(t, "1200.00"), Reason: "scope cut"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "1000.00")

	cn := &CreditNote{InvoiceID: 1, Amount: dec(t, "300.00"), Reason: "scope cut"}
	require.NoError(t, svc.IssueCreditNote(context.Background(), cn))
	require.NotEmpty(t, cn.Number)

	// Cap shrinks as credit accumulates.
	err = svc.IssueCreditNote(context.Background(), &CreditNote{InvoiceID: 1, Amount: dec(t, "800.00"), Reason: "more"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "700.00")
}

func TestCreditsAndPaymentsTogetherSettle(t *testing.T) {
	svc, repo := testService(t, "1000.00")

	require.NoError(t, svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "700.00")}))
	require.NoError(t, svc.IssueCreditNote(context.Background(), &CreditNote{InvoiceID: 1, Amount: dec(t, "300.00"), Reason: "goodwill"}))
	require.Equal(t, "PAID", repo.invoice.Status)
}

func TestDeletePayment(t *testing.T) {
	svc, repo := testService(t, "1000.00")

	p := &Payment{InvoiceID: 1, Amount: dec(t, "100.00")}
	require.NoError(t, svc.RecordPayment(context.Background(), p))
	require.NoError(t, svc.DeletePayment(context.Background(), p.ID))
	require.Empty(t, repo.payments)

	require.ErrorIs(t, svc.DeletePayment(context.Background(), p.ID), shared.ErrNotFound)
}

func TestDashboardComputesPercentages(t *testing.T) {
	svc, repo := testService(t, "1000.00")
	repo.projectValue = dec(t, "2000.00")
	repo.invoicedSubtotal = dec(t, "1000.00")
	repo.invoicedGrand = dec(t, "1050.00")
	require.NoError(t, svc.RecordPayment(context.Background(), &Payment{InvoiceID: 1, Amount: dec(t, "525.00")}))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.True(t, d.InvoicingPercentage.Equal(dec(t, "50")), "invoicing pct = %s", d.InvoicingPercentage)
	require.True(t, d.PaymentPercentage.Equal(dec(t, "50")), "payment pct = %s", d.PaymentPercentage)
	require.True(t, d.AccountsReceivable.Equal(dec(t, "525.00")))
}

func TestDashboardDerivesProjectRows(t *testing.T) {
	svc, repo := testService(t, "1000.00")
	repo.summaries = []ProjectSummary{
		{
			ProjectID:        7,
			Title:            "Villa fitout",
			ProjectValue:     dec(t, "2000.00"),
			InvoicedSubtotal: dec(t, "500.00"),
			InvoicedGrand:    dec(t, "525.00"),
			Received:         dec(t, "105.00"),
			Credited:         dec(t, "20.00"),
		},
		{ProjectID: 8, Title: "Office concept"},
	}

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Projects, 2)

	row := d.Projects[0]
	require.True(t, row.Receivable.Equal(dec(t, "400.00")), "receivable = %s", row.Receivable)
	require.True(t, row.InvoicingPercentage.Equal(dec(t, "25")), "invoicing pct = %s", row.InvoicingPercentage)
	require.True(t, row.PaymentPercentage.Equal(dec(t, "20")), "payment pct = %s", row.PaymentPercentage)

	empty := d.Projects[1]
	require.True(t, empty.Receivable.IsZero())
	require.True(t, empty.InvoicingPercentage.IsZero())
	require.True(t, empty.PaymentPercentage.IsZero())
}

func TestDashboardZeroDenominators(t *testing.T) {
	svc, _ := testService(t, "1000.00")

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.True(t, d.InvoicingPercentage.IsZero())
	require.True(t, d.PaymentPercentage.IsZero())
}
