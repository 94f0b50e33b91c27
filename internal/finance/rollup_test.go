package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestProjectRollupExcludesVoidInvoices(t *testing.T) {
	ledger := ProjectLedger{
		Invoices: []InvoiceFigures{
			{Subtotal: dec("476.19"), GrandTotal: dec("500.00")},
			{Subtotal: dec("285.71"), GrandTotal: dec("300.00"), Void: true},
		},
	}

	// The voided invoice still carries its own totals but contributes nothing.
	require.True(t, ledger.TotalInvoicedGrand().Equal(dec("500.00")))
	require.True(t, ledger.TotalInvoicedSubtotal().Equal(dec("476.19")))
}

func TestAccountsReceivable(t *testing.T) {
	ledger := ProjectLedger{
		Invoices: []InvoiceFigures{
			{Subtotal: dec("1000.00"), GrandTotal: dec("1050.00")},
			{Subtotal: dec("500.00"), GrandTotal: dec("525.00")},
		},
		TotalReceived: dec("800.00"),
		TotalCredited: dec("100.00"),
	}
	require.True(t, ledger.AccountsReceivable().Equal(dec("675.00")))
}

func TestBudgetRemainingToInvoice(t *testing.T) {
	ledger := ProjectLedger{
		Budget: DocumentTotals{
			Subtotal:   dec("10000.00"),
			TaxAmount:  dec("500.00"),
			GrandTotal: dec("10500.00"),
		},
		Invoices: []InvoiceFigures{
			{Subtotal: dec("4000.00"), GrandTotal: dec("4200.00")},
		},
	}
	require.True(t, ledger.BudgetRemainingToInvoiceSubtotal().Equal(dec("6000.00")))
	require.True(t, ledger.BudgetRemainingToInvoiceGrand().Equal(dec("6300.00")))
}

func TestEmptyLedgerSumsToZero(t *testing.T) {
	var ledger ProjectLedger
	require.True(t, ledger.TotalInvoicedGrand().Equal(decimal.Zero))
	require.True(t, ledger.AccountsReceivable().Equal(decimal.Zero))
}
