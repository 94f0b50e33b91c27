package finance

import "github.com/shopspring/decimal"

// InvoiceFigures is the slice of an invoice the project rollup needs. Void
// invoices keep their own derived totals but are excluded from every
// aggregate.
type InvoiceFigures struct {
	Subtotal   decimal.Decimal
	GrandTotal decimal.Decimal
	Void       bool
}

// ProjectLedger gathers everything needed to derive a project's financial
// position. TotalReceived and TotalCredited come from aggregation queries
// across the project's non-void invoices, not from per-invoice caches.
type ProjectLedger struct {
	Budget        DocumentTotals
	Invoices      []InvoiceFigures
	TotalReceived decimal.Decimal
	TotalCredited decimal.Decimal
}

// TotalInvoicedSubtotal sums the subtotals of non-void invoices.
func (l ProjectLedger) TotalInvoicedSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range l.Invoices {
		if inv.Void {
			continue
		}
		total = total.Add(inv.Subtotal)
	}
	return total
}

// TotalInvoicedGrand sums the grand totals of non-void invoices.
func (l ProjectLedger) TotalInvoicedGrand() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range l.Invoices {
		if inv.Void {
			continue
		}
		total = total.Add(inv.GrandTotal)
	}
	return total
}

// AccountsReceivable is the single authoritative "money still owed" figure:
// total billed minus cash received minus credits issued. It is distinct from
// the budget not yet billed (BudgetRemainingToInvoiceGrand).
func (l ProjectLedger) AccountsReceivable() decimal.Decimal {
	return l.TotalInvoicedGrand().Sub(l.TotalReceived).Sub(l.TotalCredited)
}

// BudgetRemainingToInvoiceSubtotal is the pre-tax budget not yet billed.
func (l ProjectLedger) BudgetRemainingToInvoiceSubtotal() decimal.Decimal {
	return l.Budget.Subtotal.Sub(l.TotalInvoicedSubtotal())
}

// BudgetRemainingToInvoiceGrand is the tax-inclusive budget not yet billed.
func (l ProjectLedger) BudgetRemainingToInvoiceGrand() decimal.Decimal {
	return l.Budget.GrandTotal.Sub(l.TotalInvoicedGrand())
}
