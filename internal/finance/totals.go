// Package finance holds the pure derivation functions behind every monetary
// figure in the system. Nothing here is cached or stored: each value is a
// function of the records it is derived from, so calling a derivation twice
// without an intervening write yields identical results.
package finance

import "github.com/shopspring/decimal"

// QuantityType selects how a line item's total is derived. For PERCENTAGE
// lines the unit price holds a base amount (typically the project grand
// total), not a per-unit price.
type QuantityType string

const (
	QuantityFixed      QuantityType = "FIXED"
	QuantityPercentage QuantityType = "PERCENTAGE"
)

var oneHundred = decimal.NewFromInt(100)

// LineItem is the value view of a document line used for derivation.
type LineItem struct {
	Description  string
	QuantityType QuantityType
	Quantity     decimal.Decimal
	Unit         string
	UnitPrice    decimal.Decimal
}

// LineTotal computes a single line's amount. FIXED lines are
// quantity × unit price; PERCENTAGE lines are (quantity/100) × unit price.
func LineTotal(item LineItem) decimal.Decimal {
	if item.QuantityType == QuantityPercentage {
		return item.Quantity.Div(oneHundred).Mul(item.UnitPrice)
	}
	return item.Quantity.Mul(item.UnitPrice)
}

// Subtotal sums line totals. An empty set of lines sums to zero.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item))
	}
	return total
}

// TaxAmount derives the tax for a subtotal. A non-positive rate yields
// exactly zero rather than the product of a zero rate.
func TaxAmount(subtotal, taxPercentage decimal.Decimal) decimal.Decimal {
	if taxPercentage.IsPositive() {
		return subtotal.Mul(taxPercentage).Div(oneHundred)
	}
	return decimal.Zero
}

// DocumentTotals carries the derived money figures of one document.
type DocumentTotals struct {
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// Totals derives subtotal, tax and grand total for a document's lines.
func Totals(items []LineItem, taxPercentage decimal.Decimal) DocumentTotals {
	subtotal := Subtotal(items)
	tax := TaxAmount(subtotal, taxPercentage)
	return DocumentTotals{
		Subtotal:   subtotal,
		TaxAmount:  tax,
		GrandTotal: subtotal.Add(tax),
	}
}

// Settlement captures how much of an invoice has been covered by payments
// and credit notes.
type Settlement struct {
	GrandTotal    decimal.Decimal
	TotalPaid     decimal.Decimal
	TotalCredited decimal.Decimal
}

// AmountDue is grand total minus payments minus credits. It can reach
// exactly zero; validation at the write boundary keeps a single payment or
// credit from pushing it negative.
func (s Settlement) AmountDue() decimal.Decimal {
	return s.GrandTotal.Sub(s.TotalPaid).Sub(s.TotalCredited)
}

// Settled reports whether the invoice is fully covered.
func (s Settlement) Settled() bool {
	return s.AmountDue().LessThanOrEqual(decimal.Zero)
}

// MaxAdditionalCredit is the largest credit note that can still be issued
// without the credited total exceeding the grand total.
func MaxAdditionalCredit(grandTotal, totalCredited decimal.Decimal) decimal.Decimal {
	return grandTotal.Sub(totalCredited)
}

// WithinTwoDecimals reports whether an amount carries at most two decimal
// places. Monetary inputs are capped at two decimals on entry; internal
// arithmetic keeps full precision.
func WithinTwoDecimals(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}
