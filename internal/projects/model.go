package projects

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
)

// Status enumerates project states.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Item is a single line in the project scope. Items start as copies of the
// source quotation's lines and are edited independently afterwards.
type Item struct {
	ID          int64           `json:"id"`
	ProjectID   int64           `json:"project_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Position    int             `json:"position"`
}

// TotalAmount is quantity times unit price.
func (i Item) TotalAmount() decimal.Decimal {
	return finance.LineTotal(finance.LineItem{
		QuantityType: finance.QuantityFixed,
		Quantity:     i.Quantity,
		UnitPrice:    i.UnitPrice,
	})
}

// Project is an active engagement created from exactly one accepted
// quotation. The tax rate is copied from the quotation at creation and stays
// editable at the project level.
type Project struct {
	ID            int64           `json:"id"`
	QuotationID   int64           `json:"quotation_id"`
	Title         string          `json:"title"`
	Status        Status          `json:"status"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []Item          `json:"items"`
}

// Totals derives the project budget from its own items, not the quotation's.
func (p *Project) Totals() finance.DocumentTotals {
	lines := make([]finance.LineItem, 0, len(p.Items))
	for _, it := range p.Items {
		lines = append(lines, finance.LineItem{
			Description:  it.Description,
			QuantityType: finance.QuantityFixed,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			UnitPrice:    it.UnitPrice,
		})
	}
	return finance.Totals(lines, p.TaxPercentage)
}

// InvoiceFinancial carries the raw inputs needed to derive one invoice's
// totals for project-level rollups.
type InvoiceFinancial struct {
	InvoiceID     int64
	Number        string
	Void          bool
	TaxPercentage decimal.Decimal
	Items         []finance.LineItem
}

// Figures derives the invoice's subtotal and grand total.
func (f InvoiceFinancial) Figures() finance.InvoiceFigures {
	t := finance.Totals(f.Items, f.TaxPercentage)
	return finance.InvoiceFigures{Subtotal: t.Subtotal, GrandTotal: t.GrandTotal, Void: f.Void}
}
