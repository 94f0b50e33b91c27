package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
)

// QuoteType distinguishes the two priced proposals an enquiry can receive.
type QuoteType string

const (
	QuoteTypeDesign QuoteType = "DESIGN"
	QuoteTypeFitout QuoteType = "FITOUT"
)

// QuoteStatus enumerates quotation states. ACCEPTED is set when a project is
// created from the quotation.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "PENDING"
	QuoteStatusSent     QuoteStatus = "SENT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
)

// DefaultTaxPercentage applies when the caller does not supply a rate.
var DefaultTaxPercentage = decimal.NewFromInt(5)

// Item is a single priced line within a quotation.
type Item struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotation_id"`
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

// Quotation is a priced proposal tied to one enquiry. At most one quotation
// of each type may exist per enquiry.
type Quotation struct {
	ID            int64           `json:"id"`
	EnquiryID     int64           `json:"enquiry_id"`
	QuoteType     QuoteType       `json:"quote_type"`
	Number        string          `json:"quotation_number"`
	Status        QuoteStatus     `json:"status"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []Item          `json:"items"`
}

// Totals derives subtotal, tax and grand total from the attached items.
// Nothing is stored; the figures always reflect the current line items.
func (q *Quotation) Totals() finance.DocumentTotals {
	lines := make([]finance.LineItem, 0, len(q.Items))
	for _, it := range q.Items {
		lines = append(lines, finance.LineItem{
			Description:  it.Description,
			QuantityType: finance.QuantityFixed,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			UnitPrice:    it.UnitPrice,
		})
	}
	return finance.Totals(lines, q.TaxPercentage)
}
