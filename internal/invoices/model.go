package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
)

// Status enumerates invoice states. VOID is terminal: a voided invoice keeps
// its line items and historical totals but is excluded from every project
// aggregate and rejects all further edits.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusSent  Status = "SENT"
	StatusPaid  Status = "PAID"
	StatusVoid  Status = "VOID"
)

// Item is a single billed line. For FIXED items unit_price is a per-unit
// price; for PERCENTAGE items unit_price holds a base amount (typically the
// project grand total) and quantity is the percentage of it being billed.
type Item struct {
	ID           int64                `json:"id"`
	InvoiceID    int64                `json:"invoice_id"`
	Description  string               `json:"description"`
	QuantityType finance.QuantityType `json:"quantity_type"`
	Quantity     decimal.Decimal      `json:"quantity"`
	UnitPrice    decimal.Decimal      `json:"unit_price"`
	Position     int                  `json:"position"`
}

// TotalAmount derives the line total under the item's quantity type.
func (i Item) TotalAmount() decimal.Decimal {
	return finance.LineTotal(finance.LineItem{
		QuantityType: i.QuantityType,
		Quantity:     i.Quantity,
		UnitPrice:    i.UnitPrice,
	})
}

// Invoice is a bill issued against a project.
type Invoice struct {
	ID            int64           `json:"id"`
	ProjectID     int64           `json:"project_id"`
	Number        string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"date"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Status        Status          `json:"status"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []Item          `json:"items"`
}

// Totals derives subtotal, tax and grand total from the attached items.
func (inv *Invoice) Totals() finance.DocumentTotals {
	lines := make([]finance.LineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, finance.LineItem{
			Description:  it.Description,
			QuantityType: it.QuantityType,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
		})
	}
	return finance.Totals(lines, inv.TaxPercentage)
}

// Detail is an invoice together with its settlement position, all derived on
// read.
type Detail struct {
	Invoice       *Invoice        `json:"invoice"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalCredited decimal.Decimal `json:"total_credited"`
	AmountDue     decimal.Decimal `json:"amount_due"`
}
