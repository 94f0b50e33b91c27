package accounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
)

// Payment is cash received against one invoice. Payments are append-only in
// normal operation; deletion exists as a correction path, updates do not.
type Payment struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	DatePaid  time.Time       `json:"date_paid"`
	Method    string          `json:"payment_method"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreditNote reduces an invoice's outstanding balance without cash changing
// hands. Credit notes are append-only: no update or delete path exists.
type CreditNote struct {
	ID         int64           `json:"id"`
	InvoiceID  int64           `json:"invoice_id"`
	Number     string          `json:"credit_note_number"`
	DateIssued time.Time       `json:"date_issued"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}

// InvoiceSnapshot is the locked view of an invoice a settlement write
// validates against. Loaded under FOR UPDATE so the amount-due check and the
// insert see the same state.
type InvoiceSnapshot struct {
	ID            int64
	Number        string
	Status        string
	TaxPercentage decimal.Decimal
	Items         []finance.LineItem
}

// GrandTotal derives the snapshot's grand total.
func (s *InvoiceSnapshot) GrandTotal() decimal.Decimal {
	return finance.Totals(s.Items, s.TaxPercentage).GrandTotal
}

// ProjectSummary is one dashboard row: a project's value against what has
// been invoiced, received and credited on it. Receivable and the two
// percentages are derived by the service from the raw sums.
type ProjectSummary struct {
	ProjectID           int64           `json:"project_id"`
	Title               string          `json:"title"`
	ProjectValue        decimal.Decimal `json:"project_value"`
	InvoicedSubtotal    decimal.Decimal `json:"invoiced_subtotal"`
	InvoicedGrand       decimal.Decimal `json:"amount_invoiced"`
	Received            decimal.Decimal `json:"amount_received"`
	Credited            decimal.Decimal `json:"amount_credited"`
	Receivable          decimal.Decimal `json:"amount_pending"`
	InvoicingPercentage decimal.Decimal `json:"invoicing_percentage"`
	PaymentPercentage   decimal.Decimal `json:"payment_percentage"`
}

// Dashboard is the studio-wide financial overview: one row per project plus
// the global totals.
type Dashboard struct {
	Projects              []ProjectSummary `json:"projects"`
	TotalProjectValue     decimal.Decimal  `json:"total_project_value"`
	TotalInvoicedSubtotal decimal.Decimal  `json:"total_invoiced_subtotal"`
	TotalInvoicedGrand    decimal.Decimal  `json:"total_amount_invoiced"`
	TotalReceived         decimal.Decimal  `json:"total_amount_received"`
	TotalCredited         decimal.Decimal  `json:"total_credited"`
	AccountsReceivable    decimal.Decimal  `json:"total_pending"`
	InvoicingPercentage   decimal.Decimal  `json:"invoicing_percentage"`
	PaymentPercentage     decimal.Decimal  `json:"payment_percentage"`
}
