package purchaseorders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/curvacraft/studio-erp/internal/finance"
)

// Status enumerates purchase order states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
)

// DefaultTaxPercentage applies when the caller does not supply a rate.
var DefaultTaxPercentage = decimal.NewFromInt(5)

// Contractor is an external supplier purchase orders are issued to.
type Contractor struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Item is a single priced line within a purchase order.
type Item struct {
	ID              int64           `json:"id"`
	PurchaseOrderID int64           `json:"purchase_order_id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Position        int             `json:"position"`
}

// TotalAmount is quantity times unit price.
func (i Item) TotalAmount() decimal.Decimal {
	return finance.LineTotal(finance.LineItem{
		QuantityType: finance.QuantityFixed,
		Quantity:     i.Quantity,
		UnitPrice:    i.UnitPrice,
	})
}

// PurchaseOrder is a priced order issued to one contractor. Its number is
// drawn from a sequence independent of the quotation and invoice sequences.
type PurchaseOrder struct {
	ID            int64           `json:"id"`
	ContractorID  int64           `json:"contractor_id"`
	Number        string          `json:"po_number"`
	Status        Status          `json:"status"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []Item          `json:"items"`
}

// Totals derives subtotal, tax and grand total from the attached items.
func (po *PurchaseOrder) Totals() finance.DocumentTotals {
	lines := make([]finance.LineItem, 0, len(po.Items))
	for _, it := range po.Items {
		lines = append(lines, finance.LineItem{
			Description:  it.Description,
			QuantityType: finance.QuantityFixed,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
			UnitPrice:    it.UnitPrice,
		})
	}
	return finance.Totals(lines, po.TaxPercentage)
}
