package enquiries

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer stores client contact information.
type Customer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectType describes what kind of work an enquiry asks for.
type ProjectType string

const (
	ProjectTypeDesign ProjectType = "DESIGN"
	ProjectTypeFitout ProjectType = "FITOUT"
	ProjectTypeBoth   ProjectType = "BOTH"
)

// EnquiryStatus enumerates enquiry states. QUALIFIED means ready for
// quotation.
type EnquiryStatus string

const (
	EnquiryStatusPending   EnquiryStatus = "PENDING"
	EnquiryStatusQualified EnquiryStatus = "QUALIFIED"
	EnquiryStatusRejected  EnquiryStatus = "REJECTED"
)

// Enquiry stores the details of a new client request, the precursor of a
// quotation.
type Enquiry struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	ProjectType ProjectType     `json:"project_type"`
	Scope       string          `json:"scope"`
	Location    string          `json:"location"`
	Budget      decimal.Decimal `json:"budget"`
	Timeframe   string          `json:"timeframe"`
	Status      EnquiryStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// EnquiryWithCustomer decorates an enquiry with its customer's name for
// listings.
type EnquiryWithCustomer struct {
	Enquiry
	CustomerName string `json:"customer_name"`
}
