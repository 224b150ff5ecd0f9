package sales

import (
	"errors"
	"fmt"
	"time"
)

// Table names for the sale records. Every query against these tables, here
// and in the insights and audit queries, goes through these constants so the
// SQL cannot drift from the schema in scripts/seed.
const (
	TableSales     = "sales"
	TableSaleLines = "sale_line_items"
)

// Status enumerates sale lifecycle states. All three are stable: any status
// may transition to any other. Only a completed sale holds a stock deduction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// LineItem is one product/quantity/price entry within a sale.
type LineItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// Sale models a sale record with its line items.
type Sale struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	Status      Status     `json:"status"`
	Lines       []LineItem `json:"line_items"`
	TotalAmount float64    `json:"total_amount"`
	SoldBy      int64      `json:"sold_by"`
	SaleDate    time.Time  `json:"sale_date"`
	CreatedBy   int64      `json:"created_by"`
	UpdatedBy   int64      `json:"updated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LineInput is the caller-supplied shape of a line item before pricing.
type LineInput struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

// CreateSaleInput carries a create request into the service.
type CreateSaleInput struct {
	Lines    []LineInput
	Status   Status // empty defaults to completed
	SaleDate time.Time
	SoldBy   int64
	ActorID  int64
}

// UpdateSaleInput carries an update request. Status and Lines are independent;
// either or both may be present. CanEditLines is the already-decided
// authorization capability: the service never inspects roles itself.
type UpdateSaleInput struct {
	Status       *Status
	Lines        *[]LineInput
	ActorID      int64
	CanEditLines bool
}

// ListFilter narrows sale listings.
type ListFilter struct {
	Status  Status
	SoldBy  int64
	Page    int
	PerPage int
}

// ValidationError names the offending line of a malformed request.
// Line is 1-based; zero means the error is not tied to a single line.
type ValidationError struct {
	Line   int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("sales: line %d: %s", e.Line, e.Reason)
	}
	return "sales: " + e.Reason
}

var (
	// ErrNotFound indicates a missing sale record.
	ErrNotFound = errors.New("sales: not found")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("sales: invalid status")
	// ErrLineEditForbidden indicates the caller may not alter line items.
	ErrLineEditForbidden = errors.New("sales: caller may not edit line items")
)
