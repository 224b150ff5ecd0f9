package products

import (
	"errors"
	"fmt"
	"time"
)

// Product represents a catalog item with its tracked stock count.
type Product struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	MinStock  int       `json:"min_stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockLevel is a read-only snapshot used to pre-validate deductions.
type StockLevel struct {
	ProductID int64
	Name      string
	Available int
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search   string
	IsActive *bool
	Page     int
	PerPage  int
}

// InsufficientStockError reports a rejected conditional deduction. It carries
// enough detail for the caller to display "Available: X, Requested: Y".
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("product %d", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", name, e.Available, e.Requested)
}

// ErrNotFound indicates a missing product row.
var ErrNotFound = errors.New("products: not found")

// ErrInvalidDelta indicates a zero stock adjustment.
var ErrInvalidDelta = errors.New("products: stock delta must be non zero")

// ErrDuplicateSKU indicates a SKU uniqueness violation.
var ErrDuplicateSKU = errors.New("products: sku already exists")
