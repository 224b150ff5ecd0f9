package sales

import (
	"context"

	"github.com/opsboard/opsboard/internal/products"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (Sale, error)
	ListSales(ctx context.Context, filter ListFilter) ([]Sale, int, error)

	// StockLevels mirrors the product module's availability snapshot, used
	// to pre-validate planned deductions before opening a transaction.
	StockLevels(ctx context.Context, ids []int64) (map[int64]products.StockLevel, error)
}

// TxRepository exposes the operations that must commit or roll back together:
// the stock ledger adjustments and the sale record writes.
type TxRepository interface {
	// ApplyAdjustment executes one ledger operation. Deductions are
	// conditional and fail with *products.InsufficientStockError when the
	// guard rejects them; restorations are unconditional.
	ApplyAdjustment(ctx context.Context, adj StockAdjustment) error

	InsertSale(ctx context.Context, sale Sale) (int64, error)
	UpdateSale(ctx context.Context, sale Sale) error
	ReplaceLines(ctx context.Context, saleID int64, lines []LineItem) error
	DeleteSale(ctx context.Context, saleID int64) error
}
