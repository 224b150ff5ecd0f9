package products

import "context"

// RepositoryPort abstracts product persistence for the service and for the
// sales module, which consumes the stock ledger operations through its own
// transactional repository.
type RepositoryPort interface {
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error

	// AdjustStock applies a single atomic conditional stock adjustment.
	// Negative deltas succeed only when the remaining stock stays >= 0;
	// positive deltas always succeed. Failure is *InsufficientStockError.
	AdjustStock(ctx context.Context, id int64, delta int) (Product, error)

	// StockLevels returns current availability for the given products.
	StockLevels(ctx context.Context, ids []int64) (map[int64]StockLevel, error)
}
