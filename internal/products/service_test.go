package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items  map[int64]Product
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Product)}
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	var out []Product
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.items[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, product Product) (Product, error) {
	for _, existing := range r.items {
		if existing.SKU == product.SKU {
			return Product{}, ErrDuplicateSKU
		}
	}
	r.nextID++
	product.ID = r.nextID
	r.items[product.ID] = product
	return product, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, product Product) error {
	existing, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	product.ID = id
	product.Stock = existing.Stock
	r.items[id] = product
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) AdjustStock(ctx context.Context, id int64, delta int) (Product, error) {
	p, ok := r.items[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if delta < 0 && p.Stock+delta < 0 {
		return Product{}, &InsufficientStockError{ProductID: id, Name: p.Name, Available: p.Stock, Requested: -delta}
	}
	p.Stock += delta
	r.items[id] = p
	return p, nil
}

func (r *memoryRepo) StockLevels(ctx context.Context, ids []int64) (map[int64]StockLevel, error) {
	levels := make(map[int64]StockLevel)
	for _, id := range ids {
		if p, ok := r.items[id]; ok {
			levels[id] = StockLevel{ProductID: id, Name: p.Name, Available: p.Stock}
		}
	}
	return levels, nil
}

func TestAdjustStockGuardsNegative(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{SKU: "SKU-1", Name: "Widget", Price: 10, Stock: 3, IsActive: true}, 1)
	require.NoError(t, err)

	updated, err := svc.AdjustStock(ctx, created.ID, -2, 1)
	require.NoError(t, err)
	require.Equal(t, 1, updated.Stock)

	_, err = svc.AdjustStock(ctx, created.ID, -2, 1)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 1, insufficient.Available)
	require.Equal(t, 2, insufficient.Requested)

	updated, err = svc.AdjustStock(ctx, created.ID, 5, 1)
	require.NoError(t, err)
	require.Equal(t, 6, updated.Stock)
}

func TestAdjustStockRejectsZeroDelta(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.AdjustStock(context.Background(), 1, 0, 1)
	require.ErrorIs(t, err, ErrInvalidDelta)
}

func TestUpdateNeverTouchesStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{SKU: "SKU-2", Name: "Gadget", Price: 5, Stock: 7, IsActive: true}, 1)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Product{SKU: "SKU-2", Name: "Gadget v2", Price: 6, IsActive: true}, 1)
	require.NoError(t, err)
	require.Equal(t, 7, updated.Stock)
	require.Equal(t, "Gadget v2", updated.Name)
}
