package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsboard/opsboard/internal/sales"
)

// RepositoryPort abstracts the aggregate queries behind the summary.
type RepositoryPort interface {
	RevenueAndUnits(ctx context.Context, from, to time.Time) (float64, int, error)
	SalesByStatus(ctx context.Context, from, to time.Time) (map[string]int, error)
	LowStock(ctx context.Context, limit int) ([]LowStock, error)
	OnDutyCount(ctx context.Context) (int, error)
}

// Repository implements RepositoryPort using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RevenueAndUnits sums completed sales in the window.
func (r *Repository) RevenueAndUnits(ctx context.Context, from, to time.Time) (float64, int, error) {
	const q = `
SELECT COALESCE(SUM(s.total_amount), 0), COALESCE(SUM(li.quantity), 0)
FROM ` + sales.TableSales + ` s
LEFT JOIN ` + sales.TableSaleLines + ` li ON li.sale_id = s.id
WHERE s.status = 'completed' AND s.sale_date >= $1 AND s.sale_date < $2`
	var revenue float64
	var units int
	if err := r.pool.QueryRow(ctx, q, from.UTC(), to.UTC()).Scan(&revenue, &units); err != nil {
		return 0, 0, fmt.Errorf("revenue and units: %w", err)
	}
	return revenue, units, nil
}

// SalesByStatus counts sales per status in the window.
func (r *Repository) SalesByStatus(ctx context.Context, from, to time.Time) (map[string]int, error) {
	const q = `
SELECT status, COUNT(*)
FROM ` + sales.TableSales + `
WHERE sale_date >= $1 AND sale_date < $2
GROUP BY status`
	rows, err := r.pool.Query(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("sales by status: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

// LowStock lists active products at or below their minimum stock.
func (r *Repository) LowStock(ctx context.Context, limit int) ([]LowStock, error) {
	const q = `
SELECT id, sku, name, stock, min_stock
FROM products
WHERE is_active AND stock <= min_stock
ORDER BY stock - min_stock, name
LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	defer rows.Close()

	var out []LowStock
	for rows.Next() {
		var ls LowStock
		if err := rows.Scan(&ls.ProductID, &ls.SKU, &ls.Name, &ls.Stock, &ls.MinStock); err != nil {
			return nil, err
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

// OnDutyCount counts employees with an open attendance record.
func (r *Repository) OnDutyCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance_records WHERE clock_out IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("on duty count: %w", err)
	}
	return count, nil
}

var _ RepositoryPort = (*Repository)(nil)
