package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, sku, name, brand, price, stock, min_stock, is_active, created_at, updated_at`

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Querier is the subset of pgx executors the stock ledger runs against. Both
// pgxpool.Pool and pgx.Tx satisfy it, so sale transactions can apply ledger
// operations atomically with their own writes.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AdjustStockOn applies the ledger primitive against the given querier.
//
// Deductions use a conditional UPDATE guarded by the current stock value, so
// the check and the write are one atomic statement: two concurrent deductions
// against the last remaining units cannot both succeed.
func AdjustStockOn(ctx context.Context, q Querier, id int64, delta int) (Product, error) {
	if delta == 0 {
		return Product{}, ErrInvalidDelta
	}
	var p Product
	var err error
	if delta < 0 {
		qty := -delta
		err = scanProduct(q.QueryRow(ctx, `UPDATE products SET stock = stock - $2, updated_at = NOW()
WHERE id = $1 AND stock >= $2
RETURNING `+productColumns, id, qty), &p)
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row is missing or the guard rejected the deduction.
			current, lookupErr := getProduct(ctx, q, id)
			if lookupErr != nil {
				return Product{}, lookupErr
			}
			return Product{}, &InsufficientStockError{
				ProductID: id,
				Name:      current.Name,
				Available: current.Stock,
				Requested: qty,
			}
		}
	} else {
		err = scanProduct(q.QueryRow(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW()
WHERE id = $1
RETURNING `+productColumns, id, delta), &p)
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// AdjustStock applies a stock adjustment through the pooled connection.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int) (Product, error) {
	return AdjustStockOn(ctx, r.pool, id, delta)
}

// StockLevels returns availability snapshots for the given product IDs.
func (r *Repository) StockLevels(ctx context.Context, ids []int64) (map[int64]StockLevel, error) {
	levels := make(map[int64]StockLevel, len(ids))
	if len(ids) == 0 {
		return levels, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, stock FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.ProductID, &level.Name, &level.Available); err != nil {
			return nil, err
		}
		levels[level.ProductID] = level
	}
	return levels, rows.Err()
}

// List returns products matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		idx := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + idx + ` OR sku ILIKE $` + idx + `)`
		countQuery += ` AND (name ILIKE $` + idx + ` OR sku ILIKE $` + idx + `)`
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		idx := strconv.Itoa(len(args))
		query += ` AND is_active = $` + idx
		countQuery += ` AND is_active = $` + idx
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (page-1)*perPage)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Brand, &p.Price, &p.Stock, &p.MinStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// Get fetches a product by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	return getProduct(ctx, r.pool, id)
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO products (sku, name, brand, price, stock, min_stock, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
RETURNING `+productColumns,
		product.SKU, product.Name, product.Brand, product.Price, product.Stock, product.MinStock, product.IsActive).
		Scan(&product.ID, &product.SKU, &product.Name, &product.Brand, &product.Price, &product.Stock, &product.MinStock, &product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, err
	}
	return product, nil
}

// Update modifies descriptive fields. Stock is never written here; the ledger
// primitive is the only stock mutator.
func (r *Repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET sku=$2, name=$3, brand=$4, price=$5, min_stock=$6, is_active=$7, updated_at=NOW() WHERE id=$1`,
		id, product.SKU, product.Name, product.Brand, product.Price, product.MinStock, product.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a product row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func getProduct(ctx context.Context, q Querier, id int64) (Product, error) {
	var p Product
	err := scanProduct(q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.SKU, &p.Name, &p.Brand, &p.Price, &p.Stock, &p.MinStock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
