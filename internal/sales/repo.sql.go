package sales

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsboard/opsboard/internal/platform/db"
	"github.com/opsboard/opsboard/internal/products"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a read-committed transaction. Ledger
// adjustments and sale writes issued through the callback commit atomically.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetSale loads one sale with its line items.
func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, error) {
	var sale Sale
	err := r.pool.QueryRow(ctx, `SELECT id, number, status, total_amount, sold_by, sale_date, created_by, updated_by, created_at, updated_at
FROM sales WHERE id=$1`, id).
		Scan(&sale.ID, &sale.Number, &sale.Status, &sale.TotalAmount, &sale.SoldBy, &sale.SaleDate, &sale.CreatedBy, &sale.UpdatedBy, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, err
	}
	lines, err := r.linesFor(ctx, []int64{id})
	if err != nil {
		return Sale{}, err
	}
	sale.Lines = lines[id]
	return sale, nil
}

// ListSales returns a page of sales with their line items plus the total count.
func (r *Repository) ListSales(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	query := `SELECT id, number, status, total_amount, sold_by, sale_date, created_by, updated_by, created_at, updated_at FROM sales WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		idx := strconv.Itoa(len(args))
		query += ` AND status = $` + idx
		countQuery += ` AND status = $` + idx
	}
	if filter.SoldBy != 0 {
		args = append(args, filter.SoldBy)
		idx := strconv.Itoa(len(args))
		query += ` AND sold_by = $` + idx
		countQuery += ` AND sold_by = $` + idx
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY sale_date DESC, id DESC`
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
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

	var sales []Sale
	var ids []int64
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.Number, &sale.Status, &sale.TotalAmount, &sale.SoldBy, &sale.SaleDate, &sale.CreatedBy, &sale.UpdatedBy, &sale.CreatedAt, &sale.UpdatedAt); err != nil {
			return nil, 0, err
		}
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range sales {
		sales[i].Lines = lines[sales[i].ID]
	}
	return sales, total, nil
}

// StockLevels proxies to the product table for pre-validation reads.
func (r *Repository) StockLevels(ctx context.Context, ids []int64) (map[int64]products.StockLevel, error) {
	levels := make(map[int64]products.StockLevel, len(ids))
	if len(ids) == 0 {
		return levels, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, stock FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var level products.StockLevel
		if err := rows.Scan(&level.ProductID, &level.Name, &level.Available); err != nil {
			return nil, err
		}
		levels[level.ProductID] = level
	}
	return levels, rows.Err()
}

func (r *Repository) linesFor(ctx context.Context, saleIDs []int64) (map[int64][]LineItem, error) {
	out := make(map[int64][]LineItem, len(saleIDs))
	if len(saleIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT sale_id, product_id, quantity, unit_price, subtotal
FROM `+TableSaleLines+` WHERE sale_id = ANY($1) ORDER BY id ASC`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var saleID int64
		var line LineItem
		if err := rows.Scan(&saleID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		out[saleID] = append(out[saleID], line)
	}
	return out, rows.Err()
}

func (r *txRepository) ApplyAdjustment(ctx context.Context, adj StockAdjustment) error {
	_, err := products.AdjustStockOn(ctx, r.tx, adj.ProductID, adj.Delta)
	return err
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (number, status, total_amount, sold_by, sale_date, created_by, updated_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id`,
		sale.Number, string(sale.Status), sale.TotalAmount, sale.SoldBy, sale.SaleDate, sale.CreatedBy, sale.UpdatedBy).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateSale(ctx context.Context, sale Sale) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sales SET status=$2, total_amount=$3, updated_by=$4, updated_at=NOW() WHERE id=$1`,
		sale.ID, string(sale.Status), sale.TotalAmount, sale.UpdatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, saleID int64, lines []LineItem) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM `+TableSaleLines+` WHERE sale_id=$1`, saleID); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO `+TableSaleLines+` (sale_id, product_id, quantity, unit_price, subtotal)
VALUES ($1,$2,$3,$4,$5)`, saleID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteSale(ctx context.Context, saleID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM `+TableSaleLines+` WHERE sale_id=$1`, saleID); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM sales WHERE id=$1`, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
