package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/opsboard/opsboard/internal/jobs"
	"github.com/opsboard/opsboard/internal/sales"
)

// StockAuditJob cross-checks stored sale and stock figures. All stock
// movement goes through conditional single-statement updates, so any finding
// here points at out-of-band writes to the database.
type StockAuditJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStockAuditJob initialises the stock audit handler.
func NewStockAuditJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockAuditJob {
	return &StockAuditJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the audit.
func (j *StockAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("stock audit: handler not configured")
	}
	var payload StockAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = 50
	}

	tracker := j.metrics().Track(TaskStockAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting stock audit", slog.Int("limit", payload.Limit))

	negative, err := j.negativeStock(ctx, payload.Limit)
	if err != nil {
		resultErr = err
		return resultErr
	}
	for _, f := range negative {
		logger.Error("negative stock detected",
			slog.Int64("product_id", f.ProductID),
			slog.String("sku", f.SKU),
			slog.Int("stock", f.Stock),
		)
	}
	j.metrics().AddFindings(TaskStockAudit, "negative_stock", len(negative))

	badTotals, err := j.mismatchedTotals(ctx, payload.Limit)
	if err != nil {
		resultErr = err
		return resultErr
	}
	for _, saleID := range badTotals {
		logger.Error("sale total does not match line subtotals", slog.Int64("sale_id", saleID))
	}
	j.metrics().AddFindings(TaskStockAudit, "total_mismatch", len(badTotals))

	orphans, err := j.orphanLines(ctx, payload.Limit)
	if err != nil {
		resultErr = err
		return resultErr
	}
	if orphans > 0 {
		logger.Error("orphan sale line items found", slog.Int("count", orphans))
	}
	j.metrics().AddFindings(TaskStockAudit, "orphan_lines", orphans)

	logger.Info("stock audit finished",
		slog.Int("negative_stock", len(negative)),
		slog.Int("total_mismatches", len(badTotals)),
		slog.Int("orphan_lines", orphans),
	)
	return nil
}

type negativeStockFinding struct {
	ProductID int64
	SKU       string
	Stock     int
}

func (j *StockAuditJob) negativeStock(ctx context.Context, limit int) ([]negativeStockFinding, error) {
	rows, err := j.Pool.Query(ctx,
		`SELECT id, sku, stock FROM products WHERE stock < 0 ORDER BY stock LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []negativeStockFinding
	for rows.Next() {
		var f negativeStockFinding
		if err := rows.Scan(&f.ProductID, &f.SKU, &f.Stock); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (j *StockAuditJob) mismatchedTotals(ctx context.Context, limit int) ([]int64, error) {
	const q = `
SELECT s.id
FROM ` + sales.TableSales + ` s
JOIN ` + sales.TableSaleLines + ` li ON li.sale_id = s.id
GROUP BY s.id, s.total_amount
HAVING ABS(s.total_amount - SUM(li.subtotal)) > 0.009
LIMIT $1`
	rows, err := j.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (j *StockAuditJob) orphanLines(ctx context.Context, limit int) (int, error) {
	const q = `
SELECT COUNT(*) FROM (
	SELECT li.id
	FROM ` + sales.TableSaleLines + ` li
	LEFT JOIN ` + sales.TableSales + ` s ON s.id = li.sale_id
	WHERE s.id IS NULL
	LIMIT $1
) orphans`
	var count int
	if err := j.Pool.QueryRow(ctx, q, limit).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (j *StockAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *StockAuditJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
