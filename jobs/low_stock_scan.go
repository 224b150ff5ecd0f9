package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/opsboard/opsboard/internal/jobs"
)

// LowStockScanJob reports active products at or below their minimum stock so
// restocking can happen before a sale hits the insufficient-stock guard.
type LowStockScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockScanJob initialises the low stock scan handler.
func NewLowStockScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = 100
	}

	tracker := j.metrics().Track(TaskLowStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()

	const q = `
SELECT id, sku, name, stock, min_stock
FROM products
WHERE is_active AND stock <= min_stock
ORDER BY stock - min_stock
LIMIT $1`
	rows, err := j.Pool.Query(ctx, q, payload.Limit)
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			id              int64
			sku, name       string
			stock, minStock int
		)
		if err := rows.Scan(&id, &sku, &name, &stock, &minStock); err != nil {
			resultErr = err
			return resultErr
		}
		count++
		logger.Warn("product below minimum stock",
			slog.Int64("product_id", id),
			slog.String("sku", sku),
			slog.String("name", name),
			slog.Int("stock", stock),
			slog.Int("min_stock", minStock),
		)
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	j.metrics().AddFindings(TaskLowStockScan, "low_stock", count)
	logger.Info("low stock scan finished", slog.Int("flagged", count))
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
