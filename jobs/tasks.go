package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockAudit verifies stored sale and stock figures against each other.
	TaskStockAudit = "stock:audit"
	// TaskLowStockScan flags products at or below their minimum stock.
	TaskLowStockScan = "stock:low-scan"
)

// StockAuditPayload tunes a stock audit run.
type StockAuditPayload struct {
	// Limit caps how many findings are reported per category. Zero means
	// the default.
	Limit int `json:"limit"`
}

// NewStockAuditTask constructs an Asynq task.
func NewStockAuditTask(payload StockAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockAudit, data), nil
}

// LowStockScanPayload tunes a low stock scan run.
type LowStockScanPayload struct {
	Limit int `json:"limit"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}
