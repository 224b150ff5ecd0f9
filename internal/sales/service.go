package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/products"
	"github.com/opsboard/opsboard/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort receives stock ledger counters. Optional.
type MetricsPort interface {
	StockDeducted(units int)
	StockRestored(units int)
	InsufficientStock()
}

// Service coordinates sale operations and owns the sale-to-inventory
// consistency rules. Every stock mutation it causes goes through the ledger
// primitive, and all ledger operations of one request share a transaction
// with the sale write, so they commit or roll back as a unit.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	metrics MetricsPort
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics, logger: logger}
}

// Create validates, prices and persists a new sale. When the initial status
// is completed every line item must pass the conditional deduction; any
// failure aborts the whole create.
func (s *Service) Create(ctx context.Context, input CreateSaleInput) (Sale, error) {
	status := input.Status
	if status == "" {
		status = StatusCompleted
	}
	if !status.Valid() {
		return Sale{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	lines, total, err := BuildLines(input.Lines)
	if err != nil {
		return Sale{}, err
	}

	plan := PlanAdjustments(false, nil, status == StatusCompleted, lines)
	if err := s.preValidate(ctx, plan); err != nil {
		return Sale{}, err
	}

	saleDate := input.SaleDate
	if saleDate.IsZero() {
		saleDate = time.Now().UTC()
	}
	soldBy := input.SoldBy
	if soldBy == 0 {
		soldBy = input.ActorID
	}
	sale := Sale{
		Number:      newSaleNumber(saleDate),
		Status:      status,
		Lines:       lines,
		TotalAmount: total,
		SoldBy:      soldBy,
		SaleDate:    saleDate,
		CreatedBy:   input.ActorID,
		UpdatedBy:   input.ActorID,
	}

	var saleID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.applyPlan(ctx, tx, plan); err != nil {
			return err
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		saleID = id
		if err := tx.ReplaceLines(ctx, id, lines); err != nil {
			return fmt.Errorf("insert sale lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	s.record(ctx, input.ActorID, "sales:create", saleID, map[string]any{
		"status": string(status),
		"total":  total,
		"lines":  len(lines),
	})
	return s.repo.GetSale(ctx, saleID)
}

// Update applies a status change, a line-item replacement, or both. The
// reservation diff computed by PlanAdjustments guarantees old-line stock is
// restored exactly once even when status and lines change together.
func (s *Service) Update(ctx context.Context, id int64, input UpdateSaleInput) (Sale, error) {
	existing, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return Sale{}, err
	}

	newStatus := existing.Status
	if input.Status != nil {
		newStatus = *input.Status
		if !newStatus.Valid() {
			return Sale{}, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
		}
	}

	newLines := existing.Lines
	newTotal := existing.TotalAmount
	linesChanged := false
	if input.Lines != nil {
		if !input.CanEditLines {
			return Sale{}, ErrLineEditForbidden
		}
		newLines, newTotal, err = BuildLines(*input.Lines)
		if err != nil {
			return Sale{}, err
		}
		linesChanged = true
	}

	wasCompleted := existing.Status == StatusCompleted
	willBeCompleted := newStatus == StatusCompleted
	plan := PlanAdjustments(wasCompleted, existing.Lines, willBeCompleted, newLines)
	if err := s.preValidate(ctx, plan); err != nil {
		return Sale{}, err
	}

	updated := existing
	updated.Status = newStatus
	updated.Lines = newLines
	updated.TotalAmount = newTotal
	updated.UpdatedBy = input.ActorID

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.applyPlan(ctx, tx, plan); err != nil {
			return err
		}
		if err := tx.UpdateSale(ctx, updated); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		if linesChanged {
			if err := tx.ReplaceLines(ctx, id, newLines); err != nil {
				return fmt.Errorf("replace sale lines: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	s.record(ctx, input.ActorID, "sales:update", id, map[string]any{
		"status":        string(newStatus),
		"lines_changed": linesChanged,
		"total":         newTotal,
	})
	return s.repo.GetSale(ctx, id)
}

// Delete reverses the stock effect of a completed sale and removes the
// record. The restoration and the delete share a transaction; if any
// restoration fails the record is kept, so an un-reversed deduction is never
// silently lost.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	existing, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return err
	}

	plan := PlanAdjustments(existing.Status == StatusCompleted, existing.Lines, false, nil)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.applyPlan(ctx, tx, plan); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actorID, "sales:delete", id, map[string]any{
		"status": string(existing.Status),
		"lines":  len(existing.Lines),
	})
	return nil
}

// Get retrieves a sale by ID.
func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// List returns a paginated list of sales.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	return s.repo.ListSales(ctx, filter)
}

// preValidate checks every planned deduction against current availability
// before any mutation, so the common shortfall path fails without opening a
// transaction. The conditional ledger guard remains the authority: a
// concurrent deduction between this check and the apply still fails safely
// inside the transaction.
func (s *Service) preValidate(ctx context.Context, plan []StockAdjustment) error {
	deductions := Deductions(plan)
	if len(deductions) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(deductions))
	for _, d := range deductions {
		ids = append(ids, d.ProductID)
	}
	levels, err := s.repo.StockLevels(ctx, ids)
	if err != nil {
		return fmt.Errorf("stock levels: %w", err)
	}
	for _, d := range deductions {
		level, ok := levels[d.ProductID]
		if !ok {
			return fmt.Errorf("product %d: %w", d.ProductID, products.ErrNotFound)
		}
		requested := -d.Delta
		if level.Available < requested {
			if s.metrics != nil {
				s.metrics.InsufficientStock()
			}
			return &products.InsufficientStockError{
				ProductID: d.ProductID,
				Name:      level.Name,
				Available: level.Available,
				Requested: requested,
			}
		}
	}
	return nil
}

// applyPlan executes the ledger operations in order. On failure it logs the
// already-applied prefix: the surrounding transaction rolls those back here,
// and a ledger without multi-operation atomicity would need the trail for
// manual reconciliation.
func (s *Service) applyPlan(ctx context.Context, tx TxRepository, plan []StockAdjustment) error {
	for i, adj := range plan {
		if err := tx.ApplyAdjustment(ctx, adj); err != nil {
			var insufficient *products.InsufficientStockError
			if errors.As(err, &insufficient) {
				if s.metrics != nil {
					s.metrics.InsufficientStock()
				}
			}
			if s.logger != nil {
				s.logger.Warn("stock adjustment rejected",
					slog.Int64("product_id", adj.ProductID),
					slog.Int("delta", adj.Delta),
					slog.Int("applied_before_failure", i),
					slog.Any("error", err),
				)
			}
			return err
		}
		if s.metrics != nil {
			if adj.Delta < 0 {
				s.metrics.StockDeducted(-adj.Delta)
			} else {
				s.metrics.StockRestored(adj.Delta)
			}
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, saleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", saleID),
		Meta:     meta,
	})
}

func newSaleNumber(saleDate time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("SAL-%s-%s", saleDate.Format("20060102"), suffix)
}
