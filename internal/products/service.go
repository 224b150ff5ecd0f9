package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsboard/opsboard/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates product operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	return s.repo.List(ctx, filter)
}

// Get retrieves a product by ID.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a new product.
func (s *Service) Create(ctx context.Context, product Product, actorID int64) (Product, error) {
	if err := validate(product); err != nil {
		return Product{}, err
	}
	if product.Stock < 0 {
		return Product{}, errors.New("products: initial stock must be >= 0")
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, actorID, "products:create", created.ID, map[string]any{"sku": created.SKU, "stock": created.Stock})
	return created, nil
}

// Update modifies descriptive fields of an existing product. Stock is not an
// updatable field; only the ledger moves it.
func (s *Service) Update(ctx context.Context, id int64, product Product, actorID int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	if err := validate(product); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return Product{}, err
	}
	s.record(ctx, actorID, "products:update", id, map[string]any{"sku": product.SKU})
	return s.repo.Get(ctx, id)
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "products:delete", id, nil)
	return nil
}

// AdjustStock applies a manual stock correction (restock or shrinkage).
// Deductions go through the same conditional guard sales use.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int, actorID int64) (Product, error) {
	if delta == 0 {
		return Product{}, ErrInvalidDelta
	}
	updated, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, actorID, "products:adjust-stock", id, map[string]any{"delta": delta, "stock": updated.Stock})
	return updated, nil
}

func validate(product Product) error {
	if strings.TrimSpace(product.SKU) == "" {
		return errors.New("products: sku required")
	}
	if strings.TrimSpace(product.Name) == "" {
		return errors.New("products: name required")
	}
	if product.Price < 0 {
		return errors.New("products: price must be >= 0")
	}
	if product.MinStock < 0 {
		return errors.New("products: min stock must be >= 0")
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, productID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "product",
		EntityID: fmt.Sprintf("%d", productID),
		Meta:     meta,
	})
}
