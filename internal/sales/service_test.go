package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsboard/opsboard/internal/products"
	"github.com/opsboard/opsboard/internal/shared"
)

// memoryRepo implements RepositoryPort and TxRepository over maps. WithTx
// holds a mutex for the whole function and restores a snapshot on error, so
// it mirrors the transactional all-or-nothing behaviour of the real
// repository, including serialised last-unit races.
type memoryRepo struct {
	mu     sync.Mutex
	stock  map[int64]int
	names  map[int64]string
	sales  map[int64]Sale
	nextID int64
}

func newMemoryRepo(stock map[int64]int) *memoryRepo {
	names := make(map[int64]string, len(stock))
	for id := range stock {
		names[id] = "product"
	}
	return &memoryRepo{
		stock:  stock,
		names:  names,
		sales:  make(map[int64]Sale),
		nextID: 1,
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stockBefore := make(map[int64]int, len(m.stock))
	for id, qty := range m.stock {
		stockBefore[id] = qty
	}
	salesBefore := make(map[int64]Sale, len(m.sales))
	for id, sale := range m.sales {
		salesBefore[id] = sale
	}
	idBefore := m.nextID

	if err := fn(ctx, (*memoryTx)(m)); err != nil {
		m.stock = stockBefore
		m.sales = salesBefore
		m.nextID = idBefore
		return err
	}
	return nil
}

func (m *memoryRepo) GetSale(ctx context.Context, id int64) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, ok := m.sales[id]
	if !ok {
		return Sale{}, ErrNotFound
	}
	return sale, nil
}

func (m *memoryRepo) ListSales(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sale
	for _, sale := range m.sales {
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		out = append(out, sale)
	}
	return out, len(out), nil
}

func (m *memoryRepo) StockLevels(ctx context.Context, ids []int64) (map[int64]products.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := make(map[int64]products.StockLevel)
	for _, id := range ids {
		qty, ok := m.stock[id]
		if !ok {
			continue
		}
		levels[id] = products.StockLevel{ProductID: id, Name: m.names[id], Available: qty}
	}
	return levels, nil
}

// memoryTx reuses memoryRepo state under the lock WithTx already holds.
type memoryTx memoryRepo

func (m *memoryTx) ApplyAdjustment(ctx context.Context, adj StockAdjustment) error {
	available, ok := m.stock[adj.ProductID]
	if !ok {
		return products.ErrNotFound
	}
	if adj.Delta < 0 && available < -adj.Delta {
		return &products.InsufficientStockError{
			ProductID: adj.ProductID,
			Name:      m.names[adj.ProductID],
			Available: available,
			Requested: -adj.Delta,
		}
	}
	m.stock[adj.ProductID] = available + adj.Delta
	return nil
}

func (m *memoryTx) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	sale.ID = m.nextID
	m.nextID++
	sale.CreatedAt = time.Now()
	sale.UpdatedAt = sale.CreatedAt
	m.sales[sale.ID] = sale
	return sale.ID, nil
}

func (m *memoryTx) UpdateSale(ctx context.Context, sale Sale) error {
	existing, ok := m.sales[sale.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = sale.Status
	existing.TotalAmount = sale.TotalAmount
	existing.UpdatedBy = sale.UpdatedBy
	existing.UpdatedAt = time.Now()
	m.sales[sale.ID] = existing
	return nil
}

func (m *memoryTx) ReplaceLines(ctx context.Context, saleID int64, lines []LineItem) error {
	sale, ok := m.sales[saleID]
	if !ok {
		return ErrNotFound
	}
	sale.Lines = append([]LineItem(nil), lines...)
	m.sales[saleID] = sale
	return nil
}

func (m *memoryTx) DeleteSale(ctx context.Context, saleID int64) error {
	if _, ok := m.sales[saleID]; !ok {
		return ErrNotFound
	}
	delete(m.sales, saleID)
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return nil
}

func (m *memoryRepo) available(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id]
}

func newTestService(repo *memoryRepo) (*Service, *recordingAudit) {
	audit := &recordingAudit{}
	return NewService(repo, audit, nil, nil), audit
}

func TestCreateCompletedSaleDeductsStock(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10})
	svc, audit := newTestService(repo)

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		Lines:   []LineInput{{ProductID: 1, Quantity: 3, UnitPrice: 2}},
		ActorID: 42,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, sale.Status)
	require.Equal(t, 6.0, sale.TotalAmount)
	require.Equal(t, 7, repo.available(1))
	require.Contains(t, sale.Number, "SAL-")
	require.Equal(t, []string{"sales:create"}, audit.actions)
}

func TestCreatePendingSaleLeavesStockAlone(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10})
	svc, _ := newTestService(repo)

	sale, err := svc.Create(context.Background(), CreateSaleInput{
		Lines:  []LineInput{{ProductID: 1, Quantity: 3, UnitPrice: 2}},
		Status: StatusPending,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, sale.Status)
	require.Equal(t, 10, repo.available(1))
}

func TestCreateRejectsInsufficientStock(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 2})
	svc, audit := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateSaleInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 3, UnitPrice: 2}},
	})
	var insufficient *products.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 2, insufficient.Available)
	require.Equal(t, 3, insufficient.Requested)
	require.Equal(t, 2, repo.available(1))
	require.Empty(t, audit.actions)
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 5})
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateSaleInput{
		Lines: []LineInput{{ProductID: 99, Quantity: 1, UnitPrice: 1}},
	})
	require.ErrorIs(t, err, products.ErrNotFound)
}

func TestCreateFailureLeavesNoPartialDeduction(t *testing.T) {
	// Two lines; the second cannot be satisfied. The first line's deduction
	// must not survive.
	repo := newMemoryRepo(map[int64]int{1: 10, 2: 1})
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateSaleInput{
		Lines: []LineInput{
			{ProductID: 1, Quantity: 2, UnitPrice: 1},
			{ProductID: 2, Quantity: 5, UnitPrice: 1},
		},
	})
	var insufficient *products.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 10, repo.available(1))
	require.Equal(t, 1, repo.available(2))
	_, total, err := repo.ListSales(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestStatusRoundTripRestoresStock(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 4, UnitPrice: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, repo.available(1))

	cancelled := StatusCancelled
	sale, err = svc.Update(ctx, sale.ID, UpdateSaleInput{Status: &cancelled})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, sale.Status)
	require.Equal(t, 10, repo.available(1))

	completed := StatusCompleted
	sale, err = svc.Update(ctx, sale.ID, UpdateSaleInput{Status: &completed})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, sale.Status)
	require.Equal(t, 6, repo.available(1))
}

func TestUpdateLineEditsAdjustByDifference(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10, 2: 10})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 3, UnitPrice: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, repo.available(1))

	edit := func(lines []LineInput) Sale {
		t.Helper()
		sale, err = svc.Update(ctx, sale.ID, UpdateSaleInput{
			Lines:        &lines,
			CanEditLines: true,
		})
		require.NoError(t, err)
		return sale
	}

	edit([]LineInput{{ProductID: 1, Quantity: 5, UnitPrice: 2}})
	require.Equal(t, 5, repo.available(1))

	edit([]LineInput{{ProductID: 1, Quantity: 1, UnitPrice: 2}})
	require.Equal(t, 9, repo.available(1))

	sale = edit([]LineInput{{ProductID: 2, Quantity: 3, UnitPrice: 4}})
	require.Equal(t, 10, repo.available(1))
	require.Equal(t, 7, repo.available(2))
	require.Equal(t, 12.0, sale.TotalAmount)
}

func TestUpdateLineEditRequiresCapability(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 2, UnitPrice: 1}},
	})
	require.NoError(t, err)

	lines := []LineInput{{ProductID: 1, Quantity: 5, UnitPrice: 1}}
	_, err = svc.Update(ctx, sale.ID, UpdateSaleInput{Lines: &lines})
	require.ErrorIs(t, err, ErrLineEditForbidden)
	require.Equal(t, 8, repo.available(1))

	// status-only updates stay open to callers without the capability
	cancelled := StatusCancelled
	_, err = svc.Update(ctx, sale.ID, UpdateSaleInput{Status: &cancelled})
	require.NoError(t, err)
	require.Equal(t, 10, repo.available(1))
}

func TestUpdateStatusAndLinesTogetherRestoresOnce(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10, 2: 10})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 4, UnitPrice: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, repo.available(1))

	cancelled := StatusCancelled
	lines := []LineInput{{ProductID: 2, Quantity: 9, UnitPrice: 1}}
	sale, err = svc.Update(ctx, sale.ID, UpdateSaleInput{
		Status:       &cancelled,
		Lines:        &lines,
		CanEditLines: true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, sale.Status)
	// old reservation of product 1 restored exactly once, product 2
	// untouched because the sale is no longer completed
	require.Equal(t, 10, repo.available(1))
	require.Equal(t, 10, repo.available(2))
}

func TestUpdateInsufficientStockRollsBackEverything(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10, 2: 1})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 3, UnitPrice: 1}},
	})
	require.NoError(t, err)

	lines := []LineInput{{ProductID: 2, Quantity: 5, UnitPrice: 1}}
	_, err = svc.Update(ctx, sale.ID, UpdateSaleInput{
		Lines:        &lines,
		CanEditLines: true,
	})
	var insufficient *products.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	after, err := svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.Equal(t, sale.Lines, after.Lines)
	require.Equal(t, 7, repo.available(1))
	require.Equal(t, 1, repo.available(2))
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines: []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: 1}},
	})
	require.NoError(t, err)

	bogus := Status("refunded")
	_, err = svc.Update(ctx, sale.ID, UpdateSaleInput{Status: &bogus})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDeleteCompletedSaleRestoresStock(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10})
	svc, audit := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines:   []LineInput{{ProductID: 1, Quantity: 4, UnitPrice: 1}},
		ActorID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, 6, repo.available(1))

	require.NoError(t, svc.Delete(ctx, sale.ID, 7))
	require.Equal(t, 10, repo.available(1))
	_, err = svc.Get(ctx, sale.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, []string{"sales:create", "sales:delete"}, audit.actions)
}

func TestDeletePendingSaleTouchesNoStock(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 10})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	sale, err := svc.Create(ctx, CreateSaleInput{
		Lines:  []LineInput{{ProductID: 1, Quantity: 4, UnitPrice: 1}},
		Status: StatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sale.ID, 0))
	require.Equal(t, 10, repo.available(1))
}

func TestDeleteMissingSale(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{})
	svc, _ := newTestService(repo)
	require.ErrorIs(t, svc.Delete(context.Background(), 123, 0), ErrNotFound)
}

// Two concurrent completed sales fight over the last unit. Exactly one may
// win; stock must never go negative.
func TestConcurrentLastUnit(t *testing.T) {
	repo := newMemoryRepo(map[int64]int{1: 1})
	svc, _ := newTestService(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, CreateSaleInput{
				Lines: []LineInput{{ProductID: 1, Quantity: 1, UnitPrice: 1}},
			})
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range errs {
		if err != nil {
			var insufficient *products.InsufficientStockError
			require.True(t, errors.As(err, &insufficient), "unexpected error: %v", err)
			failures++
		}
	}
	require.Equal(t, 1, failures)
	require.Equal(t, 0, repo.available(1))
	_, total, err := repo.ListSales(ctx, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}
