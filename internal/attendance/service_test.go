package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	records map[int64]Record
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]Record), nextID: 1}
}

func (m *memoryRepo) OpenRecord(ctx context.Context, employeeID int64) (Record, error) {
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID && rec.ClockOut == nil {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *memoryRepo) Insert(ctx context.Context, employeeID int64, clockIn time.Time, note string) (Record, error) {
	rec := Record{ID: m.nextID, EmployeeID: employeeID, ClockIn: clockIn, Note: note}
	m.nextID++
	m.records[rec.ID] = rec
	return rec, nil
}

func (m *memoryRepo) Close(ctx context.Context, recordID int64, clockOut time.Time) (Record, error) {
	rec, ok := m.records[recordID]
	if !ok || rec.ClockOut != nil {
		return Record{}, ErrNotClockedIn
	}
	rec.ClockOut = &clockOut
	m.records[recordID] = rec
	return rec, nil
}

func (m *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Record, int, error) {
	var out []Record
	for _, rec := range m.records {
		if filter.EmployeeID > 0 && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, rec)
	}
	return out, len(out), nil
}

func TestClockInOpensShift(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	rec, err := svc.ClockIn(context.Background(), 5, "opening shift")
	require.NoError(t, err)
	require.True(t, rec.Open())
	require.Equal(t, int64(5), rec.EmployeeID)
}

func TestDoubleClockInRejected(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, 5, "")
	require.NoError(t, err)
	_, err = svc.ClockIn(ctx, 5, "")
	require.ErrorIs(t, err, ErrAlreadyClockedIn)

	// a different employee is unaffected
	_, err = svc.ClockIn(ctx, 6, "")
	require.NoError(t, err)
}

func TestClockOutClosesShift(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.ClockIn(ctx, 5, "")
	require.NoError(t, err)

	closed, err := svc.ClockOut(ctx, 5)
	require.NoError(t, err)
	require.False(t, closed.Open())

	// shift closed, a new one can open
	_, err = svc.ClockIn(ctx, 5, "")
	require.NoError(t, err)
}

func TestClockOutWithoutOpenShift(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.ClockOut(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotClockedIn)
}
