package sales

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func line(productID int64, qty int) LineItem {
	return LineItem{ProductID: productID, Quantity: qty}
}

func TestPlanAdjustmentsStatusTransitions(t *testing.T) {
	lines := []LineItem{line(1, 3)}

	t.Run("pending to completed deducts", func(t *testing.T) {
		plan := PlanAdjustments(false, lines, true, lines)
		require.Equal(t, []StockAdjustment{{ProductID: 1, Delta: -3}}, plan)
	})
	t.Run("completed to cancelled restores", func(t *testing.T) {
		plan := PlanAdjustments(true, lines, false, lines)
		require.Equal(t, []StockAdjustment{{ProductID: 1, Delta: 3}}, plan)
	})
	t.Run("pending to cancelled is a no-op", func(t *testing.T) {
		require.Nil(t, PlanAdjustments(false, lines, false, lines))
	})
	t.Run("completed to completed same lines is a no-op", func(t *testing.T) {
		require.Empty(t, PlanAdjustments(true, lines, true, lines))
	})
}

func TestPlanAdjustmentsLineEdits(t *testing.T) {
	t.Run("quantity increase deducts the difference", func(t *testing.T) {
		plan := PlanAdjustments(true, []LineItem{line(1, 3)}, true, []LineItem{line(1, 5)})
		require.Equal(t, []StockAdjustment{{ProductID: 1, Delta: -2}}, plan)
	})
	t.Run("quantity decrease restores the difference", func(t *testing.T) {
		plan := PlanAdjustments(true, []LineItem{line(1, 5)}, true, []LineItem{line(1, 1)})
		require.Equal(t, []StockAdjustment{{ProductID: 1, Delta: 4}}, plan)
	})
	t.Run("product swap restores old and deducts new", func(t *testing.T) {
		plan := PlanAdjustments(true, []LineItem{line(1, 1)}, true, []LineItem{line(2, 3)})
		require.Equal(t, []StockAdjustment{
			{ProductID: 1, Delta: 1},
			{ProductID: 2, Delta: -3},
		}, plan)
	})
	t.Run("duplicate product lines aggregate", func(t *testing.T) {
		plan := PlanAdjustments(false, nil, true, []LineItem{line(1, 2), line(1, 3)})
		require.Equal(t, []StockAdjustment{{ProductID: 1, Delta: -5}}, plan)
	})
}

// Changing status and line items together must restore the old reservation
// exactly once, never per-change.
func TestPlanAdjustmentsSimultaneousStatusAndLines(t *testing.T) {
	t.Run("completed to cancelled with new lines restores old only", func(t *testing.T) {
		plan := PlanAdjustments(true, []LineItem{line(1, 4)}, false, []LineItem{line(2, 9)})
		require.Equal(t, []StockAdjustment{{ProductID: 1, Delta: 4}}, plan)
	})
	t.Run("pending to completed with new lines deducts new only", func(t *testing.T) {
		plan := PlanAdjustments(false, []LineItem{line(1, 4)}, true, []LineItem{line(2, 2)})
		require.Equal(t, []StockAdjustment{{ProductID: 2, Delta: -2}}, plan)
	})
	t.Run("stay completed while swapping overlapping lines nets out", func(t *testing.T) {
		plan := PlanAdjustments(true,
			[]LineItem{line(1, 3), line(2, 2)},
			true,
			[]LineItem{line(2, 5), line(3, 1)})
		require.ElementsMatch(t, []StockAdjustment{
			{ProductID: 1, Delta: 3},
			{ProductID: 2, Delta: -3},
			{ProductID: 3, Delta: -1},
		}, plan)
		// restorations come before deductions
		require.Equal(t, StockAdjustment{ProductID: 1, Delta: 3}, plan[0])
	})
}

func TestDeductionsFiltersRestorations(t *testing.T) {
	plan := []StockAdjustment{
		{ProductID: 1, Delta: 2},
		{ProductID: 2, Delta: -3},
		{ProductID: 3, Delta: -1},
	}
	require.Equal(t, []StockAdjustment{
		{ProductID: 2, Delta: -3},
		{ProductID: 3, Delta: -1},
	}, Deductions(plan))
	require.Empty(t, Deductions(nil))
}
