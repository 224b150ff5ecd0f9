package sales

// StockAdjustment is one ledger operation produced by the planner.
// Positive Delta restores stock, negative Delta deducts.
type StockAdjustment struct {
	ProductID int64
	Delta     int
}

// PlanAdjustments computes the per-product ledger operations needed to move a
// sale from (wasCompleted, oldLines) to (willBeCompleted, newLines).
//
// A product's reserved quantity before the change is its quantity in oldLines
// only if the sale was completed, else zero; after the change it is its
// quantity in newLines only if the sale will be completed, else zero. The
// adjustment is the difference. Folding status and line changes into one
// reservation diff is what guarantees restoration happens exactly once when
// both change in the same request.
//
// The returned slice is deterministic: restorations first, then deductions,
// each in first-appearance order of the product.
func PlanAdjustments(wasCompleted bool, oldLines []LineItem, willBeCompleted bool, newLines []LineItem) []StockAdjustment {
	if !wasCompleted && !willBeCompleted {
		return nil
	}

	type productDelta struct {
		productID int64
		before    int
		after     int
	}
	index := make(map[int64]int)
	var order []productDelta

	touch := func(productID int64) int {
		if pos, ok := index[productID]; ok {
			return pos
		}
		index[productID] = len(order)
		order = append(order, productDelta{productID: productID})
		return len(order) - 1
	}

	if willBeCompleted {
		for _, line := range newLines {
			pos := touch(line.ProductID)
			order[pos].after += line.Quantity
		}
	}
	if wasCompleted {
		for _, line := range oldLines {
			pos := touch(line.ProductID)
			order[pos].before += line.Quantity
		}
	}

	var restores, deducts []StockAdjustment
	for _, pd := range order {
		delta := pd.before - pd.after
		switch {
		case delta > 0:
			restores = append(restores, StockAdjustment{ProductID: pd.productID, Delta: delta})
		case delta < 0:
			deducts = append(deducts, StockAdjustment{ProductID: pd.productID, Delta: delta})
		}
	}
	return append(restores, deducts...)
}

// Deductions filters the plan down to its negative adjustments, keyed by the
// quantity that must be available. Used for read-only pre-validation.
func Deductions(plan []StockAdjustment) []StockAdjustment {
	var out []StockAdjustment
	for _, adj := range plan {
		if adj.Delta < 0 {
			out = append(out, adj)
		}
	}
	return out
}
