package sales

// BuildLines validates raw line inputs and prices them. It is a pure
// function: subtotal = quantity * unit price per line, total = sum of
// subtotals. Returns a ValidationError naming the first offending line.
func BuildLines(inputs []LineInput) ([]LineItem, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, &ValidationError{Reason: "at least one line item required"}
	}
	lines := make([]LineItem, 0, len(inputs))
	var total float64
	for i, in := range inputs {
		if in.ProductID <= 0 {
			return nil, 0, &ValidationError{Line: i + 1, Reason: "product required"}
		}
		if in.Quantity <= 0 {
			return nil, 0, &ValidationError{Line: i + 1, Reason: "quantity must be positive"}
		}
		if in.UnitPrice < 0 {
			return nil, 0, &ValidationError{Line: i + 1, Reason: "unit price must be >= 0"}
		}
		subtotal := float64(in.Quantity) * in.UnitPrice
		lines = append(lines, LineItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	return lines, total, nil
}
