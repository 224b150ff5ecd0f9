package sales

import "testing"

// The table constants are shared with the seed schema, the insights queries,
// and the stock audit job. Renaming one without migrating the database would
// break every production sale write, so the deployed names are pinned here.
func TestTableNamesMatchDeployedSchema(t *testing.T) {
	if TableSales != "sales" {
		t.Fatalf("sales table renamed to %q", TableSales)
	}
	if TableSaleLines != "sale_line_items" {
		t.Fatalf("sale line items table renamed to %q", TableSaleLines)
	}
}
