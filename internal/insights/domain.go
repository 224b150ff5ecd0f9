package insights

import "time"

// Summary is the dashboard snapshot: today's trading figures plus the
// current stock and staffing picture.
type Summary struct {
	Date             string         `json:"date"`
	RevenueToday     float64        `json:"revenue_today"`
	RevenueDisplay   string         `json:"revenue_display"`
	SalesByStatus    map[string]int `json:"sales_by_status"`
	UnitsSoldToday   int            `json:"units_sold_today"`
	LowStockProducts []LowStock     `json:"low_stock_products"`
	OnDutyCount      int            `json:"on_duty_count"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// LowStock flags a product at or below its minimum stock level.
type LowStock struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"min_stock"`
}
