package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID               int64
	Name             string
	Price            decimal.Decimal
	Unit             string
	MinStockQuantity int
	UpdatedAt        time.Time
}

// IsLowStock reports whether available has dropped to or below the product's
// minimum stock threshold.
func (p Product) IsLowStock(available int) bool {
	return available <= p.MinStockQuantity
}

// ProductStock is a product with its availability at read time.
type ProductStock struct {
	Product
	AvailableQuantity int
}
