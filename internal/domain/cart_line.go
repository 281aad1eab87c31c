package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a reservation of Quantity units of a product inside a cart.
// A cart holds at most one line per product.
type CartLine struct {
	ID        int64
	CartID    int64
	UserID    int64
	ProductID int64
	Quantity  int
	UpdatedAt time.Time
}

// CartLineDetail joins a line with the product fields shown to customers.
type CartLineDetail struct {
	CartLine
	ProductName  string
	ProductPrice decimal.Decimal
	ProductUnit  string
}

func (l CartLineDetail) Subtotal() decimal.Decimal {
	return l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
