package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type CartState string

const (
	CartStateActive   CartState = "active"
	CartStateOrdered  CartState = "ordered"
	CartStateCanceled CartState = "canceled"
	CartStatePaid     CartState = "paid"
)

// ParseCartState accepts only the four known states.
func ParseCartState(s string) (CartState, error) {
	switch CartState(s) {
	case CartStateActive, CartStateOrdered, CartStateCanceled, CartStatePaid:
		return CartState(s), nil
	}
	return "", fmt.Errorf("unknown cart state %q", s)
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Only checkout (active -> ordered) is implemented; canceled and paid are
// recognized so stored rows still load.
func (s CartState) CanTransitionTo(next CartState) bool {
	return s == CartStateActive && next == CartStateOrdered
}

type Cart struct {
	ID        int64
	UserID    int64
	State     CartState
	Sum       decimal.Decimal
	UpdatedAt time.Time
}

func (c Cart) IsActive() bool {
	return c.State == CartStateActive
}

// CartSnapshot is a cart together with its current lines.
type CartSnapshot struct {
	Cart  Cart
	Lines []CartLineDetail
}

// ComputeCartSum returns sum(quantity x price) over lines.
func ComputeCartSum(lines []CartLineDetail) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
