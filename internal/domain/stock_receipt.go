package domain

import "time"

// StockReceipt records inbound stock. Receipts are append-only.
type StockReceipt struct {
	ID            int64
	ProductID     int64
	AddedQuantity int
	CreatedAt     time.Time
}

// StockTotals are the two sums availability is derived from.
type StockTotals struct {
	Received int
	Reserved int
}

func (t StockTotals) Available() int {
	return AvailableQuantity(t.Received, t.Reserved)
}
