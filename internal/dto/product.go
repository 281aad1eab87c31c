package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductDTO struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	StockQuantity    int             `json:"stockQuantity"`
	MinStockQuantity int             `json:"minStockQuantity"`
	Unit             string          `json:"unit"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type AvailableQuantityResponse struct {
	ProductID         int64 `json:"productId"`
	AvailableQuantity int   `json:"availableQuantity"`
}

type CreateProductRequest struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Price            decimal.Decimal `json:"price"`
	Unit             string          `json:"unit" validate:"required,max=20"`
	MinStockQuantity int             `json:"minStockQuantity" validate:"gte=0"`
}

type RestockRequest struct {
	Quantity int `json:"quantity"`
}

type StockReceiptResponse struct {
	ID                int64     `json:"id"`
	ProductID         int64     `json:"productId"`
	AddedQuantity     int       `json:"addedQuantity"`
	CreatedAt         time.Time `json:"createdAt"`
	AvailableQuantity int       `json:"availableQuantity"`
}
