package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type AddToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

// UpdateQuantityRequest.Quantity is checked by the reservation service, which
// reports values below 1 as INVALID_QUANTITY.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartLineProductDTO struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Unit  string          `json:"unit"`
}

type CartLineDTO struct {
	ID             int64              `json:"id"`
	ShoppingCartID int64              `json:"shoppingCartId"`
	UserID         int64              `json:"userId"`
	ProductID      int64              `json:"productId"`
	Quantity       int                `json:"quantity"`
	Product        CartLineProductDTO `json:"product"`
}

type CartDTO struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Sum       decimal.Decimal `json:"sum"`
	State     string          `json:"state"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Products  []CartLineDTO   `json:"products"`
}

type UpdatedProductDTO struct {
	ID            int64 `json:"id"`
	StockQuantity int   `json:"stockQuantity"`
}

type CartMutationResponse struct {
	TraceID        string             `json:"traceId"`
	Success        bool               `json:"success"`
	Cart           CartDTO            `json:"cart"`
	UpdatedProduct *UpdatedProductDTO `json:"updatedProduct,omitempty"`
}
