package cart

import (
	"github.com/shopcart/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// CartResponse is the current content of a user's cart
type CartResponse struct {
	Items     []cart.Line     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// AddItemRequest adds one unit of an external catalog product
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// SetQuantityRequest sets the quantity of a cart line; 0 removes it
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// ToCartResponse converts a cart value
func ToCartResponse(c cart.Cart) CartResponse {
	return CartResponse{
		Items:     c.Lines(),
		Total:     c.Total(),
		ItemCount: c.ItemCount(),
	}
}
