package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/shared"
)

// Repository defines persistence for orders and their line items
type Repository interface {
	// CreateWithLines writes the order header and all of its line items as one unit.
	// Either both are committed or neither is.
	CreateWithLines(ctx context.Context, order *Order, lines []ProductQuantity) error

	// ReplaceLines deletes every line item of the order and inserts lines in one unit.
	// It fails with ErrOrderNotFound when the order does not exist and with
	// catalog.ErrProductNotFound when a referenced product does not exist.
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []ProductQuantity) error

	// FindByID finds an order with its lines and product detail
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindAll finds orders with their lines, newest first by default
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts all orders
	Count(ctx context.Context) (int64, error)

	// Delete deletes an order and its line items
	Delete(ctx context.Context, id uuid.UUID) error
}
