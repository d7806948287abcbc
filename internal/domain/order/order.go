// Package order models committed orders and their line items.
package order

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned when an order id does not resolve
var ErrOrderNotFound = shared.NewNotFoundError("Order not found")

// Order is an order header. Its content lives entirely in its lines.
type Order struct {
	shared.BaseEntity
	Lines []Line
}

// Line binds a registry product to an order at a quantity.
// Product is populated when the order is read back from the store.
type Line struct {
	ProductID uuid.UUID
	Product   *catalog.Product
	Quantity  int
}

// ProductQuantity is the write-side shape of a line item
type ProductQuantity struct {
	ProductID uuid.UUID
	Quantity  int
}

// NewOrder creates an empty order header
func NewOrder() *Order {
	return &Order{BaseEntity: shared.NewBaseEntity()}
}

// Total returns the order value from the current product prices, rounded to two decimals
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		if l.Product == nil {
			continue
		}
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2)
}

// ItemCount returns the sum of line quantities
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// ValidateLines checks a set of line items before it is written.
// Every line needs a product and a quantity of at least one, and a product may
// appear only once since (order, product) identifies a line.
func ValidateLines(lines []ProductQuantity) error {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for i, l := range lines {
		if l.ProductID == uuid.Nil {
			return shared.NewValidationError(fmt.Sprintf("products[%d]: product id is required", i))
		}
		if l.Quantity < 1 {
			return shared.NewValidationError(fmt.Sprintf("products[%d]: quantity must be at least 1", i))
		}
		if _, dup := seen[l.ProductID]; dup {
			return shared.NewValidationError(fmt.Sprintf("products[%d]: product %s is listed more than once", i, l.ProductID))
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

// ProductIDs returns the product ids referenced by lines, in order
func ProductIDs(lines []ProductQuantity) []uuid.UUID {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}
