// Package cart holds the shopping cart state machine.
//
// A Cart is an immutable value: every transition returns a new Cart and the
// receiver is never modified, so a snapshot handed to checkout can not change
// underneath it. Lines are keyed by the external catalog product id.
package cart

import (
	"strings"

	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PricePlaces is the number of decimal places prices are snapshotted with.
const PricePlaces = 2

// Product is a catalog listing being added to a cart.
type Product struct {
	ID    string
	Title string
	Price decimal.Decimal
}

// Line is one product-quantity pair held by a cart.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price times quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered set of lines with at most one line per product id.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() Cart {
	return Cart{}
}

// FromLines rebuilds a cart from previously captured lines. Lines with a
// non-positive quantity are dropped and repeated product ids are merged.
func FromLines(lines []Line) Cart {
	c := New()
	for _, l := range lines {
		if l.Quantity <= 0 || l.ProductID == "" {
			continue
		}
		if i := c.index(l.ProductID); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// Add puts one unit of p into the cart. A product already present has its
// quantity incremented; otherwise a new line is created with the title and the
// price rounded to two decimals at this moment. The price is not re-synced later.
func (c Cart) Add(p Product) (Cart, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return c, shared.NewValidationError("Product id is required")
	}
	if p.Price.IsNegative() {
		return c, shared.NewValidationError("Product price cannot be negative")
	}

	next := c.clone()
	if i := next.index(id); i >= 0 {
		next.lines[i].Quantity++
		return next, nil
	}
	next.lines = append(next.lines, Line{
		ProductID: id,
		Name:      p.Title,
		UnitPrice: p.Price.Round(PricePlaces),
		Quantity:  1,
	})
	return next, nil
}

// SetQuantity sets the quantity of an existing line to exactly q.
// q == 0 removes the line; an absent line is left absent.
func (c Cart) SetQuantity(productID string, q int) (Cart, error) {
	if q < 0 {
		return c, shared.NewValidationError("Quantity cannot be negative")
	}
	if q == 0 {
		return c.Remove(productID), nil
	}
	i := c.index(productID)
	if i < 0 {
		return c, nil
	}
	next := c.clone()
	next.lines[i].Quantity = q
	return next, nil
}

// Remove deletes the line for productID if present.
func (c Cart) Remove(productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	next := Cart{lines: make([]Line, 0, len(c.lines)-1)}
	next.lines = append(next.lines, c.lines[:i]...)
	next.lines = append(next.lines, c.lines[i+1:]...)
	return next
}

// Clear returns an empty cart.
func (c Cart) Clear() Cart {
	return New()
}

// Total sums unit price times quantity over all lines and rounds the result
// to two decimals once, at the end.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(PricePlaces)
}

// Lines returns a copy of the cart lines in insertion order.
func (c Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line for productID.
func (c Cart) Line(productID string) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Len returns the number of distinct products in the cart.
func (c Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount returns the sum of all line quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) index(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	lines := make([]Line, len(c.lines), len(c.lines)+1)
	copy(lines, c.lines)
	return Cart{lines: lines}
}
