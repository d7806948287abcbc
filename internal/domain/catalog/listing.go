package catalog

import (
	"context"

	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrListingNotFound is returned when the external catalog has no product with the id
var ErrListingNotFound = shared.NewNotFoundError("Catalog product not found")

// Listing is a product as the external catalog shows it. ID is an external catalog id
// and never a registry id.
type Listing struct {
	ID       string
	Title    string
	Price    decimal.Decimal
	Rating   float64
	Category string
	Reviews  []ListingReview
}

// ListingReview is a customer review attached to a listing
type ListingReview struct {
	Rating       int
	Comment      string
	ReviewerName string
}

// ListingFilter narrows a listing query. An empty Category lists everything.
type ListingFilter struct {
	Category string
}

// Source reads the external product catalog. It is read-only.
type Source interface {
	ListProducts(ctx context.Context, filter ListingFilter) ([]Listing, error)
	GetProduct(ctx context.Context, id string) (*Listing, error)
	ListCategories(ctx context.Context) ([]string, error)
}
