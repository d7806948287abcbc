package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product registry persistence
type ProductRepository interface {
	// FindByID finds a product by its registry ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds the products with the given registry IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByExternalRef finds the product mapped to an external catalog id
	FindByExternalRef(ctx context.Context, ref string) (*Product, error)

	// FindOrCreateByExternalRef returns the product mapped to candidate's external
	// reference, inserting candidate when no such product exists. The insert is
	// atomic with respect to concurrent callers using the same reference.
	// The boolean reports whether candidate was inserted.
	FindOrCreateByExternalRef(ctx context.Context, candidate *Product) (*Product, bool, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product; it fails with ErrProductInUse while an order references it
	Delete(ctx context.Context, id uuid.UUID) error
}
