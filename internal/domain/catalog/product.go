package catalog

import (
	"strings"

	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	maxTitleLength       = 200
	maxExternalRefLength = 100
	minRating            = 0.0
	maxRating            = 5.0
)

// Product registry errors
var (
	ErrProductNotFound = shared.NewNotFoundError("Product not found")
	ErrProductInUse    = shared.NewDomainError(shared.CodeConflict, "Product is referenced by an order")
)

// Product is a product owned by the registry.
// ExternalRef, when set, is the id the product carries in the external catalog
// and is unique across the registry.
type Product struct {
	shared.BaseEntity
	ExternalRef *string
	Title       string
	Price       decimal.Decimal
	Rating      *float64
}

// NewProduct creates a registry product with no external mapping
func NewProduct(title string, price decimal.Decimal) (*Product, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Title:      title,
		Price:      price.Round(2),
	}, nil
}

// NewProductFromExternal creates a registry product mapped to an external catalog id
func NewProductFromExternal(externalRef, title string, price decimal.Decimal) (*Product, error) {
	p, err := NewProduct(title, price)
	if err != nil {
		return nil, err
	}
	if err := p.SetExternalRef(externalRef); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable fields of the product
func (p *Product) Update(title string, price decimal.Decimal, rating *float64) error {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	if err := validateRating(rating); err != nil {
		return err
	}
	p.Title = title
	p.Price = price.Round(2)
	p.Rating = rating
	p.Touch()
	return nil
}

// SetRating sets or clears the rating
func (p *Product) SetRating(rating *float64) error {
	if err := validateRating(rating); err != nil {
		return err
	}
	p.Rating = rating
	p.Touch()
	return nil
}

// SetExternalRef maps the product to an external catalog id
func (p *Product) SetExternalRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return shared.NewValidationError("External reference cannot be empty")
	}
	if len(ref) > maxExternalRefLength {
		return shared.NewValidationError("External reference cannot exceed 100 characters")
	}
	p.ExternalRef = &ref
	p.Touch()
	return nil
}

// HasExternalRef reports whether the product is mapped to the external catalog
func (p *Product) HasExternalRef() bool {
	return p.ExternalRef != nil && *p.ExternalRef != ""
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewValidationError("Product title cannot be empty")
	}
	if len(title) > maxTitleLength {
		return shared.NewValidationError("Product title cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewValidationError("Product price cannot be negative")
	}
	return nil
}

func validateRating(rating *float64) error {
	if rating == nil {
		return nil
	}
	if *rating < minRating || *rating > maxRating {
		return shared.NewValidationError("Product rating must be between 0 and 5")
	}
	return nil
}
