package catalog

import (
	"context"
	"strings"

	"github.com/shopcart/backend/internal/domain/catalog"
)

// BrowseService reads the external product catalog
type BrowseService struct {
	source catalog.Source
}

// NewBrowseService creates a new BrowseService
func NewBrowseService(source catalog.Source) *BrowseService {
	return &BrowseService{source: source}
}

// ListProducts lists catalog products, optionally restricted to one category
func (s *BrowseService) ListProducts(ctx context.Context, category string) ([]ListingResponse, error) {
	listings, err := s.source.ListProducts(ctx, catalog.ListingFilter{Category: strings.TrimSpace(category)})
	if err != nil {
		return nil, err
	}
	out := make([]ListingResponse, len(listings))
	for i := range listings {
		out[i] = ToListingResponse(&listings[i])
	}
	return out, nil
}

// GetProduct returns one catalog product
func (s *BrowseService) GetProduct(ctx context.Context, id string) (*ListingResponse, error) {
	l, err := s.source.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	resp := ToListingResponse(l)
	return &resp, nil
}

// ListCategories lists the catalog categories
func (s *BrowseService) ListCategories(ctx context.Context) ([]string, error) {
	return s.source.ListCategories(ctx)
}
