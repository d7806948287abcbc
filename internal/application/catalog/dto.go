package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a registry product
type CreateProductRequest struct {
	Title       string           `json:"title" binding:"required,min=1,max=200"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Rating      *float64         `json:"rating" binding:"omitempty,min=0,max=5"`
	ExternalRef *string          `json:"externalRef" binding:"omitempty,min=1,max=100"`
}

// UpdateProductRequest represents a request to update a registry product.
// Omitted fields keep their current value.
type UpdateProductRequest struct {
	Title  *string          `json:"title" binding:"omitempty,min=1,max=200"`
	Price  *decimal.Decimal `json:"price"`
	Rating *float64         `json:"rating" binding:"omitempty,min=0,max=5"`
}

// ProductResponse represents a registry product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	ExternalRef *string         `json:"externalRef"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Rating      *float64        `json:"rating"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductListFilter represents filter options for the product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListingResponse represents an external catalog listing
type ListingResponse struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Price    decimal.Decimal  `json:"price"`
	Rating   float64          `json:"rating"`
	Category string           `json:"category"`
	Reviews  []ReviewResponse `json:"reviews"`
}

// ReviewResponse represents a review of a listing
type ReviewResponse struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewerName"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		ExternalRef: p.ExternalRef,
		Title:       p.Title,
		Price:       p.Price,
		Rating:      p.Rating,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// ToListingResponse converts a catalog listing
func ToListingResponse(l *catalog.Listing) ListingResponse {
	reviews := make([]ReviewResponse, len(l.Reviews))
	for i, r := range l.Reviews {
		reviews[i] = ReviewResponse{Rating: r.Rating, Comment: r.Comment, ReviewerName: r.ReviewerName}
	}
	return ListingResponse{
		ID:       l.ID,
		Title:    l.Title,
		Price:    l.Price,
		Rating:   l.Rating,
		Category: l.Category,
		Reviews:  reviews,
	}
}
