package catalogsource

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// productsResponse is the envelope of the product list endpoints
type productsResponse struct {
	Products []remoteProduct `json:"products"`
	Total    int             `json:"total"`
	Skip     int             `json:"skip"`
	Limit    int             `json:"limit"`
}

type remoteProduct struct {
	ID       json.Number     `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Rating   float64         `json:"rating"`
	Category string          `json:"category"`
	Reviews  []remoteReview  `json:"reviews"`
}

type remoteReview struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewerName"`
}

func (p remoteProduct) toListing() catalog.Listing {
	l := catalog.Listing{
		ID:       p.ID.String(),
		Title:    p.Title,
		Price:    p.Price,
		Rating:   p.Rating,
		Category: p.Category,
		Reviews:  make([]catalog.ListingReview, len(p.Reviews)),
	}
	for i, r := range p.Reviews {
		l.Reviews[i] = catalog.ListingReview{
			Rating:       r.Rating,
			Comment:      r.Comment,
			ReviewerName: r.ReviewerName,
		}
	}
	return l
}

// decodeCategories accepts both category shapes the catalog has served:
// a list of slugs, or a list of {slug, name, url} objects.
func decodeCategories(body []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("catalog: invalid categories payload: %w", err)
	}

	categories := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(string(item))
		if strings.HasPrefix(trimmed, `"`) {
			var slug string
			if err := json.Unmarshal(item, &slug); err != nil {
				return nil, fmt.Errorf("catalog: invalid category: %w", err)
			}
			categories = append(categories, slug)
			continue
		}

		var obj struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("catalog: invalid category: %w", err)
		}
		if obj.Slug == "" {
			obj.Slug = obj.Name
		}
		categories = append(categories, obj.Slug)
	}
	return categories, nil
}
