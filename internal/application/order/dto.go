package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/cart"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderResponse is an order with its products
type OrderResponse struct {
	ID        uuid.UUID              `json:"id"`
	Products  []OrderProductResponse `json:"products"`
	Total     decimal.Decimal        `json:"total"`
	ItemCount int                    `json:"itemCount"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// OrderProductResponse is one product of an order at its ordered quantity
type OrderProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	ExternalRef *string         `json:"externalRef,omitempty"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Rating      *float64        `json:"rating"`
	Quantity    int             `json:"quantity"`
}

// PlacedOrderResponse is a newly created order together with the cart lines it skipped
type PlacedOrderResponse struct {
	OrderResponse
	Skipped []LineFailure `json:"skipped"`
}

// CreateOrderRequest is a cart submitted for ordering. Line ids are external
// catalog ids; line validation happens during reconciliation.
type CreateOrderRequest struct {
	Products []CartLineInput `json:"products" binding:"omitempty,dive"`
}

// CartLineInput is one submitted cart line. Title and price only matter for
// ids the registry has not seen yet, and a title needs a price to go with it.
type CartLineInput struct {
	ID       string           `json:"id" binding:"max=100"`
	Title    string           `json:"title" binding:"max=200"`
	Price    *decimal.Decimal `json:"price" binding:"required_with=Title"`
	Quantity int              `json:"quantity"`
}

// CartLines converts the request into cart lines in submission order
func (r CreateOrderRequest) CartLines() []cart.Line {
	lines := make([]cart.Line, len(r.Products))
	for i, p := range r.Products {
		lines[i] = cart.Line{
			ProductID: p.ID,
			Name:      p.Title,
			Quantity:  p.Quantity,
		}
		if p.Price != nil {
			lines[i].UnitPrice = *p.Price
		}
	}
	return lines
}

// ReplaceProductsRequest is the new full set of products of an order
type ReplaceProductsRequest struct {
	Products []ProductQuantityInput `json:"products" binding:"omitempty,dive"`
}

// ProductQuantityInput references a registry product at a quantity
type ProductQuantityInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:        o.ID,
		Products:  make([]OrderProductResponse, 0, len(o.Lines)),
		Total:     o.Total(),
		ItemCount: o.ItemCount(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, l := range o.Lines {
		p := OrderProductResponse{
			ID:       l.ProductID,
			Quantity: l.Quantity,
		}
		if l.Product != nil {
			p.ExternalRef = l.Product.ExternalRef
			p.Title = l.Product.Title
			p.Price = l.Product.Price
			p.Rating = l.Product.Rating
		}
		resp.Products = append(resp.Products, p)
	}
	return resp
}

// ToOrderResponses converts a page of domain orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}

// ToPlacedOrderResponse converts the result of a checkout
func ToPlacedOrderResponse(p *PlacedOrder) PlacedOrderResponse {
	skipped := p.Skipped
	if skipped == nil {
		skipped = []LineFailure{}
	}
	return PlacedOrderResponse{
		OrderResponse: ToOrderResponse(p.Order),
		Skipped:       skipped,
	}
}

// OrderListResponse is a page of orders
type OrderListResponse = shared.Paginated[OrderResponse]
