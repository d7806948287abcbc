package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/domain/cart"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service handles order operations
type Service struct {
	orders     order.Repository
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewService creates a new order Service
func NewService(orders order.Repository, reconciler *Reconciler, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		orders:     orders,
		reconciler: reconciler,
		logger:     log,
	}
}

// Create creates an order from cart lines
func (s *Service) Create(ctx context.Context, lines []cart.Line) (*PlacedOrderResponse, error) {
	placed, err := s.reconciler.CreateOrder(ctx, lines)
	if err != nil {
		return nil, err
	}
	resp := ToPlacedOrderResponse(placed)
	return &resp, nil
}

// ReplaceProducts replaces the full product set of an order and returns the updated order
func (s *Service) ReplaceProducts(ctx context.Context, orderID uuid.UUID, req ReplaceProductsRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "replace_products",
		telemetry.SpanAttrOrderID.String(orderID.String()),
		telemetry.SpanAttrLineCount.Int(len(req.Products)),
	)
	defer span.End()

	lines := make([]order.ProductQuantity, len(req.Products))
	for i, p := range req.Products {
		lines[i] = order.ProductQuantity{ProductID: p.ProductID, Quantity: p.Quantity}
	}
	if err := order.ValidateLines(lines); err != nil {
		return nil, err
	}

	if err := s.orders.ReplaceLines(ctx, orderID, lines); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.logger).Info("order products replaced",
		zap.String("order_id", orderID.String()),
		zap.Int("lines", len(lines)),
	)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetByID returns an order with its products
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List returns a page of orders, newest first unless filter says otherwise
func (s *Service) List(ctx context.Context, filter shared.Filter) (*OrderListResponse, error) {
	filter = filter.Normalize()

	orders, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToOrderResponses(orders), total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete deletes an order together with its line items
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info("order deleted", zap.String("order_id", id.String()))
	return nil
}
