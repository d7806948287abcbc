// Package cart keeps one shopping cart per authenticated user and checks it out
// through the order reconciler.
package cart

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apporder "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/domain/cart"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderPlacer turns cart lines into an order
type OrderPlacer interface {
	CreateOrder(ctx context.Context, lines []cart.Line) (*apporder.PlacedOrder, error)
}

type session struct {
	mu   sync.Mutex
	cart cart.Cart
	// touched is guarded by Service.mu
	touched time.Time
}

// Service holds the carts of all users in memory.
// Operations on one user's cart are serialized; different users never block each other
// beyond the map lookup.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session
	active   atomic.Int64

	catalog catalog.Source
	orders  OrderPlacer
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a cart Service
func NewService(source catalog.Source, orders OrderPlacer, metrics *telemetry.BusinessMetrics, log *zap.Logger) *Service {
	if metrics == nil {
		metrics = telemetry.NewNoopBusinessMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		sessions: make(map[string]*session),
		catalog:  source,
		orders:   orders,
		metrics:  metrics,
		logger:   log,
		now:      time.Now,
	}
}

func (s *Service) session(userID string) (*session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{cart: cart.New()}
		s.sessions[userID] = sess
	}
	sess.touched = s.now()
	return sess, nil
}

// store replaces the session cart; the caller holds sess.mu
func (s *Service) store(ctx context.Context, sess *session, next cart.Cart) {
	was, now := sess.cart.IsEmpty(), next.IsEmpty()
	sess.cart = next
	switch {
	case was && !now:
		s.metrics.RecordActiveCarts(ctx, s.active.Add(1))
	case !was && now:
		s.metrics.RecordActiveCarts(ctx, s.active.Add(-1))
	}
}

// View returns the user's cart
func (s *Service) View(ctx context.Context, userID string) (*CartResponse, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	resp := ToCartResponse(sess.cart)
	return &resp, nil
}

// AddProduct looks the listing up in the external catalog and adds one unit of it.
// The listing's title and price are captured at this moment.
func (s *Service) AddProduct(ctx context.Context, userID, externalID string) (*CartResponse, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewValidationError("Product id is required")
	}
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}

	listing, err := s.catalog.GetProduct(ctx, externalID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	next, err := sess.cart.Add(cart.Product{ID: listing.ID, Title: listing.Title, Price: listing.Price})
	if err != nil {
		return nil, err
	}
	s.store(ctx, sess, next)
	resp := ToCartResponse(next)
	return &resp, nil
}

// SetQuantity sets the quantity of a line. 0 removes the line and an absent line stays absent.
func (s *Service) SetQuantity(ctx context.Context, userID, externalID string, quantity int) (*CartResponse, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	next, err := sess.cart.SetQuantity(strings.TrimSpace(externalID), quantity)
	if err != nil {
		return nil, err
	}
	s.store(ctx, sess, next)
	resp := ToCartResponse(next)
	return &resp, nil
}

// Remove removes a line if present
func (s *Service) Remove(ctx context.Context, userID, externalID string) (*CartResponse, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	next := sess.cart.Remove(strings.TrimSpace(externalID))
	s.store(ctx, sess, next)
	resp := ToCartResponse(next)
	return &resp, nil
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, userID string) (*CartResponse, error) {
	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	next := sess.cart.Clear()
	s.store(ctx, sess, next)
	resp := ToCartResponse(next)
	return &resp, nil
}

// Checkout places an order for the cart content. The cart is cleared only when
// the order was created; on failure it is left exactly as it was.
func (s *Service) Checkout(ctx context.Context, userID string) (*apporder.PlacedOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "checkout",
		telemetry.SpanAttrUserID.String(userID),
	)
	defer span.End()

	sess, err := s.session(userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.cart.IsEmpty() {
		return nil, shared.NewValidationError("Cart is empty")
	}
	snapshot := sess.cart.Lines()

	placed, err := s.orders.CreateOrder(apporder.WithSource(ctx, telemetry.OrderSourceCheckout), snapshot)
	if err != nil {
		telemetry.RecordError(span, err)
		logger.FromContext(ctx, s.logger).Warn("checkout failed, cart kept",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.store(ctx, sess, sess.cart.Clear())
	span.SetAttributes(telemetry.SpanAttrOrderID.String(placed.Order.ID.String()))
	return placed, nil
}

// ActiveCarts returns the number of non-empty carts
func (s *Service) ActiveCarts() int64 {
	return s.active.Load()
}

// EvictIdle drops the carts nobody touched for longer than maxIdle and returns
// how many were dropped. A cart in use by a running operation is kept.
func (s *Service) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, sess := range s.sessions {
		if sess.touched.After(cutoff) || !sess.mu.TryLock() {
			continue
		}
		if !sess.cart.IsEmpty() {
			s.metrics.RecordActiveCarts(ctx, s.active.Add(-1))
		}
		delete(s.sessions, userID)
		sess.mu.Unlock()
		evicted++
	}

	if evicted > 0 {
		s.logger.Info("idle carts evicted",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(s.sessions)),
		)
	}
	return evicted
}
