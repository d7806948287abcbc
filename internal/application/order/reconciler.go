// Package order turns carts into persisted orders and manages them afterwards.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopcart/backend/internal/domain/cart"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// LineFailure is a cart line that could not be resolved to a registry product
type LineFailure struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

// PlacedOrder is the result of a successful CreateOrder.
// Skipped lists the cart lines that were left out of the order.
type PlacedOrder struct {
	Order   *order.Order
	Skipped []LineFailure
}

// Partial reports whether some cart lines were left out
func (p *PlacedOrder) Partial() bool {
	return len(p.Skipped) > 0
}

type sourceKey struct{}

// WithSource tags ctx with where an order comes from, for metrics
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the order source set by WithSource, defaulting to the API
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return telemetry.OrderSourceAPI
}

// Reconciler converts cart lines keyed by external catalog ids into an order of
// registry products, creating registry products on first reference.
type Reconciler struct {
	orders      order.Repository
	products    catalog.ProductRepository
	metrics     *telemetry.BusinessMetrics
	logger      *zap.Logger
	concurrency int
	sf          singleflight.Group
}

// ReconcilerOption configures a Reconciler
type ReconcilerOption func(*Reconciler)

// WithResolveConcurrency bounds how many lines resolve in parallel. 1 resolves sequentially.
func WithResolveConcurrency(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n >= 1 {
			r.concurrency = n
		}
	}
}

// WithMetrics sets the business metrics recorder
func WithMetrics(m *telemetry.BusinessMetrics) ReconcilerOption {
	return func(r *Reconciler) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithLogger sets the fallback logger used when ctx carries none
func WithLogger(l *zap.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReconciler creates a Reconciler
func NewReconciler(orders order.Repository, products catalog.ProductRepository, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		orders:      orders,
		products:    products,
		metrics:     telemetry.NewNoopBusinessMetrics(),
		logger:      zap.NewNop(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type resolution struct {
	product *catalog.Product
	outcome string
	failure *LineFailure
}

// CreateOrder resolves every line against the product registry and writes one
// order holding the lines that resolved. Lines that fail to resolve are skipped
// and reported in the result. Every call creates a new order.
func (r *Reconciler) CreateOrder(ctx context.Context, lines []cart.Line) (*PlacedOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create",
		telemetry.SpanAttrLineCount.Int(len(lines)),
	)
	defer span.End()

	start := time.Now()
	placed, err := r.createOrder(ctx, lines)
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(shared.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
		telemetry.RecordError(span, err)
	} else {
		span.SetAttributes(
			telemetry.SpanAttrOrderID.String(placed.Order.ID.String()),
			telemetry.SpanAttrSkipped.Int(len(placed.Skipped)),
		)
	}
	r.metrics.RecordReconcileDuration(ctx, time.Since(start), outcome)
	return placed, err
}

func (r *Reconciler) createOrder(ctx context.Context, lines []cart.Line) (*PlacedOrder, error) {
	log := logger.FromContext(ctx, r.logger)

	if err := validateCartLines(lines); err != nil {
		return nil, err
	}

	resolved := r.resolveAll(ctx, lines)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]order.ProductQuantity, 0, len(lines))
	var skipped []LineFailure
	for i, res := range resolved {
		r.metrics.RecordLineOutcome(ctx, res.outcome)
		if res.failure != nil {
			skipped = append(skipped, *res.failure)
			continue
		}
		items = append(items, order.ProductQuantity{
			ProductID: res.product.ID,
			Quantity:  lines[i].Quantity,
		})
	}

	if len(items) == 0 {
		log.Warn("no cart line resolved to a product", zap.Int("lines", len(lines)))
		return nil, shared.ErrNoValidProducts.WithDetails(map[string]any{"skipped": skipped})
	}

	o := order.NewOrder()
	if err := r.orders.CreateWithLines(ctx, o, items); err != nil {
		log.Error("failed to write order", zap.String("order_id", o.ID.String()), zap.Error(err))
		return nil, asPersistenceError("Failed to create order", err)
	}

	stored, err := r.orders.FindByID(ctx, o.ID)
	if err != nil {
		return nil, asPersistenceError("Failed to load created order", err)
	}

	total := stored.Total()
	r.metrics.RecordOrderWithAmount(ctx, SourceFrom(ctx), total)
	log.Info("order created",
		zap.String("order_id", stored.ID.String()),
		zap.Int("lines", len(items)),
		zap.Int("skipped", len(skipped)),
		zap.String("total", total.StringFixed(2)),
	)

	return &PlacedOrder{Order: stored, Skipped: skipped}, nil
}

func validateCartLines(lines []cart.Line) error {
	if len(lines) == 0 {
		return shared.NewValidationError("Products are required")
	}
	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" {
			return shared.NewValidationError(fmt.Sprintf("products[%d]: product id is required", i))
		}
		if l.Quantity < 1 {
			return shared.NewValidationError(fmt.Sprintf("products[%d]: quantity must be at least 1", i))
		}
		if _, dup := seen[id]; dup {
			return shared.NewValidationError(fmt.Sprintf("products[%d]: product %s is listed more than once", i, id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// resolveAll resolves lines in input order, in parallel when configured.
// It never fails as a whole: each line carries its own outcome.
func (r *Reconciler) resolveAll(ctx context.Context, lines []cart.Line) []resolution {
	out := make([]resolution, len(lines))

	if r.concurrency <= 1 || len(lines) == 1 {
		for i, l := range lines {
			out[i] = r.resolveLine(ctx, l)
		}
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, l := range lines {
		g.Go(func() error {
			out[i] = r.resolveLine(gctx, l)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

type resolvedProduct struct {
	product *catalog.Product
	created bool
}

// resolveLine maps one cart line to a registry product. Calls for the same
// external id inside this process share one lookup, and the registry's unique
// external_ref keeps concurrent processes from creating the product twice.
// The shared lookup runs detached from any single caller's cancellation, so a
// caller that goes away only abandons its own wait.
func (r *Reconciler) resolveLine(ctx context.Context, line cart.Line) resolution {
	ref := strings.TrimSpace(line.ProductID)
	lookupCtx := context.WithoutCancel(ctx)

	ch := r.sf.DoChan(ref, func() (any, error) {
		existing, err := r.products.FindByExternalRef(lookupCtx, ref)
		if err == nil {
			return resolvedProduct{product: existing}, nil
		}
		if !errors.Is(err, catalog.ErrProductNotFound) {
			return nil, err
		}

		candidate, err := catalog.NewProductFromExternal(ref, line.Name, line.UnitPrice)
		if err != nil {
			return nil, err
		}
		p, created, err := r.products.FindOrCreateByExternalRef(lookupCtx, candidate)
		if err != nil {
			return nil, err
		}
		return resolvedProduct{product: p, created: created}, nil
	})

	var (
		v   any
		err error
	)
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		logger.FromContext(ctx, r.logger).Warn("skipping cart line that could not be resolved",
			zap.String("product_id", ref),
			zap.Error(err),
		)
		return resolution{
			outcome: telemetry.LineOutcomeFailed,
			failure: &LineFailure{ProductID: ref, Reason: resolutionReason(err)},
		}
	}

	rp := v.(resolvedProduct)
	outcome := telemetry.LineOutcomeFound
	if rp.created {
		outcome = telemetry.LineOutcomeCreated
	}
	return resolution{product: rp.product, outcome: outcome}
}

func resolutionReason(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// asPersistenceError keeps domain errors and wraps anything else
func asPersistenceError(msg string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewPersistenceError(msg, err)
}
