package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// Reconcile line outcomes used as the outcome attribute
const (
	LineOutcomeFound   = "found"
	LineOutcomeCreated = "created"
	LineOutcomeFailed  = "failed"
)

// Order sources used as the order_source attribute
const (
	OrderSourceAPI      = "api"
	OrderSourceCheckout = "checkout"
)

// BusinessMetrics provides business metrics for the shop.
// It tracks order creation and how cart lines resolve against the product registry.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	orderCreatedTotal *Counter
	orderAmountTotal  *Counter
	reconcileLines    *Counter
	reconcileDuration *Histogram
	activeCarts       *Gauge
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	bm.orderCreatedTotal, err = NewCounter(
		cfg.Meter,
		"shop_order_created_total",
		"Total number of orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewCounter(
		cfg.Meter,
		"shop_order_amount_total",
		"Total order amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.reconcileLines, err = NewCounter(
		cfg.Meter,
		"shop_reconcile_lines_total",
		"Cart lines resolved against the product registry, by outcome",
		"{lines}",
	)
	if err != nil {
		return nil, err
	}

	bm.reconcileDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "shop_reconcile_duration_seconds",
		Description: "Time spent turning a cart into an order",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.activeCarts, err = NewGauge(
		cfg.Meter,
		"shop_cart_active_count",
		"Number of non-empty session carts",
		"{carts}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// NewNoopBusinessMetrics returns metrics that record nothing
func NewNoopBusinessMetrics() *BusinessMetrics {
	bm, err := NewBusinessMetrics(BusinessMetricsConfig{Meter: noop.NewMeterProvider().Meter(TracerName)})
	if err != nil {
		// the noop meter never fails to create instruments
		panic(err)
	}
	return bm
}

// =============================================================================
// Order Metrics
// =============================================================================

// RecordOrderCreated records an order creation event.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, source string) {
	bm.orderCreatedTotal.Inc(ctx, AttrOrderSource.String(source))
}

// RecordOrderAmount records the order amount in cents.
func (bm *BusinessMetrics) RecordOrderAmount(ctx context.Context, source string, amountCents int64) {
	bm.orderAmountTotal.Add(ctx, amountCents, AttrOrderSource.String(source))
}

// RecordOrderWithAmount is a convenience method that records both order count and amount.
func (bm *BusinessMetrics) RecordOrderWithAmount(ctx context.Context, source string, amount decimal.Decimal) {
	bm.RecordOrderCreated(ctx, source)

	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordOrderAmount(ctx, source, amountCents)
}

// =============================================================================
// Reconciliation Metrics
// =============================================================================

// RecordLineOutcome counts one resolved or skipped cart line.
func (bm *BusinessMetrics) RecordLineOutcome(ctx context.Context, outcome string) {
	bm.reconcileLines.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordReconcileDuration records how long one order reconciliation took.
func (bm *BusinessMetrics) RecordReconcileDuration(ctx context.Context, d time.Duration, outcome string) {
	bm.reconcileDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}

// =============================================================================
// Cart Metrics
// =============================================================================

// RecordActiveCarts records the number of non-empty session carts.
func (bm *BusinessMetrics) RecordActiveCarts(ctx context.Context, count int64) {
	bm.activeCarts.Record(ctx, count)
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
