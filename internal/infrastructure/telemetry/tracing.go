package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of the shop's business spans
const TracerName = "shopcart-backend"

// Attribute keys for business spans
const (
	SpanAttrOrderID      = attribute.Key("order.id")
	SpanAttrUserID       = attribute.Key("user.id")
	SpanAttrLineCount    = attribute.Key("order.line_count")
	SpanAttrSkipped      = attribute.Key("order.skipped_count")
	SpanAttrCategory     = attribute.Key("catalog.category")
	SpanAttrListingCount = attribute.Key("catalog.listing_count")
	SpanAttrCacheHit     = attribute.Key("cache.hit")
)

// StartSpan opens an internal span on the global tracer provider. The caller ends it.
//
//	ctx, span := telemetry.StartSpan(ctx, "catalog.list_products", telemetry.SpanAttrCategory.String(c))
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, opts...)
}

// StartServiceSpan opens a span named {service}.{method}, e.g. "order.create"
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, attrs...)
}

// RecordError records err on span and marks the span failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent annotates the span active in ctx, if it is recording
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
