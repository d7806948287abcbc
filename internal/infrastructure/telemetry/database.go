package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	queryStartKey         = "telemetry:query_start"
	defaultSlowQueryLimit = 200 * time.Millisecond
)

// DBConfig controls how a gorm database is instrumented
type DBConfig struct {
	// TraceEnabled registers the otelgorm plugin so every statement becomes a span
	TraceEnabled bool
	// LogFullSQL keeps query variables in span statements (development only)
	LogFullSQL bool
	// System is the db.system attribute, e.g. "postgresql" or "sqlite"
	System string
	// SlowQueryThreshold marks and logs statements slower than this
	SlowQueryThreshold time.Duration
	// TracerProvider overrides the global tracer provider
	TracerProvider trace.TracerProvider
}

// InstrumentDatabase adds tracing, query duration metrics and connection pool
// gauges to db. meter may be a no-op meter.
func InstrumentDatabase(db *gorm.DB, cfg DBConfig, meter metric.Meter, logger *zap.Logger) error {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryLimit
	}

	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.System)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if cfg.TracerProvider != nil {
			opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}

	queries, err := NewHistogram(meter, HistogramOpts{
		Name:        "shop_db_query_duration_seconds",
		Description: "Duration of database statements",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return err
	}
	if err := registerQueryCallbacks(db, queries, cfg.SlowQueryThreshold, logger); err != nil {
		return err
	}

	return registerPoolGauges(db, meter)
}

func registerQueryCallbacks(db *gorm.DB, h *Histogram, slow time.Duration, logger *zap.Logger) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			elapsed := time.Since(v.(time.Time))
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			h.RecordDuration(ctx, elapsed,
				AttrDBOperation.String(operation),
				AttrDBTable.String(tx.Statement.Table),
			)
			if elapsed >= slow {
				AddEvent(ctx, "db.slow_query",
					AttrDBOperation.String(operation),
					AttrDBTable.String(tx.Statement.Table),
					attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
				)
				logger.Warn("slow query",
					zap.String("operation", operation),
					zap.String("table", tx.Statement.Table),
					zap.Duration("elapsed", elapsed),
				)
			}
		}
	}

	cb := db.Callback()
	steps := []struct {
		name     string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(n+":after", a)
		}},
		{"query", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(n+":after", a)
		}},
		{"update", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(n+":after", a)
		}},
		{"delete", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(n+":after", a)
		}},
		{"row", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register(n+":after", a)
		}},
		{"raw", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register(n+":before", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register(n+":after", a)
		}},
	}
	for _, s := range steps {
		if err := s.register("shop_metrics:"+s.name, before, after(s.name)); err != nil {
			return fmt.Errorf("failed to register %s callbacks: %w", s.name, err)
		}
	}
	return nil
}

func registerPoolGauges(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	conns, err := meter.Int64ObservableGauge("shop_db_pool_connections",
		metric.WithDescription("Database pool connections by state"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("shop_db_pool_wait_total",
		metric.WithDescription("Connections waited for because the pool was exhausted"))
	if err != nil {
		return fmt.Errorf("failed to create pool wait counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, waits)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}
	return nil
}
