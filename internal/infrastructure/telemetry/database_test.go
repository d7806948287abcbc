package telemetry_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestInstrumentDatabase_Metrics(t *testing.T) {
	db := openSQLite(t)
	provider, reader := newManualMeter(t)

	err := telemetry.InstrumentDatabase(db, telemetry.DBConfig{System: "sqlite"}, provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
	var got []widget
	require.NoError(t, db.WithContext(ctx).Find(&got).Error)

	metrics := collect(t, reader)

	hist, ok := metrics["shop_db_query_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	ops := map[string]uint64{}
	for _, dp := range hist.DataPoints {
		op, _ := dp.Attributes.Value(telemetry.AttrDBOperation)
		table, _ := dp.Attributes.Value(telemetry.AttrDBTable)
		assert.Equal(t, "widgets", table.AsString())
		ops[op.AsString()] += dp.Count
	}
	assert.Equal(t, uint64(1), ops["create"])
	assert.Equal(t, uint64(1), ops["query"])

	pool, ok := metrics["shop_db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, pool.DataPoints, 3)
}

func TestInstrumentDatabase_SlowQueryLogged(t *testing.T) {
	db := openSQLite(t)
	provider, _ := newManualMeter(t)
	core, logs := observer.New(zap.WarnLevel)

	// a one nanosecond threshold makes every statement slow
	err := telemetry.InstrumentDatabase(db, telemetry.DBConfig{System: "sqlite", SlowQueryThreshold: 1}, provider.Meter("test"), zap.New(core))
	require.NoError(t, err)

	require.NoError(t, db.Create(&widget{Name: "slow"}).Error)
	assert.GreaterOrEqual(t, logs.FilterMessage("slow query").Len(), 1)
}

func TestInstrumentDatabase_Tracing(t *testing.T) {
	db := openSQLite(t)
	provider, _ := newManualMeter(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	err := telemetry.InstrumentDatabase(db, telemetry.DBConfig{
		TraceEnabled:   true,
		System:         "sqlite",
		TracerProvider: tp,
	}, provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, db.WithContext(context.Background()).Create(&widget{Name: "traced"}).Error)
	assert.NotEmpty(t, sr.Ended())
}
