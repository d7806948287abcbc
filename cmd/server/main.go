package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/shopcart/backend/internal/application/cart"
	catalogapp "github.com/shopcart/backend/internal/application/catalog"
	orderapp "github.com/shopcart/backend/internal/application/order"
	"github.com/shopcart/backend/internal/infrastructure/auth"
	"github.com/shopcart/backend/internal/infrastructure/cache"
	"github.com/shopcart/backend/internal/infrastructure/catalogsource"
	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/infrastructure/persistence"
	"github.com/shopcart/backend/internal/infrastructure/scheduler"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"github.com/shopcart/backend/internal/interfaces/http/handler"
	"github.com/shopcart/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

//	@title			Shop Backend API
//	@version		1.0
//	@description	Cart, catalog and order reconciliation API
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = tel.BridgeLogger(log)
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()
	meter := tel.Meter("github.com/shopcart/backend")

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver()))

	system := "postgresql"
	if db.Driver() == config.DriverSQLite {
		system = "sqlite"
	}
	if err := telemetry.InstrumentDatabase(db.DB, telemetry.DBConfig{
		TraceEnabled:       cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		System:             system,
		SlowQueryThreshold: cfg.Database.SlowThreshold,
		TracerProvider:     tel.TracerProvider(),
	}, meter, log); err != nil {
		log.Warn("Database instrumentation incomplete", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate database schema", zap.Error(err))
		}
		log.Info("Database schema migrated")
	}

	// Catalog reads are cached in Redis when available
	store, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	source, err := catalogsource.NewHTTPSource(cfg.Catalog, store, catalogsource.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create catalog source", zap.Error(err))
	}

	metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: log,
	})
	if err != nil {
		log.Warn("Business metrics disabled", zap.Error(err))
		metrics = telemetry.NewNoopBusinessMetrics()
	}

	// Repositories and services
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	reconciler := orderapp.NewReconciler(orderRepo, productRepo,
		orderapp.WithResolveConcurrency(cfg.Order.ResolveConcurrency),
		orderapp.WithMetrics(metrics),
		orderapp.WithLogger(log),
	)
	orderService := orderapp.NewService(orderRepo, reconciler, log)
	cartService := cartapp.NewService(source, reconciler, metrics, log)
	productService := catalogapp.NewProductService(productRepo)
	browseService := catalogapp.NewBrowseService(source)

	// Background jobs
	jobs, err := scheduler.NewScheduler(scheduler.Config{
		Enabled:  cfg.Cart.IdleTimeout > 0,
		Interval: cfg.Cart.SweepInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to create scheduler", zap.Error(err))
	}
	if err := jobs.Register(scheduler.NewTask("cart-idle-sweep", func(ctx context.Context) error {
		cartService.EvictIdle(ctx, cfg.Cart.IdleTimeout)
		return nil
	})); err != nil {
		log.Fatal("Failed to register cart sweep", zap.Error(err))
	}
	jobs.Start(ctx)

	engine := router.NewEngine(router.EngineConfig{
		HTTP:           cfg.HTTP,
		JWTService:     auth.NewJWTService(cfg.JWT),
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracerProvider: tracerProvider(tel),
		Meter:          meter,
	}, router.Handlers{
		Order:   handler.NewOrderHandler(orderService),
		Cart:    handler.NewCartHandler(cartService),
		Catalog: handler.NewCatalogHandler(browseService),
		Product: handler.NewProductHandler(productService),
		Auth:    handler.NewAuthHandler(),
		Health:  handler.NewHealthHandler(version, map[string]handler.Pinger{"database": db}),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop in time", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// tracerProvider is nil when telemetry is off so the engine skips span creation
func tracerProvider(tel *telemetry.Provider) trace.TracerProvider {
	if !tel.Enabled() {
		return nil
	}
	return tel.TracerProvider()
}
