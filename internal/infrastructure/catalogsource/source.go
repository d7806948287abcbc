// Package catalogsource reads the external product catalog over HTTP.
// Reads go through a circuit breaker and a TTL cache, and concurrent identical
// reads share one upstream request.
package catalogsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/cache"
	"github.com/shopcart/backend/internal/infrastructure/config"
	"github.com/shopcart/backend/internal/infrastructure/telemetry"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024

const (
	cacheKeyProducts   = "catalog:products:"
	cacheKeyProduct    = "catalog:product:"
	cacheKeyCategories = "catalog:categories"
)

// errUpstreamStatus marks a 5xx answer from the catalog
var errUpstreamStatus = errors.New("catalog: upstream error")

// HTTPSource implements catalog.Source against a dummyjson-shaped HTTP API
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	store      cache.Store
	cacheTTL   time.Duration
	sf         singleflight.Group
	logger     *zap.Logger
}

// Option configures an HTTPSource
type Option func(*HTTPSource)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSource) {
		s.httpClient = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// NewHTTPSource creates a catalog source. A nil store disables caching.
func NewHTTPSource(cfg config.CatalogConfig, store cache.Store, opts ...Option) (*HTTPSource, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("catalog: invalid base url %q", cfg.BaseURL)
	}

	s := &HTTPSource{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		store:      store,
		cacheTTL:   cfg.CacheTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cb = gobreaker.NewCircuitBreaker(breakerSettings(cfg, s.logger))
	return s, nil
}

func breakerSettings(cfg config.CatalogConfig, logger *zap.Logger) gobreaker.Settings {
	minRequests := cfg.BreakerMinRequests
	ratio := cfg.BreakerFailureRatio
	return gobreaker.Settings{
		Name:        "CatalogSource",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		// 4xx answers mean the catalog is up, and a cancelled caller says
		// nothing about its health
		IsSuccessful: func(err error) bool {
			var de *shared.DomainError
			return err == nil || errors.As(err, &de) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}

// ListProducts lists the catalog, optionally narrowed to one category
func (s *HTTPSource) ListProducts(ctx context.Context, filter catalog.ListingFilter) ([]catalog.Listing, error) {
	category := strings.TrimSpace(filter.Category)
	ctx, span := telemetry.StartSpan(ctx, "catalog.list_products",
		telemetry.SpanAttrCategory.String(category),
	)
	defer span.End()

	path := "/products?limit=0"
	if category != "" {
		path = "/products/category/" + url.PathEscape(category) + "?limit=0"
	}

	body, err := s.fetch(ctx, cacheKeyProducts+category, path)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp productsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		err = shared.WrapDomainError(shared.CodeCatalogUnavailable, "Product catalog returned an invalid response", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	listings := make([]catalog.Listing, len(resp.Products))
	for i, p := range resp.Products {
		listings[i] = p.toListing()
	}
	span.SetAttributes(telemetry.SpanAttrListingCount.Int(len(listings)))
	return listings, nil
}

// GetProduct reads one listing by its external id
func (s *HTTPSource) GetProduct(ctx context.Context, id string) (*catalog.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewValidationError("Product id is required")
	}

	body, err := s.fetch(ctx, cacheKeyProduct+id, "/products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var p remoteProduct
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, shared.WrapDomainError(shared.CodeCatalogUnavailable, "Product catalog returned an invalid response", err)
	}
	listing := p.toListing()
	return &listing, nil
}

// ListCategories lists the category slugs of the catalog
func (s *HTTPSource) ListCategories(ctx context.Context) ([]string, error) {
	body, err := s.fetch(ctx, cacheKeyCategories, "/products/categories")
	if err != nil {
		return nil, err
	}
	categories, err := decodeCategories(body)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeCatalogUnavailable, "Product catalog returned an invalid response", err)
	}
	return categories, nil
}

// fetch returns the body of path, from the cache when possible
func (s *HTTPSource) fetch(ctx context.Context, key, path string) ([]byte, error) {
	if body, ok := s.cached(ctx, key); ok {
		trace.SpanFromContext(ctx).SetAttributes(telemetry.SpanAttrCacheHit.Bool(true))
		return body, nil
	}

	// the shared request outlives a caller that gives up; the client timeout
	// still bounds it
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (any, error) {
		res, err := s.cb.Execute(func() (any, error) {
			return s.get(fetchCtx, path)
		})
		if err != nil {
			return nil, err
		}
		body := res.([]byte)
		s.remember(fetchCtx, key, body)
		return body, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, s.mapError(path, res.Err)
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *HTTPSource) cached(ctx context.Context, key string) ([]byte, bool) {
	if s.store == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	body, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return body, ok
}

func (s *HTTPSource) remember(ctx context.Context, key string, body []byte) {
	if s.store == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.store.Set(ctx, key, body, s.cacheTTL); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *HTTPSource) mapError(path string, err error) error {
	var de *shared.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn("catalog request rejected by circuit breaker", zap.String("path", path), zap.Error(err))
		return shared.WrapDomainError(shared.CodeCatalogUnavailable, "Product catalog is unavailable", err)
	default:
		s.logger.Error("catalog request failed", zap.String("path", path), zap.Error(err))
		return shared.WrapDomainError(shared.CodeCatalogUnavailable, "Product catalog is unavailable", err)
	}
}

// get performs an HTTP GET against the catalog
func (s *HTTPSource) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, catalog.ErrListingNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", errUpstreamStatus, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, shared.NewValidationError(fmt.Sprintf("Product catalog rejected the request: HTTP %d", resp.StatusCode))
	}
	return body, nil
}

var _ catalog.Source = (*HTTPSource)(nil)
