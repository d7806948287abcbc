package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopcart/backend/internal/domain/shared"
	"github.com/shopcart/backend/internal/infrastructure/logger"
	"github.com/shopcart/backend/internal/interfaces/http/dto"
	"github.com/shopcart/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// envelope mirrors dto.Response with a raw data field for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

// setUser simulates the JWT middleware for a request
func setUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID)
		c.Next()
	}
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return doRequest(router, req)
}

func doRequest(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
	assert.Equal(t, "header-id", getRequestID(c))

	c.Set(logger.RequestIDKey, "ctx-id")
	assert.Equal(t, "ctx-id", getRequestID(c))
}

func TestBaseHandler_SuccessEnvelopes(t *testing.T) {
	h := &BaseHandler{}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Created(c, "Order created successfully", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusCreated, w.Code)
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "Order created successfully", env.Message)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	h.SuccessWithMeta(c, "Orders retrieved successfully", []string{"a"}, 100, 2, 10)
	env = decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(100), env.Meta.Total)
	assert.Equal(t, 10, env.Meta.TotalPages)
}

func TestBaseHandler_HandleDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", shared.NewValidationError("Products are required"), http.StatusBadRequest, shared.CodeValidation, "Products are required"},
		{"not found", shared.NewNotFoundError("Order not found"), http.StatusNotFound, shared.CodeNotFound, "Order not found"},
		{"wrapped not found", fmt.Errorf("load: %w", shared.NewNotFoundError("Order not found")), http.StatusNotFound, shared.CodeNotFound, "Order not found"},
		{"no valid products", shared.ErrNoValidProducts, http.StatusUnprocessableEntity, shared.CodeNoValidProducts, shared.ErrNoValidProducts.Message},
		{"persistence", shared.NewPersistenceError("Failed to create order", errors.New("db down")), http.StatusInternalServerError, shared.CodePersistence, "Failed to create order"},
		{"conflict", shared.NewDomainError(shared.CodeConflict, "Product is referenced by an order"), http.StatusConflict, shared.CodeConflict, "Product is referenced by an order"},
		{"catalog unavailable", shared.ErrCatalogUnavailable, http.StatusServiceUnavailable, shared.CodeCatalogUnavailable, shared.ErrCatalogUnavailable.Message},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, shared.CodeUnauthorized, shared.ErrUnauthorized.Message},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.HandleDomainError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestBaseHandler_HandleDomainError_Details(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/order", nil)

	h.HandleDomainError(c, shared.ErrNoValidProducts.WithDetails(map[string]any{"skipped": []string{"ext-1"}}))

	env := decode(t, w)
	details, ok := env.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"ext-1"}, details["skipped"])
}

func TestBaseHandler_ParseID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/order/:id", func(c *gin.Context) {
		if _, ok := h.parseID(c, "id", "Invalid order ID"); ok {
			c.Status(http.StatusOK)
		}
	})

	w := doJSON(router, http.MethodGet, "/order/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid order ID", decode(t, w).Message)

	w = doJSON(router, http.MethodGet, "/order/6f1c2a7e-8d1b-4c55-9a0e-0b7d3e0d9f10", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
