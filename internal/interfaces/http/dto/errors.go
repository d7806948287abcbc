package dto

import (
	"net/http"

	"github.com/shopcart/backend/internal/domain/shared"
)

// Error codes carried in ErrorInfo.Code. Domain codes are passed through
// unchanged so clients see the same vocabulary the services use.
const (
	ErrCodeValidation         = shared.CodeValidation
	ErrCodeNotFound           = shared.CodeNotFound
	ErrCodeNoValidProducts    = shared.CodeNoValidProducts
	ErrCodePersistence        = shared.CodePersistence
	ErrCodeConflict           = shared.CodeConflict
	ErrCodeCatalogUnavailable = shared.CodeCatalogUnavailable
	ErrCodeUnauthorized       = shared.CodeUnauthorized

	// Transport-level codes
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidToken    = "INVALID_TOKEN"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeNoValidProducts:    http.StatusUnprocessableEntity,
	ErrCodePersistence:        http.StatusInternalServerError,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeCatalogUnavailable: http.StatusServiceUnavailable,
	ErrCodeUnauthorized:       http.StatusUnauthorized,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidToken:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:   http.StatusNotFound,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
