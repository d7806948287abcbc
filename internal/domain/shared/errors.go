package shared

import "errors"

// Error codes shared by every bounded context.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeResolutionFailed   = "RESOLUTION_FAILED"
	CodeNoValidProducts    = "NO_VALID_PRODUCTS"
	CodePersistence        = "PERSISTENCE_ERROR"
	CodeConflict           = "CONFLICT"
	CodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target carries the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying details
func (e *DomainError) WithDetails(details any) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps cause in the chain
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(message string, cause error) *DomainError {
	return WrapDomainError(CodePersistence, message, cause)
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation         = NewDomainError(CodeValidation, "Invalid input provided")
	ErrResolutionFailed   = NewDomainError(CodeResolutionFailed, "Product could not be resolved")
	ErrNoValidProducts    = NewDomainError(CodeNoValidProducts, "No valid products to order")
	ErrPersistence        = NewDomainError(CodePersistence, "Failed to persist changes")
	ErrConflict           = NewDomainError(CodeConflict, "Resource is still referenced")
	ErrCatalogUnavailable = NewDomainError(CodeCatalogUnavailable, "Product catalog is unavailable")
	ErrUnauthorized       = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
)

// CodeOf returns the domain error code carried by err, or "" when err is not a domain error
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
