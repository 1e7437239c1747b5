package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory groups provider error codes for handling and user messaging
type ErrorCategory string

const (
	CategoryDeclined          ErrorCategory = "declined"
	CategoryInsufficientFunds ErrorCategory = "insufficient_funds"
	CategoryInvalidCard       ErrorCategory = "invalid_card"
	CategoryExpiredCard       ErrorCategory = "expired_card"
	CategoryFraud             ErrorCategory = "fraud"
	CategoryAuthentication    ErrorCategory = "authentication"
	CategoryConflict          ErrorCategory = "conflict"
	CategorySystemError       ErrorCategory = "system_error"
	CategoryNetworkError      ErrorCategory = "network_error"
	CategoryInvalidRequest    ErrorCategory = "invalid_request"
)

// RequestKind is the terminal state a provider exchange was classified into
type RequestKind string

const (
	KindTransport    RequestKind = "transport"     // network failure or non-2xx framing
	KindEmptyBody    RequestKind = "empty_body"    // transport succeeded, no body
	KindUnparseable  RequestKind = "unparseable"   // body is not a JSON object
	KindDomain       RequestKind = "domain"        // provider returned an errors array
	KindMissingField RequestKind = "missing_field" // expected top-level object absent
)

// Well-known request error codes
const (
	CodeNoBody             = "no_body"
	CodeUnrecognizableBody = "unrecognizable_body"
	CodeTransport          = "transport_error"
	CodeCircuitOpen        = "circuit_open"
)

// RequestError describes a failed call to the payment provider
// It carries enough (code + message) for a caller to render a notice
type RequestError struct {
	Err        error
	Kind       RequestKind
	Code       string
	Message    string
	Category   ErrorCategory
	StatusCode int
	Retriable  bool
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
}

// Unwrap returns the underlying transport error, if any
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the request never produced a usable provider answer
func (e *RequestError) IsTransport() bool {
	return e.Kind == KindTransport
}

// IsDomain reports whether the provider rejected the request semantically
func (e *RequestError) IsDomain() bool {
	return e.Kind == KindDomain
}

// NewRequestError creates a new request error
func NewRequestError(kind RequestKind, code, message string) *RequestError {
	return &RequestError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewTransportError wraps a network-level failure
func NewTransportError(code, message string, err error) *RequestError {
	return &RequestError{
		Err:       err,
		Kind:      KindTransport,
		Code:      code,
		Message:   message,
		Category:  CategoryNetworkError,
		Retriable: true,
	}
}

// AsRequestError extracts a *RequestError from an error chain
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if stderrors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError reports whether err is (or wraps) a *ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return stderrors.As(err, &vErr)
}
