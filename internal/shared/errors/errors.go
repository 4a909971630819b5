package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrBadRequest          = errors.New("bad request")
	ErrInternal            = errors.New("internal error")
	ErrQuotaExhausted      = errors.New("quota exhausted")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstreamMalformed   = errors.New("upstream response malformed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors.

// MissingToken creates the error returned when no bearer token is presented.
func MissingToken() *AppError {
	return &AppError{
		Code:       "missing_token",
		Message:    "unauthorized",
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// UnknownUser creates the error returned when a token resolves to no user.
func UnknownUser() *AppError {
	return &AppError{
		Code:       "unknown_user",
		Message:    "user not found",
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// QuotaExhausted creates the error returned when a user has zero credits.
func QuotaExhausted() *AppError {
	return &AppError{
		Code:       "quota_exhausted",
		Message:    "0 credits remaining today",
		StatusCode: http.StatusPaymentRequired,
		Err:        ErrQuotaExhausted,
	}
}

// UpstreamMalformed creates the error returned when the image API response
// lacks the expected shape.
func UpstreamMalformed(err error) *AppError {
	return &AppError{
		Code:       "upstream_malformed",
		Message:    "image service returned an unexpected response",
		StatusCode: http.StatusBadGateway,
		Err:        errors.Join(ErrUpstreamMalformed, err),
	}
}

// UpstreamUnavailable creates the error returned when the image API call fails.
func UpstreamUnavailable(err error) *AppError {
	return &AppError{
		Code:       "upstream_unavailable",
		Message:    "image service unavailable",
		StatusCode: http.StatusBadGateway,
		Err:        errors.Join(ErrUpstreamUnavailable, err),
	}
}

// StoreUnavailable creates the error returned on a key-value store outage.
func StoreUnavailable(err error) *AppError {
	return &AppError{
		Code:       "store_unavailable",
		Message:    "storage temporarily unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Err:        errors.Join(ErrStoreUnavailable, err),
	}
}

// RateLimited creates a rate limited error.
func RateLimited(message string) *AppError {
	if message == "" {
		message = "too many requests"
	}
	return &AppError{
		Code:       "rate_limited",
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		Err:        ErrRateLimited,
	}
}

// BadRequest creates a bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "bad_request",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// Internal creates an internal error.
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       "internal_error",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrQuotaExhausted):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstreamMalformed), errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
