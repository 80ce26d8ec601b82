package api

import (
	"errors"
	"net/http"

	"github.com/marketlens/stockq/internal/domain"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Admission control: the caller may retry later
	case errors.Is(err, domain.ErrAdmissionDenied):
		return http.StatusTooManyRequests

	// Not found errors
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrBatchNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyUserID),
		errors.Is(err, domain.ErrEmptySymbol),
		errors.Is(err, domain.ErrNoSymbols):
		return http.StatusBadRequest

	// Default: internal server error (store/infrastructure failures)
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrAdmissionDenied):
		return "Concurrency limit reached, retry later"

	case errors.Is(err, domain.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrBatchNotFound):
		return "Batch not found"

	case errors.Is(err, domain.ErrEmptyUserID):
		return "User ID is required"

	case errors.Is(err, domain.ErrEmptySymbol):
		return "Symbol is required"

	case errors.Is(err, domain.ErrNoSymbols):
		return "At least one symbol is required"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}
