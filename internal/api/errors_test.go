package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketlens/stockq/internal/domain"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "admission denied", err: domain.ErrAdmissionDenied, expected: http.StatusTooManyRequests},
		{name: "task not found", err: domain.ErrTaskNotFound, expected: http.StatusNotFound},
		{name: "batch not found", err: domain.ErrBatchNotFound, expected: http.StatusNotFound},
		{name: "invalid id", err: domain.ErrInvalidID, expected: http.StatusBadRequest},
		{name: "empty user id", err: domain.ErrEmptyUserID, expected: http.StatusBadRequest},
		{name: "empty symbol", err: domain.ErrEmptySymbol, expected: http.StatusBadRequest},
		{name: "no symbols", err: domain.ErrNoSymbols, expected: http.StatusBadRequest},
		{name: "wrapped domain error", err: fmt.Errorf("batch id %q: %w", "nope", domain.ErrInvalidID), expected: http.StatusBadRequest},
		{name: "unknown error", err: errors.New("redis connection refused"), expected: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: "An unexpected error occurred"},
		{name: "admission denied", err: domain.ErrAdmissionDenied, expected: "Concurrency limit reached, retry later"},
		{name: "task not found", err: domain.ErrTaskNotFound, expected: "Task not found"},
		{name: "batch not found", err: domain.ErrBatchNotFound, expected: "Batch not found"},
		{name: "empty user id", err: domain.ErrEmptyUserID, expected: "User ID is required"},
		{name: "empty symbol", err: domain.ErrEmptySymbol, expected: "Symbol is required"},
		{name: "no symbols", err: domain.ErrNoSymbols, expected: "At least one symbol is required"},
		{name: "invalid id", err: domain.ErrInvalidID, expected: "Invalid request data"},
		{name: "unknown error hides detail", err: errors.New("redis connection refused"), expected: "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GetSafeErrorMessage(tc.err))
		})
	}
}
