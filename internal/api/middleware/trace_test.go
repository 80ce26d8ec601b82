package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/stockq/internal/api/shared"
	"github.com/marketlens/stockq/internal/platform/logger"
)

func TestTraceMiddlewareSetsTraceID(t *testing.T) {
	var gotTraceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = shared.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()

	TraceMiddleware(next).ServeHTTP(w, req)

	require.NotEmpty(t, gotTraceID)
	_, err := uuid.Parse(gotTraceID)
	assert.NoError(t, err, "trace ID should be a valid UUID")
}

func TestTraceMiddlewareStoresContextLogger(t *testing.T) {
	var buf strings.Builder
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("handler ran")
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), base))
	w := httptest.NewRecorder()

	TraceMiddleware(next).ServeHTTP(w, req)

	logOutput := buf.String()
	assert.Contains(t, logOutput, "request started")
	assert.Contains(t, logOutput, "handler ran")
	assert.Contains(t, logOutput, "trace_id="+traceID)
}
