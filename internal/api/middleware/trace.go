package middleware

import (
	"log/slog"
	"net/http"

	"github.com/marketlens/stockq/internal/api/shared"
	"github.com/marketlens/stockq/internal/platform/logger"
)

// TraceMiddleware assigns each request a trace ID and stores a logger
// carrying that ID in the request context. Apply it before any handler
// that logs or responds with errors.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := logger.FromContext(ctx).With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
