package shared

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for context values stored by this package.
type ContextKey string

// TraceIDKey is the key under which a request's trace ID is stored.
const TraceIDKey ContextKey = "traceID"

// SetTraceID stamps the context with a fresh trace ID so logs and error
// responses for one request can be correlated.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// GetTraceID returns the trace ID from the context, or "" when none is set.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}
