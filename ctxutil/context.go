package ctxutil

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey string

// TraceIDKey is the key under which the trace id travels in contexts, gin
// keys and log fields.
const TraceIDKey = "trace_id"

// TraceIDHeader is the HTTP header used to propagate trace ids.
const TraceIDHeader = "X-Trace-ID"

const traceKey ctxKey = TraceIDKey

// GetTraceID returns the trace id carried by ctx, or an empty string.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceKey).(string); ok {
		return id
	}
	return ""
}

// SetTraceID returns a copy of ctx carrying the given trace id.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey, traceID)
}

// EnsureTraceID returns ctx with a trace id, generating one when absent.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if id := GetTraceID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return SetTraceID(ctx, id), id
}

// Trace is a gin middleware that reads or assigns a trace id for each request
// and stores it on the request context.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(TraceIDHeader); id != "" {
			ctx = SetTraceID(ctx, id)
		}
		ctx, id := EnsureTraceID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// FromGinContext extracts the request context from *gin.Context.
func FromGinContext(c *gin.Context) context.Context {
	return c.Request.Context()
}
