package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const traceIDKey ctxKey = 1

// WithTraceID stores the trace id of a request in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceId returns the trace id stored in ctx, or "Unknown".
func GetTraceId(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDKey).(string)
	if !ok || traceID == "" {
		return "Unknown"
	}
	return traceID
}

func GetTraceIdOfRequest(c *gin.Context) string {
	return GetTraceId(c.Request.Context())
}
