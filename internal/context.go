package internal

import (
	"context"
	"time"
)

type ctxKey string

const contextOperatorKey ctxKey = "operatorKey"

// ContextWithOperator records the authenticated operator's identity key on the
// request context. Set by the auth middleware.
func ContextWithOperator(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextOperatorKey, key)
}

// OperatorFromContext returns the operator key for the request, or empty when
// the request is unauthenticated.
func OperatorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if key, ok := ctx.Value(contextOperatorKey).(string); ok {
		return key
	}
	return ""
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
