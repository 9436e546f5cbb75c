package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	loggerKey       contextKey = "logger"
	invocationIDKey contextKey = "invocation_id"
	functionKey     contextKey = "function"
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, falls back to global
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger.WithContext(ctx)
	}
	return global.WithContext(ctx)
}

// WithInvocation tags ctx with the function name and an invocation ID.
// An empty id is replaced by a fresh UUID.
func WithInvocation(ctx context.Context, function, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	ctx = context.WithValue(ctx, invocationIDKey, id)
	return context.WithValue(ctx, functionKey, function)
}

// InvocationID returns the invocation ID stored in ctx, or ""
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationIDKey).(string)
	return id
}

func contextFields(ctx context.Context) []interface{} {
	var fields []interface{}

	if id, ok := ctx.Value(invocationIDKey).(string); ok && id != "" {
		fields = append(fields, "invocation_id", id)
	}
	if fn, ok := ctx.Value(functionKey).(string); ok && fn != "" {
		fields = append(fields, "function", fn)
	}

	return fields
}
