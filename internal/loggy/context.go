package loggy

import (
	"context"
)

type contextKey string

const (
	loggerKey       contextKey = "logger"
	generationIDKey contextKey = "generation_id"
)

// FromContext retrieves the logger from the context, falling back to the
// global logger when none is attached
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return globalLogger
	}

	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}

	return globalLogger
}

// WithLogger returns a new context with the logger attached
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// GetGenerationID retrieves the generation ID from the context
func GetGenerationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if id, ok := ctx.Value(generationIDKey).(string); ok {
		return id
	}

	return ""
}

// WithGenerationID returns a new context with the generation ID attached,
// and a logger enriched with it for downstream log lines
func WithGenerationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = context.WithValue(ctx, generationIDKey, id)

	if logger := FromContext(ctx); logger != nil {
		ctx = WithLogger(ctx, logger.With("generation_id", id))
	}

	return ctx
}
