package contextutil

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	loggerKey      contextKey = "logger"
	executionIDKey contextKey = "execution_id"
)

// LoggerFromContext extracts a logger from context if available, otherwise returns the default logger.
// This helper can be used by any package that needs to extract a logger from context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctxLogger := ctx.Value(loggerKey); ctxLogger != nil {
		if l, ok := ctxLogger.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerKey returns the context key used for storing loggers in context.
// This is exported so middleware can use it to set the logger in context.
func LoggerKey() contextKey {
	return loggerKey
}

// WithExecutionID tags ctx with the id of the batch being executed.
func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionIDKey, id)
}

// ExecutionIDFromContext returns the execution id, or "" if none was set.
func ExecutionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(executionIDKey).(string)
	return id
}
