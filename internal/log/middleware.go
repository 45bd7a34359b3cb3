package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

// LoggerContextKey is the context key for the request-scoped logger.
const LoggerContextKey ContextKey = "logger"

// Middleware adds the logger to every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithRequestID returns a request context whose logger carries the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := FromContext(ctx).With(FieldRequestID, requestID)
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Fall back to the process default logger
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}
