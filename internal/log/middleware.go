package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Add logger to request context
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: ComponentApp,
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger. A nil logger means
// the slog default.
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	if logger == nil {
		logger = &Logger{Logger: slog.Default(), component: ComponentApp}
	}
	return &StructuredLogger{
		logger: logger,
	}
}

// slogFor prefers the request-scoped logger stored in ctx.
func (sl *StructuredLogger) slogFor(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger.Logger
	}
	return sl.logger.Logger
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.slogFor(ctx).InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.slogFor(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogMutation logs a successful change to the ledger
func (sl *StructuredLogger) LogMutation(ctx context.Context, op, entity, id string) {
	fields := NewFields().
		WithEntity(entity, id).
		WithOperation(op).
		WithComponent(ComponentLedger)

	sl.slogFor(ctx).InfoContext(ctx, "Ledger updated", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)
	
	sl.slogFor(ctx).ErrorContext(ctx, msg, allFields.ToSlice()...)
}

// LogWarn logs a rejected request or other recoverable problem
func (sl *StructuredLogger) LogWarn(ctx context.Context, msg string, err error, errorType string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithErrorType(errorType).
		WithComponent(ComponentHTTP)

	sl.slogFor(ctx).WarnContext(ctx, msg, allFields.ToSlice()...)
}