package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context information.
type LogContext struct {
	UserID     string
	RecipeID   string
	Provider   string
	Ingredient string
	TraceID    string
}

// contextKey is used for context values.
type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithUserID adds a user ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	lc := extractLogContext(ctx)
	lc.UserID = userID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRecipeID adds a recipe ID to the context.
func WithRecipeID(ctx context.Context, recipeID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RecipeID = recipeID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithProvider adds an external provider name to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	lc := extractLogContext(ctx)
	lc.Provider = provider
	return context.WithValue(ctx, logContextKey, lc)
}

// WithIngredient adds an ingredient name to the context.
func WithIngredient(ctx context.Context, name string) context.Context {
	lc := extractLogContext(ctx)
	lc.Ingredient = name
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	lc := extractLogContext(ctx)
	lc.TraceID = traceID
	return context.WithValue(ctx, logContextKey, lc)
}

// extractLogContext retrieves or creates a LogContext from the context.
func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// getLogAttrs returns slog attributes from the context's LogContext.
func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.UserID != "" {
		attrs = append(attrs, slog.String("user.id", lc.UserID))
	}
	if lc.RecipeID != "" {
		attrs = append(attrs, slog.String("recipe.id", lc.RecipeID))
	}
	if lc.Provider != "" {
		attrs = append(attrs, slog.String("provider", lc.Provider))
	}
	if lc.Ingredient != "" {
		attrs = append(attrs, slog.String("ingredient", lc.Ingredient))
	}
	if lc.TraceID != "" {
		attrs = append(attrs, slog.String("trace.id", lc.TraceID))
	}

	return attrs
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelInfo, msg, allAttrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelWarn, msg, allAttrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelError, msg, allAttrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	contextAttrs := getLogAttrs(ctx)
	allAttrs := append(contextAttrs, attrs...)
	slog.LogAttrs(ctx, slog.LevelDebug, msg, allAttrs...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
