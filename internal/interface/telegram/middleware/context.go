package middleware

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// TelegramIDContextKey is the context key for the Telegram user ID.
	TelegramIDContextKey contextKey = "telegram_id"

	// RequestIDContextKey is the context key for update tracing.
	RequestIDContextKey contextKey = "request_id"
)

// ContextWithTelegramID stores the sender of the update.
func ContextWithTelegramID(ctx context.Context, telegramID int64) context.Context {
	return context.WithValue(ctx, TelegramIDContextKey, telegramID)
}

// TelegramIDFromContext returns the sender of the update, or 0.
func TelegramIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(TelegramIDContextKey).(int64)
	return id
}

// ContextWithRequestID stores the correlation id of the update.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}

// RequestIDFromContext returns the correlation id of the update, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
