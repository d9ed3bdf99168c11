package web

import (
	"context"
	"log/slog"
)

// contextKey is a custom type used for creating context keys.
// Using a custom type for context keys helps prevent collisions between keys
// defined in different packages.
type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	loggerContextKey    contextKey = "logger"
	csrfTokenContextKey contextKey = "csrf_token"
)

// GetRequestID extracts request ID from context / Extrait l'ID de la requête du contexte
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFrom returns the request-scoped logger, or the default one.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// csrfTokenFrom returns the token set by the CSRF middleware for this request.
func csrfTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenContextKey).(string)
	return token
}
