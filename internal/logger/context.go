package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	wsClientIDKey  contextKey = "ws_client_id"
	discoveryIDKey contextKey = "discovery_id"
)

// ============================================
// Context operations
// ============================================

// WithRequestID stores the request ID in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithClientID stores the websocket client ID in ctx
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, wsClientIDKey, clientID)
}

// WithDiscoveryID stores the ID of a discovery run in ctx
func WithDiscoveryID(ctx context.Context, discoveryID string) context.Context {
	return context.WithValue(ctx, discoveryIDKey, discoveryID)
}

// GetRequestID reads the request ID from ctx
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// ============================================
// Context-aware logging
// ============================================

// FromContext returns a logger carrying request_id, ws_client_id and
// discovery_id when they are present in ctx
func FromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if ctx == nil {
		return logger
	}

	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	if clientID, ok := ctx.Value(wsClientIDKey).(string); ok && clientID != "" {
		fields = append(fields, "ws_client_id", clientID)
	}

	if discoveryID, ok := ctx.Value(discoveryIDKey).(string); ok && discoveryID != "" {
		fields = append(fields, "discovery_id", discoveryID)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// CtxDebug logs debug with context fields
func CtxDebug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// CtxInfo logs info with context fields
func CtxInfo(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// CtxWarn logs a warning with context fields
func CtxWarn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// CtxError logs an error with context fields
func CtxError(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}

// CtxWithError logs err together with context fields
func CtxWithError(ctx context.Context, msg string, err error, args ...any) {
	fields := append([]any{"error", err.Error()}, args...)
	FromContext(ctx).Error(msg, fields...)
}
