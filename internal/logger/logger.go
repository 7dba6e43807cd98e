package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

var log *slog.Logger

// Init initialises the global logger
// env: "development" or "production"
func Init(env string) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	if env == "development" {
		// readable text output
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// JSON for log collectors
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log = slog.New(handler)
	slog.SetDefault(log)
}

// GetLogger returns the global logger
func GetLogger() *slog.Logger {
	if log == nil {
		Init("development")
	}
	return log
}

// ============================================
// Convenience functions
// ============================================

// Debug logs a debug message
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn logs a warning
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error logs an error
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal logs and exits with code 1
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

// With returns a logger with extra fields
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// WithError returns a logger with the error field set
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}

// ============================================
// Specialised loggers
// ============================================

// HTTPLog logs an inbound HTTP request
func HTTPLog(method, path string, status int, duration time.Duration, size int) {
	GetLogger().Info("http request",
		"method", method,
		"path", path,
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"size_bytes", size,
	)
}

// UpstreamLog logs one call to the image search API.
// status is 0 when no response was received.
func UpstreamLog(ctx context.Context, endpoint string, status int, duration time.Duration, err error) {
	fields := []any{
		"endpoint", endpoint,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		FromContext(ctx).Error("upstream request failed", fields...)
		return
	}
	if status >= 400 {
		FromContext(ctx).Warn("upstream request rejected", fields...)
		return
	}
	FromContext(ctx).Debug("upstream request", fields...)
}

// DiscoveryLog logs the outcome of one batch attempt
func DiscoveryLog(ctx context.Context, attempt, maxAttempts, batchSize int, found bool) {
	FromContext(ctx).Info("discovery attempt",
		"attempt", attempt,
		"max_attempts", maxAttempts,
		"batch_size", batchSize,
		"found", found,
	)
}
