// Package logging provides slog helpers used across the application:
// context propagation, structured operation/error logging, and safe closing
// of resources whose Close errors should be logged rather than dropped.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"paradero.urbanbus.org/internal/appconf"
)

type contextKey struct{}

// New creates the process logger. Production gets JSON output; everything
// else gets the text handler for readability.
func New(env appconf.Environment, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if env == appconf.Production {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// LogError logs err with a message and optional attributes.
func LogError(logger *slog.Logger, msg string, err error, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	args = append(args, slog.Any("error", err))
	logger.Error(msg, args...)
}

// LogOperation records a named operation at info level.
func LogOperation(logger *slog.Logger, operation string, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	args = append(args, slog.String("operation", operation))
	logger.Info("operation", args...)
}

// LogHTTPRequest records a completed HTTP request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, args ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	base := []any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}
	logger.Info("http_request", append(base, args...)...)
}

// SafeCloseWithLogging closes c and logs a failure instead of discarding it.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, name string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(logger, "failed to close resource", err, slog.String("resource", name))
	}
}
