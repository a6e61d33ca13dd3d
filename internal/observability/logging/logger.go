// Package logging builds the process-wide slog logger and carries
// request-scoped loggers through contexts.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"news-aggregator/internal/handler/http/requestid"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// Level maps LOG_LEVEL (debug, info, warn, error) to a slog level. Anything
// else is info.
func Level() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a JSON logger on stdout. LOG_FORMAT=text switches to the
// human-readable handler for local runs.
func NewLogger() *slog.Logger {
	return New(os.Stdout, os.Getenv("LOG_FORMAT"))
}

func New(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level()}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// WithRequestID adds request_id and, when a span is active, trace_id.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		logger = logger.With(slog.String("request_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		logger = logger.With(slog.String("trace_id", sc.TraceID().String()))
	}
	return logger
}

// FromContext returns the logger stored by WithLogger or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}
