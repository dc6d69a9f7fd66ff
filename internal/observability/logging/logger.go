// Package logging provides structured logging helpers on top of log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/handler/http/requestid"
)

// NewLogger creates a JSON logger on stdout. LOG_LEVEL selects
// debug, info, warn or error (default info).
func NewLogger() *slog.Logger {
	return newLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, level string) *slog.Logger {
	logLevel := ParseLevel(level)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelDebug,
	})
	return slog.New(handler)
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// WithRequestID returns a logger annotated with the request ID from ctx, if any.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}

// WithJob returns a logger annotated with the queue job being processed.
func WithJob(logger *slog.Logger, job *entity.Job) *slog.Logger {
	return logger.With(
		slog.Int64("job_id", job.ID),
		slog.String("job_kind", string(job.Kind)),
		slog.Int64("subject_id", job.SubjectID),
		slog.Int("attempt", job.Attempts),
	)
}

// FromContext retrieves the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
