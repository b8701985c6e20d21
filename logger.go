package lja

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with lja-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLayer adds a layer field to the logger.
func (l *Logger) WithLayer(layer int) *Logger {
	return &Logger{
		Logger: l.Logger.With("layer", layer),
	}
}

// WithRun adds a run ID field to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithSide adds a decomposition side field to the logger.
func (l *Logger) WithSide(side string) *Logger {
	return &Logger{
		Logger: l.Logger.With("side", side),
	}
}

// LogClusterRun logs a finished clustering run.
func (l *Logger) LogClusterRun(ctx context.Context, layers int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cluster run failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cluster run completed",
			"layers", layers,
			"duration", duration,
		)
	}
}

// LogFeatureBatch logs a finished batch of feature constructions.
func (l *Logger) LogFeatureBatch(ctx context.Context, count int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "feature batch failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "feature batch completed",
			"count", count,
			"duration", duration,
		)
	}
}
