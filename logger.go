package strarena

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pool-specific context.
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
// This is the default for new pools.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPool adds a pool ID field to the logger.
func (l *Logger) WithPool(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pool", id),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogInit logs pool initialization. size is the reserved arena size in bytes.
func (l *Logger) LogInit(ctx context.Context, cfg Config, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "pool initialization failed",
			"estimated_count", cfg.EstimatedCount,
			"estimated_length", cfg.EstimatedLength,
			"encoding", cfg.Encoding.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "pool initialized",
			"estimated_count", cfg.EstimatedCount,
			"estimated_length", cfg.EstimatedLength,
			"encoding", cfg.Encoding.String(),
			"size", size,
		)
	}
}

// LogExhausted logs a Get that did not fit in the remaining arena space.
func (l *Logger) LogExhausted(ctx context.Context, requested int, remaining uint64) {
	l.DebugContext(ctx, "arena exhausted",
		"requested", requested,
		"remaining", remaining,
	)
}

// LogReset logs a reset. generation is the arena generation after the reset.
func (l *Logger) LogReset(ctx context.Context, generation uint32, err error) {
	if err != nil {
		l.WarnContext(ctx, "reset failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "pool reset",
			"generation", generation,
		)
	}
}

// LogFree logs the release of a pool's arena.
func (l *Logger) LogFree(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "free failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "pool freed")
	}
}

// LogFork logs the creation of a forked pool.
func (l *Logger) LogFork(ctx context.Context, child string, err error) {
	if err != nil {
		l.WarnContext(ctx, "fork failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "pool forked",
			"child", child,
		)
	}
}

// LogFanOut logs a completed fan-out.
func (l *Logger) LogFanOut(ctx context.Context, values, workers int, err error) {
	if err != nil {
		l.WarnContext(ctx, "fan-out failed",
			"values", values,
			"workers", workers,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "fan-out completed",
			"values", values,
			"workers", workers,
		)
	}
}
