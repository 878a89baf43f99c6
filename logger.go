package signspace

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with signspace-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithMap adds a map id field to the logger.
func (l *Logger) WithMap(mapID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("map_id", mapID),
	}
}

// WithReference adds a reference id field to the logger.
func (l *Logger) WithReference(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("reference_id", id),
	}
}

// LogAddReference logs an add-reference operation.
func (l *Logger) LogAddReference(ctx context.Context, mapID string, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add reference failed",
			"map_id", mapID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "reference added",
			"map_id", mapID,
			"reference_id", id,
		)
	}
}

// LogUpdateReference logs an update-reference operation.
func (l *Logger) LogUpdateReference(ctx context.Context, mapID string, id uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "update reference failed",
			"map_id", mapID,
			"reference_id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "reference updated",
			"map_id", mapID,
			"reference_id", id,
		)
	}
}

// LogRemoveReference logs a remove-reference operation.
func (l *Logger) LogRemoveReference(ctx context.Context, mapID string, id uint64, removed bool) {
	l.DebugContext(ctx, "reference removed",
		"map_id", mapID,
		"reference_id", id,
		"removed", removed,
	)
}

// LogConnect logs a connect operation.
func (l *Logger) LogConnect(ctx context.Context, mapID string, source, target uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "connect failed",
			"map_id", mapID,
			"source", source,
			"target", target,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "references connected",
			"map_id", mapID,
			"source", source,
			"target", target,
		)
	}
}

// LogQuery logs a proximity query.
func (l *Logger) LogQuery(ctx context.Context, mapID string, radius float64, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "proximity query failed",
			"map_id", mapID,
			"radius", radius,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "proximity query completed",
			"map_id", mapID,
			"radius", radius,
			"results", results,
		)
	}
}

// LogValidate logs a coherence validation run.
func (l *Logger) LogValidate(ctx context.Context, mapID string, issues int, score float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "coherence validation failed",
			"map_id", mapID,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "coherence validation completed",
			"map_id", mapID,
			"issues", issues,
			"score", score,
		)
	}
}

// LogOptimize logs a layout optimization run.
func (l *Logger) LogOptimize(ctx context.Context, mapID string, moved int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "layout optimization failed",
			"map_id", mapID,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "layout optimization completed",
			"map_id", mapID,
			"moved", moved,
		)
	}
}

// LogSnapshot logs a snapshot export or import.
func (l *Logger) LogSnapshot(ctx context.Context, mapID string, direction string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"map_id", mapID,
			"direction", direction,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"map_id", mapID,
			"direction", direction,
		)
	}
}
