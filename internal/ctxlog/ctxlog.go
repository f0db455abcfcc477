// Package ctxlog carries a slog.Logger through a context.Context so the
// executor's workers log with the run's attributes attached.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

// With returns a new context holding the logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, key{}, logger)
}

// From extracts the logger from the context, falling back to
// slog.Default when none was attached.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(key{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
