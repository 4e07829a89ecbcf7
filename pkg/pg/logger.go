package pg

import "context"

// logger is the slice of slog's surface Migrate needs; *slog.Logger
// satisfies it directly.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
