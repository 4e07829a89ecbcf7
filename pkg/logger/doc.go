// Package logger builds configured slog loggers and provides typed
// attribute helpers for the notifier's structured log vocabulary
// (notification ids, channels, event types, retry counts).
package logger
