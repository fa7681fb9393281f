package ui

import "log/slog"

// appLogger resolves the default logger lazily so it picks up the configured handler.
func appLogger() *slog.Logger {
	return slog.Default().With("component", "ui")
}
