package transport

import "log/slog"

// transportLogger tags records with the bus kind and the device it is bound to.
func transportLogger(name, resource string, attrs ...any) *slog.Logger {
	logger := slog.With("component", "transport", "transport", name, "resource", resource)
	if len(attrs) == 0 {
		return logger
	}

	return logger.With(attrs...)
}
