package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// DesktopSender posts notifications through the OS notification daemon.
// It works without a GUI event loop, so the debug CLI uses it too.
type DesktopSender struct {
	logger *slog.Logger
	notify func(title, message string, icon any) error
}

func NewDesktopSender(appName string, logger *slog.Logger) *DesktopSender {
	if logger == nil {
		logger = slog.Default()
	}
	if name := strings.TrimSpace(appName); name != "" {
		beeep.AppName = name
	}

	return &DesktopSender{
		logger: logger,
		notify: beeep.Notify,
	}
}

func (s *DesktopSender) Send(payload Payload) {
	if s == nil || s.notify == nil {
		return
	}

	payload, ok := payload.Normalized()
	if !ok {
		return
	}

	if err := s.notify(payload.Title, payload.Content, ""); err != nil {
		logger := s.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("desktop notification failed", "title", payload.Title, "error", err)
	}
}
