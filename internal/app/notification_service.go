package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/config"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/notifications"
)

// NotificationService listens to bus events and emits user-facing notifications.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	sender        notifications.Sender
	logger        *slog.Logger

	connStatusMu     sync.Mutex
	lastConnState    events.ConnectionState
	lastConnStateSet bool
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		sender:        sender,
		logger:        logger,
	}
}

func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	connSub := s.bus.Subscribe(events.TopicConnStatus)

	go func() {
		defer s.bus.Unsubscribe(connSub, events.TopicConnStatus)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-connSub:
				if !ok {
					return
				}
				status, ok := raw.(events.ConnectionStatus)
				if !ok {
					continue
				}
				s.handleConnectionStatus(status)
			}
		}
	}()
}

// handleConnectionStatus notifies once per transition into a disconnect caused by a failure.
func (s *NotificationService) handleConnectionStatus(status events.ConnectionStatus) {
	if status.State == "" {
		return
	}

	s.connStatusMu.Lock()
	if s.lastConnStateSet && s.lastConnState == status.State {
		s.connStatusMu.Unlock()

		return
	}
	s.lastConnState = status.State
	s.lastConnStateSet = true
	s.connStatusMu.Unlock()

	if status.State != events.ConnectionStateDisconnected {
		return
	}
	errText := strings.TrimSpace(status.Err)
	if errText == "" {
		return
	}
	if !s.notificationPrefs().SessionLost {
		return
	}

	s.send(notifications.SessionLost(TransportDisplayName(status.TransportName), status.Target, errText))
}

func (s *NotificationService) notificationPrefs() config.NotificationConfig {
	cfg := config.Default()
	if s.currentConfig != nil {
		cfg = s.currentConfig()
	}

	return cfg.Notifications
}

func (s *NotificationService) send(notification notifications.Payload) {
	notification, ok := notification.Normalized()
	if !ok {
		return
	}
	s.logger.Debug("sending notification", "title", notification.Title)
	s.sender.Send(notification)
}
