package ui

import (
	"fyne.io/fyne/v2"

	"github.com/tunelink/tunelink/internal/notifications"
)

// FyneNotificationSender shows notifications through the running Fyne app. Payloads sent
// before the app is available go to the fallback sender.
type FyneNotificationSender struct {
	app      fyne.App
	fallback notifications.Sender
}

func NewFyneNotificationSender(app fyne.App, fallback notifications.Sender) *FyneNotificationSender {
	return &FyneNotificationSender{app: app, fallback: fallback}
}

func (s *FyneNotificationSender) Send(notification notifications.Payload) {
	if s == nil {
		return
	}

	notification, ok := notification.Normalized()
	if !ok {
		return
	}
	if s.app == nil {
		if s.fallback != nil {
			s.fallback.Send(notification)
		}
		return
	}

	fyne.Do(func() {
		s.app.SendNotification(fyne.NewNotification(notification.Title, notification.Content))
	})
}
