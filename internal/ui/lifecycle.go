package ui

import (
	"fyne.io/fyne/v2"

	tlapp "github.com/tunelink/tunelink/internal/app"
	"github.com/tunelink/tunelink/internal/notifications"
)

func startNotificationService(dep RuntimeDependencies, fyApp fyne.App) {
	if dep.Actions.OnStartNotifications == nil {
		appLogger().Debug("skipping notifications: no notification hook")
		return
	}

	dep.Actions.OnStartNotifications(NewFyneNotificationSender(
		fyApp,
		notifications.NewDesktopSender(tlapp.DisplayName, appLogger()),
	))
}
