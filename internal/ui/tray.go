package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	tlapp "github.com/tunelink/tunelink/internal/app"
)

func configureSystemTray(fyApp fyne.App, window fyne.Window, disconnect func(), quit func()) bool {
	desk, ok := fyApp.(desktop.App)
	if !ok {
		return false
	}

	desk.SetSystemTrayIcon(theme.ComputerIcon())
	desk.SetSystemTrayMenu(fyne.NewMenu(tlapp.DisplayName,
		fyne.NewMenuItem("Show", func() {
			appLogger().Debug("system tray show action invoked")
			window.Show()
			window.RequestFocus()
		}),
		fyne.NewMenuItem("Disconnect", func() {
			appLogger().Debug("system tray disconnect action invoked")
			if disconnect != nil {
				go disconnect()
			}
		}),
		fyne.NewMenuItem("Quit", func() {
			appLogger().Debug("system tray quit action invoked")
			quit()
		}),
	))

	return true
}
