package ui

import (
	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	tlapp "github.com/tunelink/tunelink/internal/app"
	"github.com/tunelink/tunelink/internal/events"
)

var newFyneApp = func() fyne.App {
	return fyneapp.NewWithID("io.github.tunelink")
}

func Run(dep RuntimeDependencies) error {
	return runWithApp(dep, newFyneApp())
}

func runWithApp(dep RuntimeDependencies, fyApp fyne.App) error {
	appLogger().Info("starting UI runtime", "start_hidden", dep.Launch.StartHidden)

	hooks := resolveHooks(dep.UIHooks)
	initialStatus := initialConnStatus(dep)

	window := fyApp.NewWindow(tlapp.WindowTitle())
	window.Resize(fyne.NewSize(900, 700))
	if dep.UIHooks.CurrentWindow == nil {
		hooks.currentWindow = func() fyne.Window { return window }
	}

	view := buildMainView(dep, window, hooks, initialStatus)
	view.loadJournal(dep)
	window.SetContent(view.content)

	startNotificationService(dep, fyApp)

	stopUIListeners := startUIEventListeners(dep.Data.Bus, uiEventHandlers{
		onConnStatus: func(status events.ConnectionStatus) {
			hooks.runOnUI(func() { view.handleConnStatus(status) })
		},
		onFrame: func(frame events.RawFrame) {
			hooks.runOnUI(func() { view.handleFrame(frame) })
		},
		onError: func(ev events.ErrorEvent) {
			hooks.runOnUI(func() { view.handleError(hooks, ev) })
		},
	})

	onQuit := func() {
		if dep.Actions.Session != nil {
			dep.Actions.Session.DisconnectDevice()
		}
		if dep.Actions.OnQuit != nil {
			dep.Actions.OnQuit()
		}
	}
	uiRuntime := newUIRuntime(fyApp, window, stopUIListeners, onQuit)
	uiRuntime.BindCloseIntercept()

	var disconnect func()
	if dep.Actions.Session != nil {
		disconnect = dep.Actions.Session.DisconnectDevice
	}
	configureSystemTray(fyApp, window, disconnect, uiRuntime.Quit)

	uiRuntime.Run(dep.Launch.StartHidden)

	return nil
}
