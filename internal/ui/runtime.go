package ui

import (
	"sync"

	"fyne.io/fyne/v2"
)

type uiRuntime struct {
	fyApp  fyne.App
	window fyne.Window

	stopUIListeners func()
	onQuit          func()

	shutdownOnce sync.Once
}

func newUIRuntime(fyApp fyne.App, window fyne.Window, stopUIListeners func(), onQuit func()) *uiRuntime {
	return &uiRuntime{
		fyApp:           fyApp,
		window:          window,
		stopUIListeners: stopUIListeners,
		onQuit:          onQuit,
	}
}

// BindCloseIntercept makes closing the main window end the session and quit.
func (r *uiRuntime) BindCloseIntercept() {
	if r.window == nil {
		return
	}
	r.window.SetCloseIntercept(func() {
		appLogger().Debug("main window close intercepted: quitting")
		r.Quit()
	})
}

func (r *uiRuntime) Quit() {
	r.shutdownOnce.Do(func() {
		appLogger().Info("quitting UI runtime")
		r.stop()
		if r.fyApp != nil {
			r.fyApp.Quit()
		}
	})
}

func (r *uiRuntime) Run(startHidden bool) {
	if r.window != nil {
		r.window.Show()
		if startHidden {
			appLogger().Info("launch option start_hidden is enabled: hiding main window")
			r.window.Hide()
		}
	}
	if r.fyApp != nil {
		r.fyApp.Run()
	}
	appLogger().Info("UI runtime stopped")
	r.shutdownOnce.Do(func() {
		r.stop()
	})
}

func (r *uiRuntime) stop() {
	if r.stopUIListeners != nil {
		r.stopUIListeners()
	}
	if r.onQuit != nil {
		r.onQuit()
	}
}
