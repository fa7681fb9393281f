package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"go.bug.st/serial"
)

type uiHooks struct {
	currentWindow   func() fyne.Window
	runOnUI         func(func())
	runAsync        func(func())
	showErrorDialog func(err error, window fyne.Window)
	listSerialPorts func() ([]string, error)
}

func resolveHooks(h UIHooks) uiHooks {
	hooks := uiHooks{
		currentWindow:   h.CurrentWindow,
		runOnUI:         h.RunOnUI,
		runAsync:        h.RunAsync,
		showErrorDialog: h.ShowErrorDialog,
		listSerialPorts: h.ListSerialPorts,
	}
	if hooks.currentWindow == nil {
		hooks.currentWindow = currentWindow
	}
	if hooks.runOnUI == nil {
		hooks.runOnUI = fyne.Do
	}
	if hooks.runAsync == nil {
		hooks.runAsync = func(fn func()) {
			go fn()
		}
	}
	if hooks.showErrorDialog == nil {
		hooks.showErrorDialog = dialog.ShowError
	}
	if hooks.listSerialPorts == nil {
		hooks.listSerialPorts = serial.GetPortsList
	}

	return hooks
}

// showError logs err and shows it in a dialog when a window is available.
func (h uiHooks) showError(what string, err error) {
	if err == nil {
		return
	}
	appLogger().Warn(what, "error", err)
	window := h.currentWindow()
	if window == nil {
		return
	}
	h.showErrorDialog(fmt.Errorf("%s: %w", what, err), window)
}

func currentWindow() fyne.Window {
	currentApp := fyne.CurrentApp()
	if currentApp == nil || currentApp.Driver() == nil {
		return nil
	}
	windows := currentApp.Driver().AllWindows()
	if len(windows) == 0 {
		return nil
	}
	return windows[0]
}

func setVisible(visible bool, objects ...fyne.CanvasObject) {
	for _, object := range objects {
		if visible {
			object.Show()
			continue
		}
		object.Hide()
	}
}

func setEnabled(enabled bool, widgets ...fyne.Disableable) {
	for _, w := range widgets {
		if enabled {
			w.Enable()
			continue
		}
		w.Disable()
	}
}

func uniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		unique = append(unique, trimmed)
	}
	return unique
}
