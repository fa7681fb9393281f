package ui

import (
	"context"
	"strings"
	"sync"
	"testing"

	"fyne.io/fyne/v2"
	fynetest "fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	"github.com/tunelink/tunelink/internal/transport"
)

type appRunQuitSpy struct {
	fyne.App
	runCalls  int
	quitCalls int
}

func (a *appRunQuitSpy) Run() {
	a.runCalls++
}

func (a *appRunQuitSpy) Quit() {
	a.quitCalls++
}

type appRunWindowSpy struct {
	fyne.App
	runCalls      int
	createdWindow *windowSpy
}

func (a *appRunWindowSpy) Run() {
	a.runCalls++
}

func (a *appRunWindowSpy) NewWindow(title string) fyne.Window {
	window := &windowSpy{Window: a.App.NewWindow(title)}
	a.createdWindow = window

	return window
}

type trayAppSpy struct {
	fyne.App
	trayMenu *fyne.Menu
	trayIcon fyne.Resource
}

func (a *trayAppSpy) SetSystemTrayMenu(menu *fyne.Menu) {
	a.trayMenu = menu
}

func (a *trayAppSpy) SetSystemTrayIcon(icon fyne.Resource) {
	a.trayIcon = icon
}

func (a *trayAppSpy) SetSystemTrayWindow(fyne.Window) {}

type windowSpy struct {
	fyne.Window
	showCalls      int
	hideCalls      int
	focusCalls     int
	closeIntercept func()
}

func (w *windowSpy) Show() {
	w.showCalls++
	if w.Window != nil {
		w.Window.Show()
	}
}

func (w *windowSpy) Hide() {
	w.hideCalls++
	if w.Window != nil {
		w.Window.Hide()
	}
}

func (w *windowSpy) RequestFocus() {
	w.focusCalls++
	if w.Window != nil {
		w.Window.RequestFocus()
	}
}

func (w *windowSpy) SetCloseIntercept(fn func()) {
	w.closeIntercept = fn
	if w.Window != nil {
		w.Window.SetCloseIntercept(fn)
	}
}

type sessionSpy struct {
	mu sync.Mutex

	connectErr   error
	sendErr      error
	connected    bool
	connectCalls int
	disconnects  int
	lastKind     transport.Kind
	lastParams   transport.Params
	sent         []string
}

func (s *sessionSpy) ConnectDevice(_ context.Context, kind transport.Kind, params transport.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectCalls++
	s.lastKind = kind
	s.lastParams = params
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *sessionSpy) DisconnectDevice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	s.connected = false
}

func (s *sessionSpy) SendText(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, text)
	return nil
}

func (s *sessionSpy) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

type errorDialogSpy struct {
	errs []error
}

func (d *errorDialogSpy) show(err error, _ fyne.Window) {
	d.errs = append(d.errs, err)
}

// syncHooks runs async work inline and records error dialogs.
func syncHooks(t *testing.T, dialogs *errorDialogSpy) uiHooks {
	t.Helper()

	fynetest.NewTempApp(t)
	window := fynetest.NewTempWindow(t, widget.NewLabel(""))
	return resolveHooks(UIHooks{
		CurrentWindow:   func() fyne.Window { return window },
		RunOnUI:         func(fn func()) { fn() },
		RunAsync:        func(fn func()) { fn() },
		ShowErrorDialog: dialogs.show,
		ListSerialPorts: func() ([]string, error) { return nil, nil },
	})
}

func mustFindButtonByText(t *testing.T, root fyne.CanvasObject, text string) *widget.Button {
	t.Helper()
	for _, object := range fynetest.LaidOutObjects(root) {
		button, ok := object.(*widget.Button)
		if !ok {
			continue
		}
		if strings.TrimSpace(button.Text) == text {
			return button
		}
	}
	t.Fatalf("button %q not found", text)

	return nil
}

func mustFindEntryByPlaceholder(t *testing.T, root fyne.CanvasObject, placeholder string) *widget.Entry {
	t.Helper()
	for _, object := range fynetest.LaidOutObjects(root) {
		entry, ok := object.(*widget.Entry)
		if !ok {
			continue
		}
		if strings.TrimSpace(entry.PlaceHolder) == placeholder {
			return entry
		}
	}
	t.Fatalf("entry with placeholder %q not found", placeholder)

	return nil
}
