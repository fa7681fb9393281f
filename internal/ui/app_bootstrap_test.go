package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	fynetest "fyne.io/fyne/v2/test"

	"github.com/tunelink/tunelink/internal/config"
	"github.com/tunelink/tunelink/internal/notifications"
	"github.com/tunelink/tunelink/internal/persistence"
)

func TestRunWithAppBuildsWindowAndLoadsJournal(t *testing.T) {
	base := fynetest.NewTempApp(t)
	app := &appRunWindowSpy{App: base}
	session := &sessionSpy{}

	var notificationSender notifications.Sender
	var quitCalls int
	dep := RuntimeDependencies{
		Data: DataDependencies{
			Config: config.Default(),
			LoadJournal: func(context.Context) ([]persistence.JournalEntry, error) {
				return []persistence.JournalEntry{
					{Kind: persistence.EntrySent, Body: "PID,1.0,0.1,0.01\n", At: time.Now()},
					{Kind: persistence.EntryReceived, Body: "ACK", At: time.Now()},
				}, nil
			},
		},
		Actions: ActionDependencies{
			Session:              session,
			OnStartNotifications: func(sender notifications.Sender) { notificationSender = sender },
			OnQuit:               func() { quitCalls++ },
		},
		UIHooks: UIHooks{
			ListSerialPorts: func() ([]string, error) { return nil, nil },
		},
	}

	if err := runWithApp(dep, app); err != nil {
		t.Fatalf("run: %v", err)
	}
	if app.runCalls != 1 {
		t.Fatalf("expected app run once, got %d", app.runCalls)
	}
	window := app.createdWindow
	if window == nil {
		t.Fatalf("expected main window to be created")
	}
	if !strings.HasPrefix(window.Title(), "TuneLink ") {
		t.Fatalf("unexpected window title %q", window.Title())
	}
	if notificationSender == nil {
		t.Fatalf("expected notification sender to be registered")
	}

	sendButton := mustFindButtonByText(t, window.Content(), "Send PID")
	if !sendButton.Disabled() {
		t.Fatalf("expected send button disabled while disconnected")
	}
	// Run returned, so shutdown already ran once.
	if quitCalls != 1 || session.disconnects != 1 {
		t.Fatalf("expected shutdown to disconnect and quit once, got quit=%d disconnects=%d", quitCalls, session.disconnects)
	}
}
