package ui

import (
	"context"
	"errors"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"

	tlapp "github.com/tunelink/tunelink/internal/app"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/tuning"
)

const (
	sendTimeout        = 5 * time.Second
	journalLoadTimeout = 5 * time.Second
)

type mainView struct {
	content             fyne.CanvasObject
	panel               *connectionPanel
	pidTab              *commandTab
	poseTab             *commandTab
	log                 *logView
	connStatusPresenter *connectionStatusPresenter
}

func buildMainView(dep RuntimeDependencies, window fyne.Window, hooks uiHooks, initialStatus events.ConnectionStatus) *mainView {
	view := &mainView{}

	form := newConnectionForm(dep.Data.Config.Connection, hooks.listSerialPorts)
	view.panel = newConnectionPanel(form, dep.Actions.Session, hooks)
	view.log = newLogView(dep.Actions.OnClearJournal, hooks)

	sendCommand := func(command string) {
		view.sendCommand(dep.Actions.Session, hooks, command)
	}
	onInvalid := func(err error) {
		hooks.showError("Invalid value", err)
	}
	view.pidTab = newPIDTab(dep.Data.Config.Tuning, sendCommand, onInvalid)
	view.poseTab = newPoseTab(dep.Data.Config.Tuning, sendCommand, onInvalid)

	view.connStatusPresenter = newConnectionStatusPresenter(
		window,
		view.panel.statusLabel,
		view.panel.toggle,
		form,
		initialStatus,
		view.pidTab.send,
		view.poseTab.send,
	)
	view.panel.bindPresenter(view.connStatusPresenter)

	tabs := container.NewAppTabs(
		container.NewTabItem("PID", view.pidTab.Content()),
		container.NewTabItem("Pose", view.poseTab.Content()),
	)
	split := container.NewVSplit(tabs, view.log.Content())
	split.Offset = 0.35

	view.content = container.NewBorder(view.panel.Content(), nil, nil, nil, split)

	return view
}

// sendCommand writes command off the UI goroutine. The log line comes back through the bus.
func (v *mainView) sendCommand(session SessionController, hooks uiHooks, command string) {
	if session == nil {
		hooks.showError("Send failed", errSessionUnavailable)
		return
	}
	appLogger().Debug("sending tuning command", "command", tuning.Describe(command))
	hooks.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := session.SendText(ctx, command); err != nil {
			hooks.runOnUI(func() {
				hooks.showError("Send failed", err)
			})
		}
	})
}

// loadJournal fills the log view with the persisted tail of the journal.
func (v *mainView) loadJournal(dep RuntimeDependencies) {
	if dep.Data.LoadJournal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalLoadTimeout)
	defer cancel()

	entries, err := dep.Data.LoadJournal(ctx)
	if err != nil {
		appLogger().Warn("load journal", "error", err)
		return
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, tlapp.LogLine(entry))
	}
	v.log.Reset(lines)
}

func (v *mainView) handleConnStatus(status events.ConnectionStatus) {
	v.connStatusPresenter.Set(status)
	if entry, ok := tlapp.JournalEntryFor(status); ok {
		v.log.Append(tlapp.LogLine(entry))
	}
}

func (v *mainView) handleFrame(frame events.RawFrame) {
	if entry, ok := tlapp.JournalEntryFor(frame); ok {
		v.log.Append(tlapp.LogLine(entry))
	}
}

func (v *mainView) handleError(hooks uiHooks, ev events.ErrorEvent) {
	if entry, ok := tlapp.JournalEntryFor(ev); ok {
		v.log.Append(tlapp.LogLine(entry))
	}
	hooks.showError("Connection error", errorFromEvent(ev))
}

func errorFromEvent(ev events.ErrorEvent) error {
	if ev.Message == "" {
		return errors.New("unknown receive failure")
	}

	return errors.New(ev.Message)
}
