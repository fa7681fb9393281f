package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	tlapp "github.com/tunelink/tunelink/internal/app"
	"github.com/tunelink/tunelink/internal/events"
)

// connectionStatusPresenter maps the session status onto every widget that depends on it.
type connectionStatusPresenter struct {
	window      fyne.Window
	statusLabel *widget.Label
	toggle      *widget.Button
	form        *connectionForm
	sendButtons []*widget.Button

	mu      sync.RWMutex
	current events.ConnectionStatus
}

func newConnectionStatusPresenter(
	window fyne.Window,
	statusLabel *widget.Label,
	toggle *widget.Button,
	form *connectionForm,
	initialStatus events.ConnectionStatus,
	sendButtons ...*widget.Button,
) *connectionStatusPresenter {
	presenter := &connectionStatusPresenter{
		window:      window,
		statusLabel: statusLabel,
		toggle:      toggle,
		form:        form,
		sendButtons: sendButtons,
		current:     initialStatus,
	}
	presenter.applyUI(initialStatus)

	return presenter
}

func (p *connectionStatusPresenter) Set(status events.ConnectionStatus) {
	p.mu.Lock()
	p.current = status
	p.mu.Unlock()
	p.applyUI(status)
}

func (p *connectionStatusPresenter) CurrentStatus() events.ConnectionStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.current
}

func (p *connectionStatusPresenter) applyUI(status events.ConnectionStatus) {
	if p.window != nil {
		p.window.SetTitle(formatWindowTitle(status))
	}
	if p.statusLabel != nil {
		p.statusLabel.SetText(tlapp.StatusLine(status))
	}

	connected := status.State == events.ConnectionStateConnected
	idle := status.State != events.ConnectionStateConnected && status.State != events.ConnectionStateConnecting

	if p.toggle != nil {
		p.toggle.SetText(toggleLabel(status.State))
		setEnabled(status.State != events.ConnectionStateConnecting, p.toggle)
	}
	if p.form != nil {
		p.form.SetEditable(idle)
	}
	for _, button := range p.sendButtons {
		setEnabled(connected, button)
	}
}

func formatWindowTitle(status events.ConnectionStatus) string {
	return tlapp.WindowTitle() + " - " + tlapp.StatusLine(status)
}

func toggleLabel(state events.ConnectionState) string {
	switch state {
	case events.ConnectionStateConnected:
		return "Disconnect"
	case events.ConnectionStateConnecting:
		return "Connecting..."
	default:
		return "Connect"
	}
}

func initialConnStatus(dep RuntimeDependencies) events.ConnectionStatus {
	if dep.Data.CurrentConnStatus != nil {
		if status, ok := dep.Data.CurrentConnStatus(); ok {
			return status
		}
	}

	return events.ConnectionStatus{
		State:         events.ConnectionStateDisconnected,
		TransportName: string(dep.Data.Config.Connection.Protocol),
	}
}
