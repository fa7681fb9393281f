package ui

import (
	"context"
	"errors"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tunelink/tunelink/internal/events"
)

const connectTimeout = 10 * time.Second

var errSessionUnavailable = errors.New("session controller is not available")

// connectionPanel owns the connect/disconnect toggle. Widget state follows bus status events
// through the presenter; the panel only starts the work.
type connectionPanel struct {
	form        *connectionForm
	toggle      *widget.Button
	statusLabel *widget.Label
	session     SessionController
	hooks       uiHooks
	presenter   *connectionStatusPresenter
	content     fyne.CanvasObject
}

func newConnectionPanel(form *connectionForm, session SessionController, hooks uiHooks) *connectionPanel {
	p := &connectionPanel{
		form:        form,
		statusLabel: widget.NewLabel(""),
		session:     session,
		hooks:       hooks,
	}
	p.statusLabel.Truncation = fyne.TextTruncateEllipsis
	p.toggle = widget.NewButton("Connect", p.onToggle)
	p.toggle.Importance = widget.HighImportance

	p.content = widget.NewCard("Connection", "", container.NewVBox(
		form.Content(),
		container.NewBorder(nil, nil, nil, p.toggle, p.statusLabel),
	))

	return p
}

func (p *connectionPanel) Content() fyne.CanvasObject {
	return p.content
}

func (p *connectionPanel) bindPresenter(presenter *connectionStatusPresenter) {
	p.presenter = presenter
}

func (p *connectionPanel) connected() bool {
	if p.presenter != nil && p.presenter.CurrentStatus().State == events.ConnectionStateConnected {
		return true
	}

	return p.session != nil && p.session.IsConnected()
}

func (p *connectionPanel) onToggle() {
	if p.session == nil {
		p.hooks.showError("Connect failed", errSessionUnavailable)
		return
	}

	p.toggle.Disable()
	if p.connected() {
		appLogger().Info("disconnect requested")
		p.hooks.runAsync(func() {
			p.session.DisconnectDevice()
			p.hooks.runOnUI(p.toggle.Enable)
		})
		return
	}

	kind := p.form.Kind()
	params := p.form.Params()
	appLogger().Info("connect requested", "protocol", kind)
	p.hooks.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		err := p.session.ConnectDevice(ctx, kind, params)
		p.hooks.runOnUI(func() {
			p.toggle.Enable()
			if err != nil {
				p.hooks.showError("Connect failed", err)
			}
		})
	})
}
