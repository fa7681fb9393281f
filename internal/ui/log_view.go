package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const maxLogLines = 2000

// logView is the read-only traffic log. All methods must run on the UI goroutine.
type logView struct {
	lines   []string
	list    *widget.List
	clear   *widget.Button
	content fyne.CanvasObject
}

func newLogView(onClear func() error, hooks uiHooks) *logView {
	v := &logView{}
	v.list = widget.NewList(
		func() int { return len(v.lines) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, object fyne.CanvasObject) {
			label, ok := object.(*widget.Label)
			if !ok || id < 0 || id >= len(v.lines) {
				return
			}
			label.SetText(v.lines[id])
		},
	)

	v.clear = widget.NewButton("Clear log", func() {
		if onClear != nil {
			if err := onClear(); err != nil {
				hooks.showError("Clear journal failed", err)
				return
			}
		}
		v.Reset(nil)
	})

	v.content = container.NewBorder(
		container.NewHBox(widget.NewLabel("Log"), v.clear),
		nil, nil, nil,
		v.list,
	)

	return v
}

func (v *logView) Content() fyne.CanvasObject {
	return v.content
}

func (v *logView) Append(line string) {
	v.lines = append(v.lines, line)
	if overflow := len(v.lines) - maxLogLines; overflow > 0 {
		v.lines = append([]string(nil), v.lines[overflow:]...)
	}
	v.list.Refresh()
	v.list.ScrollToBottom()
}

func (v *logView) Reset(lines []string) {
	v.lines = append([]string(nil), lines...)
	if overflow := len(v.lines) - maxLogLines; overflow > 0 {
		v.lines = v.lines[overflow:]
	}
	v.list.Refresh()
	v.list.ScrollToBottom()
}

func (v *logView) Lines() []string {
	return append([]string(nil), v.lines...)
}
