package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tunelink/tunelink/internal/config"
	"github.com/tunelink/tunelink/internal/tuning"
)

// commandTab is one tuning form with its send button.
type commandTab struct {
	send    *widget.Button
	content fyne.CanvasObject
}

func newPIDTab(defaults config.TuningConfig, onCommand func(string), onInvalid func(error)) *commandTab {
	kp := newEntry(defaults.Kp, "1.0")
	ki := newEntry(defaults.Ki, "0.1")
	kd := newEntry(defaults.Kd, "0.01")

	return newCommandTab(
		"Send PID",
		widget.NewForm(
			widget.NewFormItem("Kp", kp),
			widget.NewFormItem("Ki", ki),
			widget.NewFormItem("Kd", kd),
		),
		func() (string, error) {
			return tuning.PID{Kp: kp.Text, Ki: ki.Text, Kd: kd.Text}.Command()
		},
		onCommand,
		onInvalid,
	)
}

func newPoseTab(defaults config.TuningConfig, onCommand func(string), onInvalid func(error)) *commandTab {
	yaw := newEntry(defaults.Yaw, "0.0")
	roll := newEntry(defaults.Roll, "0.0")
	distance := newEntry(defaults.Distance, "0.0")

	return newCommandTab(
		"Send parameters",
		widget.NewForm(
			widget.NewFormItem("Yaw", yaw),
			widget.NewFormItem("Roll", roll),
			widget.NewFormItem("Distance", distance),
		),
		func() (string, error) {
			return tuning.Pose{Yaw: yaw.Text, Roll: roll.Text, Distance: distance.Text}.Command()
		},
		onCommand,
		onInvalid,
	)
}

func newCommandTab(label string, form *widget.Form, build func() (string, error), onCommand func(string), onInvalid func(error)) *commandTab {
	tab := &commandTab{}
	tab.send = widget.NewButton(label, func() {
		command, err := build()
		if err != nil {
			if onInvalid != nil {
				onInvalid(err)
			}
			return
		}
		if onCommand != nil {
			onCommand(command)
		}
	})
	tab.send.Importance = widget.HighImportance
	tab.send.Disable()

	tab.content = container.NewVBox(form, tab.send)

	return tab
}

func (t *commandTab) Content() fyne.CanvasObject {
	return t.content
}
