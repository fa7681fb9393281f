package ui

import (
	"go.bug.st/serial"

	tlapp "github.com/tunelink/tunelink/internal/app"
)

func BuildRuntimeDependencies(rt *tlapp.Runtime, launch LaunchOptions, onQuit func()) RuntimeDependencies {
	dep := RuntimeDependencies{
		Launch: launch,
		Actions: ActionDependencies{
			OnQuit: onQuit,
		},
		UIHooks: UIHooks{
			ListSerialPorts: serial.GetPortsList,
		},
	}

	if rt == nil {
		return dep
	}

	dep.Data = DataDependencies{
		Config:            rt.Config,
		Bus:               rt.Bus,
		CurrentConnStatus: rt.CurrentConnStatus,
		LoadJournal:       rt.LoadJournal,
	}
	dep.Actions.Session = rt.Controller
	dep.Actions.OnStartNotifications = rt.StartNotifications
	if rt.Journal != nil {
		dep.Actions.OnClearJournal = rt.ClearJournal
	}

	return dep
}
