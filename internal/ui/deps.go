package ui

import (
	"context"

	"fyne.io/fyne/v2"

	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/config"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/notifications"
	"github.com/tunelink/tunelink/internal/persistence"
	"github.com/tunelink/tunelink/internal/transport"
)

// SessionController is the part of the session controller the window drives.
type SessionController interface {
	ConnectDevice(ctx context.Context, kind transport.Kind, params transport.Params) error
	DisconnectDevice()
	SendText(ctx context.Context, text string) error
	IsConnected() bool
}

type DataDependencies struct {
	Config            config.AppConfig
	Bus               bus.MessageBus
	CurrentConnStatus func() (events.ConnectionStatus, bool)
	LoadJournal       func(ctx context.Context) ([]persistence.JournalEntry, error)
}

type ActionDependencies struct {
	Session              SessionController
	OnClearJournal       func() error
	OnStartNotifications func(sender notifications.Sender)
	OnQuit               func()
}

type UIHooks struct {
	CurrentWindow   func() fyne.Window
	RunOnUI         func(func())
	RunAsync        func(func())
	ShowErrorDialog func(err error, window fyne.Window)
	ListSerialPorts func() ([]string, error)
}

type LaunchOptions struct {
	StartHidden bool
}

type RuntimeDependencies struct {
	Data    DataDependencies
	Actions ActionDependencies
	UIHooks UIHooks
	Launch  LaunchOptions
}
