package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tunelink/tunelink/internal/app"
	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/logging"
	"github.com/tunelink/tunelink/internal/notifications"
	"github.com/tunelink/tunelink/internal/transport"
)

const maxHexPreviewLen = 64

// flagParams maps CLI flags onto transport parameter keys.
var flagParams = map[string]string{
	"port":           transport.ParamPort,
	"baud":           transport.ParamBaudRate,
	"timeout":        transport.ParamTimeoutSeconds,
	"read-bytes":     transport.ParamReadBytes,
	"channel":        transport.ParamChannel,
	"bitrate":        transport.ParamBitRate,
	"arbitration-id": transport.ParamArbitrationID,
	"bus":            transport.ParamBusNumber,
	"address":        transport.ParamDeviceAddress,
	"register":       transport.ParamRegister,
}

type cliOptions struct {
	Protocol  string
	Send      string
	ListenFor time.Duration
	LogLevel  string
	NoNotify  bool
	Overrides transport.Params
}

func main() {
	opts, err := parseCLI(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		slog.Error("run debug tool", "error", err)
		os.Exit(1)
	}
}

func parseCLI(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("tunelink-debug", flag.ContinueOnError)

	var opts cliOptions
	fs.StringVar(&opts.Protocol, "protocol", "", "uart, rs485, can or i2c (default: configured protocol)")
	fs.StringVar(&opts.Send, "send", "", "line to send once connected, e.g. PID,1.0,0.1,0.01")
	fs.DurationVar(&opts.ListenFor, "listen-for", 0, "listen duration, e.g. 30s (default: until interrupt)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "override configured log level")
	fs.BoolVar(&opts.NoNotify, "no-notify", false, "disable desktop notifications")

	values := make(map[string]*string, len(flagParams))
	for name, key := range flagParams {
		values[name] = fs.String(name, "", "connection parameter "+key)
	}

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.ListenFor < 0 {
		return cliOptions{}, fmt.Errorf("listen-for must not be negative")
	}

	opts.Overrides = transport.Params{}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagParams[f.Name]; ok {
			opts.Overrides[key] = strings.TrimSpace(*values[f.Name])
		}
	})

	return opts, nil
}

func mergeParams(base, overrides transport.Params) transport.Params {
	merged := make(transport.Params, len(base)+len(overrides))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range overrides {
		if value == "" {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}

	return merged
}

func commandLine(raw string) string {
	if raw == "" || strings.HasSuffix(raw, "\n") {
		return raw
	}

	return raw + "\n"
}

func run(opts cliOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx, app.Options{LogOutput: os.Stderr})
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}
	defer func() {
		_ = rt.Close()
	}()

	if opts.LogLevel != "" {
		level, err := logging.ParseLevel(opts.LogLevel)
		if err != nil {
			return err
		}
		rt.LogManager.SetLevel(level)
	}
	logger := rt.LogManager.Logger("cli")
	logger.Info("starting tunelink debug", "version", app.BuildVersion(), "build_date", app.BuildDateYMD())

	kind := rt.Config.Connection.Protocol
	if opts.Protocol != "" {
		kind, err = transport.ParseKind(opts.Protocol)
		if err != nil {
			return err
		}
	}
	params := mergeParams(rt.Config.Connection.Params(kind), opts.Overrides)

	if !opts.NoNotify {
		rt.StartNotifications(notifications.NewDesktopSender(app.DisplayName, rt.LogManager.Logger("notifications")))
	}
	lost := watch(ctx, rt.Bus, logger)

	if err := rt.Controller.ConnectDevice(ctx, kind, params); err != nil {
		return fmt.Errorf("connect %s: %w", kind, err)
	}

	if line := commandLine(opts.Send); line != "" {
		if err := rt.Controller.SendText(ctx, line); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	var deadline <-chan time.Time
	if opts.ListenFor > 0 {
		logger.Info("listen mode", "duration", opts.ListenFor)
		deadline = time.After(opts.ListenFor)
	} else {
		logger.Info("listening until interrupt")
	}

	select {
	case <-ctx.Done():
	case <-deadline:
	case <-lost:
		return fmt.Errorf("session lost")
	}

	return nil
}

// watch logs session traffic and closes the returned channel when the session drops on a failure.
func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger) <-chan struct{} {
	topics := events.AllTopics()
	sub := b.Subscribe(topics...)
	lost := make(chan struct{})

	go func() {
		defer b.Unsubscribe(sub, topics...)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				switch ev := raw.(type) {
				case events.ConnectionStatus:
					logger.Info("conn", "state", ev.State, "transport", ev.TransportName, "target", ev.Target, "error", ev.Err)
					if ev.State == events.ConnectionStateDisconnected && ev.Err != "" {
						close(lost)
						return
					}
				case events.RawFrame:
					logger.Info("frame", "direction", ev.Direction, "len", ev.Len, "text", strings.TrimRight(ev.Text, "\r\n"), "hex", previewHex(ev.Hex))
				case events.ErrorEvent:
					logger.Error("session error", "transport", ev.TransportName, "error", ev.Message)
				}
			}
		}
	}()

	return lost
}

func previewHex(hex string) string {
	hex = strings.TrimSpace(hex)
	if len(hex) <= maxHexPreviewLen {
		return hex
	}
	return hex[:maxHexPreviewLen] + "..."
}
