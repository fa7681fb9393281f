package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tunelink/tunelink/internal/app"
	"github.com/tunelink/tunelink/internal/platform"
	"github.com/tunelink/tunelink/internal/ui"
)

type launchOptions struct {
	StartHidden bool
}

func main() {
	launch, err := parseLaunchOptions(os.Args[1:])
	if err != nil {
		slog.Error("parse launch options", "error", err)
		os.Exit(2)
	}

	instanceLock, err := platform.AcquireInstanceLock(app.Name)
	if err != nil {
		if errors.Is(err, platform.ErrInstanceAlreadyRunning) {
			slog.Error("another instance is already running")
			os.Exit(1)
		}
		slog.Warn("instance lock unavailable", "error", err)
	}
	defer func() {
		if instanceLock != nil {
			_ = instanceLock.Release()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx, app.Options{})
	if err != nil {
		slog.Error("initialize app runtime", "error", err)
		os.Exit(1)
	}

	// Quitting from the tray and returning from ui.Run both land here.
	shutdown := shutdownOnce(stop, func() {
		if err := rt.Close(); err != nil {
			slog.Warn("close app runtime", "error", err)
		}
	})
	defer shutdown()

	dep := ui.BuildRuntimeDependencies(rt, ui.LaunchOptions{StartHidden: launch.StartHidden}, shutdown)
	if err := ui.Run(dep); err != nil {
		slog.Error("run ui", "error", err)
		os.Exit(1)
	}
}

func parseLaunchOptions(args []string) (launchOptions, error) {
	fs := flag.NewFlagSet("tunelink", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts launchOptions
	fs.BoolVar(&opts.StartHidden, "start-hidden", false, "start with the main window hidden in the system tray")
	if err := fs.Parse(args); err != nil {
		return launchOptions{}, err
	}
	if fs.NArg() > 0 {
		return launchOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return opts, nil
}

// shutdownOnce returns a func that runs steps in order on its first call only.
func shutdownOnce(steps ...func()) func() {
	var once sync.Once

	return func() {
		once.Do(func() {
			for _, step := range steps {
				if step != nil {
					step()
				}
			}
		})
	}
}
