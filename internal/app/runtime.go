package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tunelink/tunelink/internal/bus"
	"github.com/tunelink/tunelink/internal/config"
	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/logging"
	"github.com/tunelink/tunelink/internal/notifications"
	"github.com/tunelink/tunelink/internal/persistence"
	"github.com/tunelink/tunelink/internal/platform"
	"github.com/tunelink/tunelink/internal/session"
)

const writerQueueCapacity = 512

// Options tune runtime construction. The zero value resolves the user config dir and logs to stdout.
type Options struct {
	Paths     *Paths
	LogOutput io.Writer
	Factory   session.Factory
}

type Runtime struct {
	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager  *logging.Manager
	Bus         *bus.PubSubBus
	DB          *sql.DB
	Journal     *persistence.JournalRepo
	WriterQueue *persistence.WriterQueue
	Controller  *session.Controller

	connStatusMu    sync.RWMutex
	connStatus      events.ConnectionStatus
	connStatusKnown bool

	closeOnce sync.Once
}

func Initialize(parent context.Context, opts Options) (*Runtime, error) {
	var paths Paths
	if opts.Paths != nil {
		paths = *opts.Paths
	} else {
		resolved, err := ResolvePaths()
		if err != nil {
			return nil, err
		}
		paths = resolved
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("stored connection defaults are invalid", "error", err)
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager()
	if opts.LogOutput != nil {
		logMgr = logging.NewManagerWithWriter(opts.LogOutput)
	}
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting tunelink runtime", "version", BuildVersion(), "build_date", BuildDateYMD())

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b
	connSub := b.Subscribe(events.TopicConnStatus)
	go rt.captureConnStatus(ctx, connSub)

	if cfg.Journal.Enabled {
		db, err := persistence.Open(ctx, paths.DBFile)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.DB = db
		rt.Journal = persistence.NewJournalRepo(db)

		if _, err := rt.Journal.Trim(ctx, cfg.Journal.MaxLines); err != nil {
			slog.Warn("trim journal on startup", "error", err)
		}

		writerQueue := persistence.NewWriterQueue(logMgr.Logger("persistence"), writerQueueCapacity)
		writerQueue.Start(ctx)
		rt.WriterQueue = writerQueue
		StartJournalProjection(ctx, b, writerQueue, rt.Journal, cfg.Journal.MaxLines)
	}

	rt.Controller = session.NewController(logMgr.Logger("session"), NewBusListener(b), session.ControllerOptions{
		Factory:    opts.Factory,
		LockDevice: lockDevice,
	})

	return rt, nil
}

func lockDevice(resource string) (session.DeviceLock, error) {
	lock, err := platform.AcquireDeviceLock(Name, resource)
	if err != nil {
		if errors.Is(err, platform.ErrLockUnsupported) {
			slog.Warn("device lock unsupported on this platform", "resource", resource)
			return nil, nil
		}
		return nil, err
	}

	return lock, nil
}

// StartNotifications wires sender to connection status events for the runtime lifetime.
func (r *Runtime) StartNotifications(sender notifications.Sender) {
	if sender == nil {
		return
	}
	service := NewNotificationService(r.Bus, func() config.AppConfig { return r.Config }, sender, r.LogManager.Logger("notifications"))
	service.Start(r.Ctx)
}

func (r *Runtime) captureConnStatus(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(events.ConnectionStatus)
			if !ok {
				continue
			}
			r.setConnStatus(status)
		}
	}
}

func (r *Runtime) setConnStatus(status events.ConnectionStatus) {
	r.connStatusMu.Lock()
	r.connStatus = status
	r.connStatusKnown = true
	r.connStatusMu.Unlock()
}

func (r *Runtime) CurrentConnStatus() (events.ConnectionStatus, bool) {
	r.connStatusMu.RLock()
	status := r.connStatus
	known := r.connStatusKnown
	r.connStatusMu.RUnlock()
	return status, known
}

// LoadJournal returns the newest persisted log lines in chronological order.
func (r *Runtime) LoadJournal(ctx context.Context) ([]persistence.JournalEntry, error) {
	if r.Journal == nil {
		return nil, nil
	}

	return r.Journal.ListRecent(ctx, RecentJournalLoad)
}

func (r *Runtime) ClearJournal() error {
	if r.DB == nil {
		return fmt.Errorf("journal is disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := persistence.ClearDatabase(ctx, r.DB); err != nil {
		return err
	}
	slog.Info("journal cleared")

	return nil
}

// Close ends any session, flushes pending journal writes and releases every resource.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		if r.Controller != nil {
			r.Controller.DisconnectDevice()
		}
		if r.cancel != nil {
			r.cancel()
		}
		if r.WriterQueue != nil {
			r.WriterQueue.Wait()
		}
		if r.Bus != nil {
			r.Bus.Close()
		}
		if r.DB != nil {
			_ = r.DB.Close()
		}
		if r.LogManager != nil {
			_ = r.LogManager.Close()
		}
	})

	return nil
}
