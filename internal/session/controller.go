package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tunelink/tunelink/internal/transport"
)

// ErrSessionActive is wrapped into the ConnectionError returned when connecting over a live session.
var ErrSessionActive = errors.New("a device session is already active")

// State describes the session lifecycle shown to the operator.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Status is a snapshot of the session state. Err is set when the transition was caused by a failure.
type Status struct {
	State     State
	Transport string
	Resource  string
	Err       error
	At        time.Time
}

// Listener receives session events. Data and error callbacks run on the receiver goroutine
// and must not call back into DisconnectDevice.
type Listener interface {
	OnDataReceived(frame Frame)
	OnDataSent(frame Frame)
	OnError(err error)
	OnStateChanged(status Status)
}

// Factory builds an unconnected transport.
type Factory func(kind transport.Kind, params transport.Params) (transport.Transport, error)

// DeviceLock is an exclusive claim on a device held for the lifetime of a session.
type DeviceLock interface {
	Release() error
}

// LockFunc claims resource for this process.
type LockFunc func(resource string) (DeviceLock, error)

type ControllerOptions struct {
	Factory        Factory
	LockDevice     LockFunc
	ReceiveTimeout time.Duration
	PollInterval   time.Duration
}

// Controller owns at most one transport and the receiver bound to it.
type Controller struct {
	logger   *slog.Logger
	listener Listener
	factory  Factory
	lock     LockFunc
	rxOpts   ReceiverOptions

	// opMu serializes connect, disconnect and fail-stop.
	opMu sync.Mutex

	mu     sync.RWMutex
	active *activeSession
}

type activeSession struct {
	transport transport.Transport
	receiver  *Receiver
	lock      DeviceLock
}

func NewController(logger *slog.Logger, listener Listener, opts ControllerOptions) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if listener == nil {
		listener = nopListener{}
	}
	if opts.Factory == nil {
		opts.Factory = transport.New
	}

	return &Controller{
		logger:   logger,
		listener: listener,
		factory:  opts.Factory,
		lock:     opts.LockDevice,
		rxOpts: ReceiverOptions{
			Timeout:      opts.ReceiveTimeout,
			PollInterval: opts.PollInterval,
			Logger:       logger,
		},
	}
}

// ConnectDevice builds, locks and connects a transport, then starts its receiver.
// On failure nothing stays open.
func (c *Controller) ConnectDevice(ctx context.Context, kind transport.Kind, params transport.Params) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if sess := c.current(); sess != nil {
		return &transport.ConnectionError{Op: "connect", Resource: sess.transport.Resource(), Err: ErrSessionActive}
	}

	tr, err := c.factory(kind, params)
	if err != nil {
		c.logger.Warn("build transport failed", "protocol", kind, "error", err)
		return err
	}

	c.emitState(tr, StateConnecting, nil)

	var lock DeviceLock
	if c.lock != nil {
		lock, err = c.lock(tr.Resource())
		if err != nil {
			err = &transport.ConnectionError{Op: "lock", Resource: tr.Resource(), Err: err}
			c.emitState(tr, StateDisconnected, err)
			return err
		}
	}

	if err := tr.Connect(ctx); err != nil {
		c.releaseLock(lock, tr)
		c.logger.Warn("connect failed", "transport", tr.Name(), "resource", tr.Resource(), "error", err)
		c.emitState(tr, StateDisconnected, err)
		return err
	}

	sess := &activeSession{transport: tr, lock: lock}
	sess.receiver = NewReceiver(tr,
		func(data []byte) { c.handleData(sess, data) },
		func(err error) { c.handleReceiveError(sess, err) },
		c.rxOpts,
	)

	c.mu.Lock()
	c.active = sess
	c.mu.Unlock()

	c.logger.Info("device connected", "transport", tr.Name(), "resource", tr.Resource())
	c.emitState(tr, StateConnected, nil)

	if err := sess.receiver.Start(context.Background()); err != nil {
		c.teardown(sess)
		c.emitState(tr, StateDisconnected, err)
		return err
	}

	return nil
}

// DisconnectDevice stops the receiver, closes the transport and releases the device lock.
// It is a no-op without an active session.
func (c *Controller) DisconnectDevice() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	sess := c.current()
	if sess == nil {
		return
	}

	c.teardown(sess)
	c.logger.Info("device disconnected", "transport", sess.transport.Name(), "resource", sess.transport.Resource())
	c.emitState(sess.transport, StateDisconnected, nil)
}

// SendData writes payload through the active transport. Errors keep their transport class.
func (c *Controller) SendData(ctx context.Context, payload []byte) error {
	sess := c.current()
	if sess == nil {
		return &transport.ConnectionError{Op: "send", Err: transport.ErrNotConnected}
	}

	if err := sess.transport.Send(ctx, payload); err != nil {
		c.logger.Warn("send failed", "transport", sess.transport.Name(), "error", err)
		return err
	}

	c.listener.OnDataSent(Frame{
		Transport: sess.transport.Name(),
		Resource:  sess.transport.Resource(),
		Data:      append([]byte(nil), payload...),
		At:        time.Now(),
	})

	return nil
}

func (c *Controller) SendText(ctx context.Context, text string) error {
	return c.SendData(ctx, []byte(text))
}

func (c *Controller) IsConnected() bool {
	sess := c.current()
	return sess != nil && sess.transport.IsConnected()
}

// Active returns the name and resource of the current transport, if any.
func (c *Controller) Active() (name, resource string, ok bool) {
	sess := c.current()
	if sess == nil {
		return "", "", false
	}

	return sess.transport.Name(), sess.transport.Resource(), true
}

func (c *Controller) current() *activeSession {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.active
}

func (c *Controller) handleData(sess *activeSession, data []byte) {
	c.listener.OnDataReceived(Frame{
		Transport: sess.transport.Name(),
		Resource:  sess.transport.Resource(),
		Data:      data,
		At:        time.Now(),
	})
}

// handleReceiveError runs on the receiver goroutine, so teardown happens elsewhere.
func (c *Controller) handleReceiveError(sess *activeSession, err error) {
	c.listener.OnError(err)
	go c.failStop(sess, err)
}

func (c *Controller) failStop(sess *activeSession, cause error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.current() != sess {
		return
	}

	c.teardown(sess)
	c.logger.Error("session closed after receive failure", "transport", sess.transport.Name(), "resource", sess.transport.Resource(), "error", cause)
	c.emitState(sess.transport, StateDisconnected, cause)
}

func (c *Controller) teardown(sess *activeSession) {
	sess.receiver.Stop()

	if err := sess.transport.Disconnect(); err != nil {
		c.logger.Warn("transport disconnect failed", "transport", sess.transport.Name(), "error", err)
	}
	c.releaseLock(sess.lock, sess.transport)

	c.mu.Lock()
	if c.active == sess {
		c.active = nil
	}
	c.mu.Unlock()
}

func (c *Controller) releaseLock(lock DeviceLock, tr transport.Transport) {
	if lock == nil {
		return
	}
	if err := lock.Release(); err != nil {
		c.logger.Warn("release device lock failed", "resource", tr.Resource(), "error", err)
	}
}

func (c *Controller) emitState(tr transport.Transport, state State, err error) {
	c.listener.OnStateChanged(Status{
		State:     state,
		Transport: tr.Name(),
		Resource:  tr.Resource(),
		Err:       err,
		At:        time.Now(),
	})
}

type nopListener struct{}

func (nopListener) OnDataReceived(Frame)  {}
func (nopListener) OnDataSent(Frame)      {}
func (nopListener) OnError(error)         {}
func (nopListener) OnStateChanged(Status) {}
