package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tunelink/tunelink/internal/transport"
)

// DefaultPollInterval is the pause between two receive calls.
const DefaultPollInterval = 50 * time.Millisecond

// ErrReceiverStarted is returned when Start is called on a receiver that already ran.
var ErrReceiverStarted = errors.New("receiver already started")

type receiverState int

const (
	receiverCreated receiverState = iota
	receiverRunning
	receiverStopped
)

// Receiver drains one transport on its own goroutine until stopped or until a receive fails.
type Receiver struct {
	transport transport.Transport
	timeout   time.Duration
	interval  time.Duration
	onData    func([]byte)
	onError   func(error)
	logger    *slog.Logger

	mu     sync.Mutex
	state  receiverState
	cancel context.CancelFunc
	done   chan struct{}
}

type ReceiverOptions struct {
	// Timeout overrides the transport's own read timeout when positive.
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

func NewReceiver(tr transport.Transport, onData func([]byte), onError func(error), opts ReceiverOptions) *Receiver {
	if opts.Timeout < 0 {
		opts.Timeout = 0
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if onData == nil {
		onData = func([]byte) {}
	}
	if onError == nil {
		onError = func(error) {}
	}

	return &Receiver{
		transport: tr,
		timeout:   opts.Timeout,
		interval:  opts.PollInterval,
		onData:    onData,
		onError:   onError,
		logger:    opts.Logger.With("transport", tr.Name(), "resource", tr.Resource()),
		done:      make(chan struct{}),
	}
}

// Start launches the polling goroutine. A receiver runs at most once.
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != receiverCreated {
		return ErrReceiverStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = receiverRunning
	go r.run(loopCtx)
	r.logger.Debug("receiver started")

	return nil
}

// Stop requests the loop to end and waits for the goroutine to exit.
// It must not be called from the data or error callbacks.
func (r *Receiver) Stop() {
	r.mu.Lock()
	switch r.state {
	case receiverCreated:
		r.state = receiverStopped
		close(r.done)
		r.mu.Unlock()
		return
	case receiverStopped:
		cancel := r.cancel
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		<-r.done
		return
	}
	r.state = receiverStopped
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	<-r.done
	r.logger.Debug("receiver stopped")
}

// Done is closed once the polling goroutine has exited.
func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

func (r *Receiver) run(ctx context.Context) {
	defer close(r.done)
	defer r.markStopped()

	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := r.transport.Receive(ctx, r.timeout)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			r.logger.Warn("receive failed, stopping receiver", "error", err)
			r.onError(err)
			return
		}
		if len(payload) > 0 {
			r.onData(payload)
		}

		if !sleepWithContext(ctx, r.interval) {
			return
		}
	}
}

func (r *Receiver) markStopped() {
	r.mu.Lock()
	r.state = receiverStopped
	r.mu.Unlock()
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
