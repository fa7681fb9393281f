package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tunelink/tunelink/internal/transport"
)

type fakeTransport struct {
	name     string
	resource string

	mu         sync.Mutex
	connected  bool
	connects   int
	disconnect int
	connectErr error
	sendErr    error
	sent       [][]byte
	inbox      chan []byte
	recvErr    chan error
	receiving  bool
	timeouts   []time.Duration
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		name:     "uart",
		resource: "/dev/ttyFAKE0",
		inbox:    make(chan []byte, 16),
		recvErr:  make(chan error, 1),
	}
}

func (f *fakeTransport) Name() string     { return f.name }
func (f *fakeTransport) Resource() string { return f.resource }

func (f *fakeTransport) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.connected {
		return nil
	}
	f.connects++
	if f.connectErr != nil {
		return &transport.ConnectionError{Op: "connect", Resource: f.resource, Err: f.connectErr}
	}
	f.connected = true

	return nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.receiving {
		panic("disconnect raced with an in-flight receive")
	}
	f.disconnect++
	f.connected = false

	return nil
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.connected
}

func (f *fakeTransport) Send(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return &transport.ConnectionError{Op: "send", Resource: f.resource, Err: transport.ErrNotConnected}
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), payload...))

	return nil
}

func (f *fakeTransport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	f.mu.Lock()
	if !f.connected {
		f.mu.Unlock()
		return nil, &transport.ConnectionError{Op: "receive", Resource: f.resource, Err: transport.ErrNotConnected}
	}
	f.receiving = true
	f.timeouts = append(f.timeouts, timeout)
	f.mu.Unlock()
	if timeout <= 0 {
		timeout = transport.DefaultReceiveTimeout
	}

	defer func() {
		f.mu.Lock()
		f.receiving = false
		f.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data := <-f.inbox:
		return data, nil
	case err := <-f.recvErr:
		return nil, err
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, nil
	}
}

func (f *fakeTransport) receiveTimeouts() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]time.Duration(nil), f.timeouts...)
}

func (f *fakeTransport) counts() (connects, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.connects, f.disconnect
}

type recordingListener struct {
	mu       sync.Mutex
	received []Frame
	sent     []Frame
	errs     []error
	states   []Status
	notify   chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{notify: make(chan struct{}, 64)}
}

func (l *recordingListener) OnDataReceived(frame Frame) {
	l.mu.Lock()
	l.received = append(l.received, frame)
	l.mu.Unlock()
	l.ping()
}

func (l *recordingListener) OnDataSent(frame Frame) {
	l.mu.Lock()
	l.sent = append(l.sent, frame)
	l.mu.Unlock()
	l.ping()
}

func (l *recordingListener) OnError(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
	l.ping()
}

func (l *recordingListener) OnStateChanged(status Status) {
	l.mu.Lock()
	l.states = append(l.states, status)
	l.mu.Unlock()
	l.ping()
}

func (l *recordingListener) ping() {
	select {
	case l.notify <- struct{}{}:
	default:
	}
}

func (l *recordingListener) receivedTexts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.received))
	for _, f := range l.received {
		out = append(out, f.Text())
	}

	return out
}

func (l *recordingListener) lastState() (Status, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.states) == 0 {
		return Status{}, false
	}

	return l.states[len(l.states)-1], true
}

func (l *recordingListener) errCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.errs)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}

	return cond()
}

type fakeLock struct {
	mu       sync.Mutex
	released int
}

func (l *fakeLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.released++

	return nil
}

func (l *fakeLock) releaseCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.released
}

var errFakeFault = errors.New("device vanished")
