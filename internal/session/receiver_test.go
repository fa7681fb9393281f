package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func connectedFake(t *testing.T) *fakeTransport {
	t.Helper()

	tr := newFakeTransport()
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("connect fake: %v", err)
	}

	return tr
}

func TestReceiverDeliversFramesInOrder(t *testing.T) {
	tr := connectedFake(t)
	var (
		mu  sync.Mutex
		got []string
	)
	rx := NewReceiver(tr, func(b []byte) {
		mu.Lock()
		got = append(got, string(b))
		mu.Unlock()
	}, nil, ReceiverOptions{Timeout: 20 * time.Millisecond, PollInterval: time.Millisecond})

	tr.inbox <- []byte("one")
	tr.inbox <- []byte("two")
	tr.inbox <- []byte("three")
	if err := rx.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rx.Stop()

	ok := waitFor(time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	})
	if !ok {
		t.Fatalf("expected three frames, got %v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	for i, want := range []string{"one", "two", "three"} {
		if got[i] != want {
			t.Fatalf("frame %d: expected %q, got %q", i, want, got[i])
		}
	}
}

func TestReceiverKeepsLoopingOnEmptyReads(t *testing.T) {
	tr := connectedFake(t)
	delivered := make(chan string, 1)
	rx := NewReceiver(tr, func(b []byte) { delivered <- string(b) }, func(err error) {
		t.Errorf("unexpected error: %v", err)
	}, ReceiverOptions{Timeout: 10 * time.Millisecond, PollInterval: time.Millisecond})
	if err := rx.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rx.Stop()

	time.Sleep(60 * time.Millisecond)
	tr.inbox <- []byte("late")

	select {
	case got := <-delivered:
		if got != "late" {
			t.Fatalf("unexpected frame %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("receiver stopped looping after empty reads")
	}
}

func TestReceiverStopsOnFatalError(t *testing.T) {
	tr := connectedFake(t)
	errs := make(chan error, 2)
	rx := NewReceiver(tr, nil, func(err error) { errs <- err }, ReceiverOptions{Timeout: 10 * time.Millisecond, PollInterval: time.Millisecond})
	if err := rx.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.recvErr <- errFakeFault

	select {
	case err := <-errs:
		if !errors.Is(err, errFakeFault) {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected error callback")
	}
	select {
	case <-rx.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected loop to end after fatal error")
	}
	if len(errs) != 0 {
		t.Fatalf("expected a single error callback")
	}
	rx.Stop()
}

func TestReceiverStopWaitsAndSilencesCallbacks(t *testing.T) {
	tr := connectedFake(t)
	var (
		mu      sync.Mutex
		stopped bool
		late    bool
	)
	rx := NewReceiver(tr, func([]byte) {
		mu.Lock()
		if stopped {
			late = true
		}
		mu.Unlock()
	}, nil, ReceiverOptions{Timeout: 200 * time.Millisecond, PollInterval: time.Millisecond})
	if err := rx.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	started := time.Now()
	rx.Stop()
	if elapsed := time.Since(started); elapsed > 250*time.Millisecond {
		t.Fatalf("stop took longer than one receive timeout: %s", elapsed)
	}
	mu.Lock()
	stopped = true
	mu.Unlock()

	select {
	case <-rx.Done():
	default:
		t.Fatalf("expected goroutine to be finished when Stop returns")
	}

	tr.inbox <- []byte("after stop")
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if late {
		t.Fatalf("data callback fired after Stop returned")
	}
}

func TestReceiverRunsOnce(t *testing.T) {
	tr := connectedFake(t)
	rx := NewReceiver(tr, nil, nil, ReceiverOptions{Timeout: 10 * time.Millisecond})
	if err := rx.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rx.Start(context.Background()); !errors.Is(err, ErrReceiverStarted) {
		t.Fatalf("expected %v, got %v", ErrReceiverStarted, err)
	}
	rx.Stop()
	rx.Stop()
	if err := rx.Start(context.Background()); !errors.Is(err, ErrReceiverStarted) {
		t.Fatalf("expected stopped receiver to refuse restart, got %v", err)
	}
}

func TestReceiverStopBeforeStart(t *testing.T) {
	rx := NewReceiver(newFakeTransport(), nil, nil, ReceiverOptions{})
	rx.Stop()

	select {
	case <-rx.Done():
	default:
		t.Fatalf("expected done to be closed")
	}
	if err := rx.Start(context.Background()); !errors.Is(err, ErrReceiverStarted) {
		t.Fatalf("expected %v, got %v", ErrReceiverStarted, err)
	}
}

func TestFrameRendering(t *testing.T) {
	f := Frame{Data: []byte{'o', 'k', 0xff, '!'}}
	if f.Text() != "ok!" {
		t.Fatalf("expected invalid bytes to be dropped, got %q", f.Text())
	}
	if f.Hex() != "6F6BFF21" {
		t.Fatalf("unexpected hex %q", f.Hex())
	}
}

func TestReceiverDefersToTransportReadTimeout(t *testing.T) {
	tests := []struct {
		name string
		opts ReceiverOptions
		want time.Duration
	}{
		{name: "transport default", opts: ReceiverOptions{PollInterval: time.Millisecond}, want: 0},
		{name: "explicit override", opts: ReceiverOptions{Timeout: 15 * time.Millisecond, PollInterval: time.Millisecond}, want: 15 * time.Millisecond},
	}

	for _, tc := range tests {
		tr := connectedFake(t)
		tr.inbox <- []byte("ping")
		delivered := make(chan struct{}, 1)
		rx := NewReceiver(tr, func([]byte) {
			select {
			case delivered <- struct{}{}:
			default:
			}
		}, nil, tc.opts)
		if err := rx.Start(context.Background()); err != nil {
			t.Fatalf("%s: start: %v", tc.name, err)
		}

		select {
		case <-delivered:
		case <-time.After(time.Second):
			t.Fatalf("%s: expected a delivered frame", tc.name)
		}
		rx.Stop()

		timeouts := tr.receiveTimeouts()
		if len(timeouts) == 0 || timeouts[0] != tc.want {
			t.Fatalf("%s: expected receive timeout %s, got %v", tc.name, tc.want, timeouts)
		}
	}
}
