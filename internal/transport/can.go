package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.einride.tech/can"
)

// maxCANReadSlice bounds one socket wait so the caller deadline and context are honoured.
const maxCANReadSlice = 100 * time.Millisecond

var ErrCANPayloadTooLarge = errors.New("payload exceeds 8 bytes of a classical CAN frame")

type canSocket interface {
	WriteFrame(ctx context.Context, f can.Frame) error
	// ReadFrame reports ok=false when timeout elapsed with no data frame.
	ReadFrame(timeout time.Duration) (can.Frame, bool, error)
	Close() error
}

type canOpener func(ctx context.Context, channel string, bitRate int) (canSocket, error)

// CANTransport sends one classical frame per Send using a fixed arbitration ID.
type CANTransport struct {
	cfg    CANConfig
	open   canOpener
	logger *slog.Logger

	mu      sync.Mutex
	sock    canSocket
	writeMu sync.Mutex
}

func NewCANTransport(cfg CANConfig) *CANTransport {
	return &CANTransport{
		cfg:    cfg,
		open:   openSocketCAN,
		logger: transportLogger(string(KindCAN), cfg.Channel, "bitrate", cfg.BitRate, "arbitration_id", fmt.Sprintf("0x%03X", cfg.ArbitrationID)),
	}
}

func (t *CANTransport) Name() string {
	return string(KindCAN)
}

func (t *CANTransport) Resource() string {
	return t.cfg.Channel
}

func (t *CANTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sock != nil
}

func (t *CANTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sock != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Op: "connect", Resource: t.cfg.Channel, Err: err}
	}

	sock, err := t.open(ctx, t.cfg.Channel, t.cfg.BitRate)
	if err != nil {
		return &ConnectionError{Op: "connect", Resource: t.cfg.Channel, Err: err}
	}
	t.sock = sock
	t.logger.Info("can socket opened")

	return nil
}

func (t *CANTransport) Disconnect() error {
	t.mu.Lock()
	sock := t.sock
	t.sock = nil
	t.mu.Unlock()

	if sock == nil {
		return nil
	}
	if err := sock.Close(); err != nil {
		t.logger.Warn("close can socket", "error", err)
	}
	t.logger.Info("can socket closed")

	return nil
}

func (t *CANTransport) Send(ctx context.Context, payload []byte) error {
	sock, err := t.current("send")
	if err != nil {
		return err
	}
	frame, err := newCANFrame(t.cfg.ArbitrationID, payload)
	if err != nil {
		return &IOError{Op: "send", Resource: t.cfg.Channel, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return writeError(t.cfg.Channel, err, nil)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := sock.WriteFrame(ctx, frame); err != nil {
		return writeError(t.cfg.Channel, err, isCANWriteTimeout)
	}

	return nil
}

func (t *CANTransport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	sock, err := t.current("receive")
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultReceiveTimeout
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if ctx.Err() != nil || remaining <= 0 {
			return nil, nil
		}

		frame, ok, err := sock.ReadFrame(min(remaining, maxCANReadSlice))
		if err != nil {
			t.release(sock)
			return nil, &IOError{Op: "receive", Resource: t.cfg.Channel, Err: err}
		}
		if !ok {
			continue
		}
		if frame.Length > 0 {
			return framePayload(frame), nil
		}
	}
}

func (t *CANTransport) release(sock canSocket) {
	t.mu.Lock()
	if t.sock != sock {
		t.mu.Unlock()
		return
	}
	t.sock = nil
	t.mu.Unlock()

	_ = sock.Close()
	t.logger.Warn("can socket released after read fault")
}

func (t *CANTransport) current(op string) (canSocket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sock == nil {
		return nil, notConnected(op, t.cfg.Channel)
	}
	return t.sock, nil
}

// newCANFrame builds a classical data frame with a standard identifier.
func newCANFrame(id uint32, payload []byte) (can.Frame, error) {
	if len(payload) > can.MaxDataLength {
		return can.Frame{}, fmt.Errorf("%w: got %d", ErrCANPayloadTooLarge, len(payload))
	}

	f := can.Frame{ID: id, Length: uint8(len(payload))} // #nosec G115 -- bounded by can.MaxDataLength.
	copy(f.Data[:], payload)
	if err := f.Validate(); err != nil {
		return can.Frame{}, err
	}

	return f, nil
}

func framePayload(f can.Frame) []byte {
	n := min(int(f.Length), can.MaxDataLength)
	out := make([]byte, n)
	copy(out, f.Data[:n])

	return out
}
