package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

// maxSerialReadSlice bounds a single port read so deadlines and cancellation are observed.
const maxSerialReadSlice = 100 * time.Millisecond

type serialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	Drain() error
}

type serialOpener func(name string, mode *serial.Mode) (serialPort, error)

func openSerialPort(name string, mode *serial.Mode) (serialPort, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	return port, nil
}

// SerialTransport drives UART and RS485 links. RS485 differs only in draining after each write.
type SerialTransport struct {
	name  string
	cfg   SerialConfig
	drain bool
	open  serialOpener

	logger *slog.Logger

	mu      sync.Mutex
	port    serialPort
	writeMu sync.Mutex
	readMu  sync.Mutex
	pending []byte
}

func NewUARTTransport(cfg UARTConfig) *SerialTransport {
	return newSerialTransport(string(KindUART), cfg.SerialConfig, false)
}

// NewRS485Transport assumes the adapter toggles driver-enable in hardware.
func NewRS485Transport(cfg RS485Config) *SerialTransport {
	return newSerialTransport(string(KindRS485), cfg.SerialConfig, true)
}

func newSerialTransport(name string, cfg SerialConfig, drain bool) *SerialTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSerialTimeout
	}

	return &SerialTransport{
		name:   name,
		cfg:    cfg,
		drain:  drain,
		open:   openSerialPort,
		logger: transportLogger(name, cfg.Port, "baud", cfg.BaudRate),
	}
}

func (t *SerialTransport) Name() string {
	return t.name
}

func (t *SerialTransport) Resource() string {
	return t.cfg.Port
}

func (t *SerialTransport) Config() SerialConfig {
	return t.cfg
}

func (t *SerialTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

func (t *SerialTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Op: "connect", Resource: t.cfg.Port, Err: err}
	}

	port, err := t.open(t.cfg.Port, &serial.Mode{BaudRate: t.cfg.BaudRate})
	if err != nil {
		return &ConnectionError{Op: "connect", Resource: t.cfg.Port, Err: fmt.Errorf("open serial port: %w", err)}
	}
	if err := port.SetReadTimeout(min(t.cfg.Timeout, maxSerialReadSlice)); err != nil {
		_ = port.Close()
		return &ConnectionError{Op: "connect", Resource: t.cfg.Port, Err: fmt.Errorf("set serial read timeout: %w", err)}
	}
	t.port = port
	t.pending = nil
	t.logger.Info("serial port opened")

	return nil
}

func (t *SerialTransport) Disconnect() error {
	t.mu.Lock()
	port := t.port
	t.port = nil
	t.mu.Unlock()

	if port == nil {
		return nil
	}
	if err := port.Close(); err != nil {
		t.logger.Warn("close serial port", "error", err)
	}
	t.logger.Info("serial port closed")

	return nil
}

func (t *SerialTransport) Send(ctx context.Context, payload []byte) error {
	port, err := t.currentPort("send")
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return writeError(t.cfg.Port, err, nil)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	n, err := port.Write(payload)
	if err != nil {
		return writeError(t.cfg.Port, err, nil)
	}
	if n != len(payload) {
		return &IOError{Op: "send", Resource: t.cfg.Port, Err: fmt.Errorf("%w: wrote %d of %d bytes", io.ErrShortWrite, n, len(payload))}
	}
	if t.drain {
		if err := port.Drain(); err != nil {
			return &IOError{Op: "send", Resource: t.cfg.Port, Err: fmt.Errorf("drain output: %w", err)}
		}
	}

	return nil
}

// Receive returns one trimmed line, or ReadSize bytes in byte-count mode. Whatever arrived
// before the deadline is returned when no terminator was seen.
func (t *SerialTransport) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	port, err := t.currentPort("receive")
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = t.cfg.Timeout
	}

	t.readMu.Lock()
	defer t.readMu.Unlock()

	deadline := time.Now().Add(timeout)
	chunk := make([]byte, 256)
	for {
		if frame, ok := t.takeFrame(); ok {
			return frame, nil
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return t.takePartial(), nil
		}

		n, err := port.Read(chunk)
		if err != nil {
			t.release(port)
			return nil, &IOError{Op: "receive", Resource: t.cfg.Port, Err: err}
		}
		t.pending = append(t.pending, chunk[:n]...)
	}
}

func (t *SerialTransport) takeFrame() ([]byte, bool) {
	if t.cfg.ReadSize > 0 {
		if len(t.pending) < t.cfg.ReadSize {
			return nil, false
		}
		frame := bytes.Clone(t.pending[:t.cfg.ReadSize])
		t.pending = t.pending[t.cfg.ReadSize:]
		return frame, true
	}

	idx := bytes.IndexByte(t.pending, '\n')
	if idx < 0 {
		return nil, false
	}
	line := trimLine(t.pending[:idx+1])
	t.pending = t.pending[idx+1:]

	return line, true
}

func (t *SerialTransport) takePartial() []byte {
	if len(t.pending) == 0 {
		return nil
	}
	out := t.pending
	t.pending = nil
	if t.cfg.ReadSize > 0 {
		return out
	}

	return trimLine(out)
}

// release drops the handle after an unrecoverable read fault.
func (t *SerialTransport) release(port serialPort) {
	t.mu.Lock()
	if t.port != port {
		t.mu.Unlock()
		return
	}
	t.port = nil
	t.mu.Unlock()

	t.pending = nil
	if err := port.Close(); err != nil {
		t.logger.Debug("close serial port after read fault", "error", err)
	}
	t.logger.Warn("serial port released after read fault")
}

func (t *SerialTransport) currentPort(op string) (serialPort, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil, notConnected(op, t.cfg.Port)
	}
	return t.port, nil
}

func trimLine(line []byte) []byte {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil
	}

	return bytes.Clone(trimmed)
}
