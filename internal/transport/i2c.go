package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type i2cDevice interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
	ReadBlock(reg uint8, n int) ([]byte, error)
	WriteBlock(reg uint8, data []byte) error
	Close() error
}

type i2cOpener func(bus int, addr uint8) (i2cDevice, error)

// I2CTransport talks to one slave address. With a register configured it performs SMBus
// block transfers at that register; otherwise it does single-byte accesses.
type I2CTransport struct {
	cfg    I2CConfig
	open   i2cOpener
	logger *slog.Logger

	mu  sync.Mutex
	dev i2cDevice
	// xferMu serialises bus transactions issued from send and receive.
	xferMu sync.Mutex
}

func NewI2CTransport(cfg I2CConfig) *I2CTransport {
	attrs := []any{"bus", cfg.BusNumber, "address", fmt.Sprintf("0x%02X", cfg.DeviceAddress)}
	if cfg.HasRegister {
		attrs = append(attrs, "register", fmt.Sprintf("0x%02X", cfg.Register))
	}

	return &I2CTransport{
		cfg:    cfg,
		open:   openI2CDevice,
		logger: transportLogger(string(KindI2C), cfg.Resource(), attrs...),
	}
}

func (t *I2CTransport) Name() string {
	return string(KindI2C)
}

func (t *I2CTransport) Resource() string {
	return t.cfg.Resource()
}

func (t *I2CTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// Connect opens the bus and checks that the device acknowledges a single byte read.
func (t *I2CTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &ConnectionError{Op: "connect", Resource: t.Resource(), Err: err}
	}

	dev, err := t.open(t.cfg.BusNumber, t.cfg.DeviceAddress)
	if err != nil {
		return &ConnectionError{Op: "connect", Resource: t.Resource(), Err: fmt.Errorf("open i2c bus %d: %w", t.cfg.BusNumber, err)}
	}
	if _, err := dev.ReadByte(); err != nil {
		_ = dev.Close()
		return &ConnectionError{
			Op:       "connect",
			Resource: t.Resource(),
			Err:      fmt.Errorf("no device responding at 0x%02X: %w", t.cfg.DeviceAddress, err),
		}
	}
	t.dev = dev
	t.logger.Info("i2c device opened")

	return nil
}

func (t *I2CTransport) Disconnect() error {
	t.mu.Lock()
	dev := t.dev
	t.dev = nil
	t.mu.Unlock()

	if dev == nil {
		return nil
	}
	if err := dev.Close(); err != nil {
		t.logger.Warn("close i2c bus", "error", err)
	}
	t.logger.Info("i2c device closed")

	return nil
}

func (t *I2CTransport) Send(ctx context.Context, payload []byte) error {
	dev, err := t.current("send")
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return writeError(t.Resource(), err, nil)
	}

	t.xferMu.Lock()
	defer t.xferMu.Unlock()

	if t.cfg.HasRegister {
		if len(payload) > maxI2CBlockLen {
			return &IOError{Op: "send", Resource: t.Resource(), Err: fmt.Errorf("block write limited to %d bytes, got %d", maxI2CBlockLen, len(payload))}
		}
		err = dev.WriteBlock(t.cfg.Register, payload)
	} else if len(payload) > 0 {
		err = dev.WriteByte(payload[0])
	}
	if err != nil {
		t.releaseIfGone(dev, err)
		return writeError(t.Resource(), err, isI2CTimeout)
	}

	return nil
}

// Receive reads ReadSize bytes. I2C is master-driven, so there is no waiting for data and
// timeout only applies when the caller's context is already done.
func (t *I2CTransport) Receive(ctx context.Context, _ time.Duration) ([]byte, error) {
	dev, err := t.current("receive")
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	t.xferMu.Lock()
	defer t.xferMu.Unlock()

	size := max(t.cfg.ReadSize, 1)
	if t.cfg.HasRegister {
		data, err := dev.ReadBlock(t.cfg.Register, size)
		if err != nil {
			t.releaseIfGone(dev, err)
			return nil, &IOError{Op: "receive", Resource: t.Resource(), Err: err}
		}
		return data, nil
	}

	out := make([]byte, 0, size)
	for range size {
		b, err := dev.ReadByte()
		if err != nil {
			t.releaseIfGone(dev, err)
			return nil, &IOError{Op: "receive", Resource: t.Resource(), Err: err}
		}
		out = append(out, b)
	}

	return out, nil
}

func (t *I2CTransport) releaseIfGone(dev i2cDevice, err error) {
	if !isI2CBusGone(err) {
		return
	}

	t.mu.Lock()
	if t.dev != dev {
		t.mu.Unlock()
		return
	}
	t.dev = nil
	t.mu.Unlock()

	_ = dev.Close()
	t.logger.Warn("i2c bus released after fault", "error", err)
}

func (t *I2CTransport) current(op string) (i2cDevice, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev == nil {
		return nil, notConnected(op, t.Resource())
	}
	return t.dev, nil
}
