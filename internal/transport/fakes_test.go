package transport

import (
	"errors"
	"sync"
	"time"

	"go.bug.st/serial"
)

type fakeSerialPort struct {
	mu          sync.Mutex
	rx          []byte
	writes      [][]byte
	loopback    bool
	readTimeout time.Duration
	readErr     error
	writeErr    error
	shortWrite  bool
	drains      int
	reads       int
	closed      bool
}

func (p *fakeSerialPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	p.reads++
	if p.readErr != nil {
		err := p.readErr
		p.mu.Unlock()
		return 0, err
	}
	if len(p.rx) == 0 {
		wait := p.readTimeout
		p.mu.Unlock()
		time.Sleep(wait)
		return 0, nil
	}
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	p.mu.Unlock()

	return n, nil
}

func (p *fakeSerialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	if p.loopback {
		p.rx = append(p.rx, b...)
	}
	if p.shortWrite && len(b) > 0 {
		return len(b) - 1, nil
	}

	return len(b), nil
}

func (p *fakeSerialPort) feed(b []byte) {
	p.mu.Lock()
	p.rx = append(p.rx, b...)
	p.mu.Unlock()
}

func (p *fakeSerialPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	p.readTimeout = t
	p.mu.Unlock()
	return nil
}

func (p *fakeSerialPort) Drain() error {
	p.mu.Lock()
	p.drains++
	p.mu.Unlock()
	return nil
}

func (p *fakeSerialPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakeSerialPort) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func (p *fakeSerialPort) readCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

func (p *fakeSerialPort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// withFakeSerial swaps the port opener and counts open calls.
func withFakeSerial(tr *SerialTransport, port *fakeSerialPort, openErr error) *int {
	opens := 0
	tr.open = func(_ string, _ *serial.Mode) (serialPort, error) {
		opens++
		if openErr != nil {
			return nil, openErr
		}
		return port, nil
	}

	return &opens
}

// fakeI2CDevice echoes block writes back on block reads from the same register.
type fakeI2CDevice struct {
	mu         sync.Mutex
	regs       map[uint8][]byte
	byteWrites []byte
	nextByte   byte
	ackErr   error
	readErr    error
	acked     bool
	closed     bool
	xfers      int
}

func newFakeI2CDevice() *fakeI2CDevice {
	return &fakeI2CDevice{regs: make(map[uint8][]byte)}
}

func (d *fakeI2CDevice) ReadByte() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.acked {
		d.acked = true
		if d.ackErr != nil {
			return 0, d.ackErr
		}
		return 0, nil
	}
	d.xfers++
	if d.readErr != nil {
		return 0, d.readErr
	}
	b := d.nextByte
	d.nextByte++

	return b, nil
}

func (d *fakeI2CDevice) WriteByte(b byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xfers++
	d.byteWrites = append(d.byteWrites, b)
	return nil
}

func (d *fakeI2CDevice) ReadBlock(reg uint8, n int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xfers++
	if d.readErr != nil {
		return nil, d.readErr
	}
	stored := d.regs[reg]
	if n > len(stored) {
		n = len(stored)
	}

	return append([]byte(nil), stored[:n]...), nil
}

func (d *fakeI2CDevice) WriteBlock(reg uint8, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.xfers++
	d.regs[reg] = append([]byte(nil), data...)
	return nil
}

func (d *fakeI2CDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *fakeI2CDevice) transfers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.xfers
}

var errFakeIO = errors.New("fake io failure")
