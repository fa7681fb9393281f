package transport

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/host/v3/sysfs"
)

// periphDevice addresses one slave on a periph I2C bus. Register transfers are a register
// write followed by a repeated-start read, the same wire sequence as an SMBus I2C block access.
type periphDevice struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

func openI2CDevice(busNumber int, addr uint8) (i2cDevice, error) {
	bus, err := sysfs.NewI2C(busNumber)
	if err != nil {
		return nil, err
	}

	return newPeriphDevice(bus, addr), nil
}

func newPeriphDevice(bus i2c.BusCloser, addr uint8) *periphDevice {
	return &periphDevice{bus: bus, dev: &i2c.Dev{Bus: bus, Addr: uint16(addr)}}
}

func (d *periphDevice) ReadByte() (byte, error) {
	var buf [1]byte
	if err := d.dev.Tx(nil, buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}

func (d *periphDevice) WriteByte(b byte) error {
	return d.dev.Tx([]byte{b}, nil)
}

func (d *periphDevice) ReadBlock(reg uint8, n int) ([]byte, error) {
	if n <= 0 || n > maxI2CBlockLen {
		return nil, fmt.Errorf("invalid i2c block length %d", n)
	}
	buf := make([]byte, n)
	if err := d.dev.Tx([]byte{reg}, buf); err != nil {
		return nil, err
	}

	return buf, nil
}

func (d *periphDevice) WriteBlock(reg uint8, payload []byte) error {
	if len(payload) > maxI2CBlockLen {
		return fmt.Errorf("invalid i2c block length %d", len(payload))
	}
	w := make([]byte, 0, len(payload)+1)
	w = append(w, reg)
	w = append(w, payload...)

	return d.dev.Tx(w, nil)
}

func (d *periphDevice) Close() error {
	return d.bus.Close()
}
