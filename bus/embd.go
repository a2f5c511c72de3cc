package bus

import (
	"strconv"

	"github.com/kidoman/embd"
	"golang.org/x/xerrors"

	"github.com/bemasher/bme280"
)

// Embd opens devices on embd I2C buses. Bus names are bus numbers ("1" for
// /dev/i2c-1).
type Embd struct {
	// NewBus returns the bus with the given number, embd.NewI2CBus if nil.
	NewBus func(n byte) embd.I2CBus
}

var _ bme280.Opener = Embd{}

func (e Embd) Open(bus string, addr uint16) (bme280.Conn, error) {
	n, err := strconv.ParseUint(bus, 10, 8)
	if err != nil {
		return nil, xerrors.Errorf("bus %q: %w", bus, err)
	}
	if addr > 0x7F {
		return nil, xerrors.Errorf("address 0x%X out of range", addr)
	}

	newBus := e.NewBus
	if newBus == nil {
		newBus = embd.NewI2CBus
	}

	return &embdConn{bus: newBus(byte(n)), addr: byte(addr)}, nil
}

// embdConn shares the bus with every other device on it. embd keeps one
// handle per bus number, so Close leaves the bus open and embd.CloseI2C
// releases it.
type embdConn struct {
	bus  embd.I2CBus
	addr byte
}

func (c *embdConn) ReadReg(reg byte) (byte, error) {
	v, err := c.bus.ReadByteFromReg(c.addr, reg)
	if err != nil {
		return 0, xerrors.Errorf("ReadByteFromReg: %w", err)
	}
	return v, nil
}

// ReadRegWord reads two bytes, embd's ReadWordFromReg is big-endian.
func (c *embdConn) ReadRegWord(reg byte) (uint16, error) {
	var b [2]byte
	if err := c.ReadRegBuffer(reg, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

func (c *embdConn) ReadRegBuffer(reg byte, buf []byte) error {
	if err := c.bus.ReadFromReg(c.addr, reg, buf); err != nil {
		return xerrors.Errorf("ReadFromReg: %w", err)
	}
	return nil
}

func (c *embdConn) WriteReg(reg, value byte) error {
	if err := c.bus.WriteByteToReg(c.addr, reg, value); err != nil {
		return xerrors.Errorf("WriteByteToReg: %w", err)
	}
	return nil
}

func (c *embdConn) Close() error {
	return nil
}
