package bus

import (
	"encoding/binary"
	"sync"

	"golang.org/x/xerrors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/bemasher/bme280"
)

// Periph opens devices through the periph.io I2C registry. The zero value
// is ready to use.
type Periph struct {
	// OpenBus opens a bus by name, i2creg.Open if nil. A bus name of ""
	// selects the first bus found.
	OpenBus func(name string) (i2c.BusCloser, error)

	once    sync.Once
	initErr error
}

var _ bme280.Opener = (*Periph)(nil)

func (p *Periph) Open(bus string, addr uint16) (bme280.Conn, error) {
	open := p.OpenBus
	if open == nil {
		p.once.Do(func() {
			if _, err := host.Init(); err != nil {
				p.initErr = xerrors.Errorf("host.Init: %w", err)
			}
		})
		if p.initErr != nil {
			return nil, p.initErr
		}
		open = i2creg.Open
	}

	b, err := open(bus)
	if err != nil {
		return nil, xerrors.Errorf("i2creg.Open: %w", err)
	}

	return &periphConn{bus: b, dev: i2c.Dev{Bus: b, Addr: addr}}, nil
}

// periphConn owns its bus handle, each device opens its own.
type periphConn struct {
	bus i2c.BusCloser
	dev i2c.Dev
	w   [2]byte
}

func (c *periphConn) ReadReg(reg byte) (byte, error) {
	var r [1]byte
	if err := c.ReadRegBuffer(reg, r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (c *periphConn) ReadRegWord(reg byte) (uint16, error) {
	var r [2]byte
	if err := c.ReadRegBuffer(reg, r[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r[:]), nil
}

func (c *periphConn) ReadRegBuffer(reg byte, buf []byte) error {
	c.w[0] = reg
	if err := c.dev.Tx(c.w[:1], buf); err != nil {
		return xerrors.Errorf("Tx: %w", err)
	}
	return nil
}

func (c *periphConn) WriteReg(reg, value byte) error {
	c.w[0], c.w[1] = reg, value
	if err := c.dev.Tx(c.w[:2], nil); err != nil {
		return xerrors.Errorf("Tx: %w", err)
	}
	return nil
}

func (c *periphConn) Close() error {
	return c.bus.Close()
}
