package bus

import (
	"errors"
	"testing"

	"github.com/kidoman/embd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus implements the embd.I2CBus methods the adapter uses, the rest
// panic through the nil embedded interface.
type fakeBus struct {
	embd.I2CBus

	addr   byte
	regs   [256]byte
	writes [][2]byte
	err    error
	closed bool
}

func (b *fakeBus) ReadByteFromReg(addr, reg byte) (byte, error) {
	b.addr = addr
	return b.regs[reg], b.err
}

func (b *fakeBus) ReadFromReg(addr, reg byte, value []byte) error {
	b.addr = addr
	copy(value, b.regs[reg:])
	return b.err
}

func (b *fakeBus) WriteByteToReg(addr, reg, value byte) error {
	b.addr = addr
	b.writes = append(b.writes, [2]byte{reg, value})
	return b.err
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

func TestEmbdConn(t *testing.T) {
	fb := &fakeBus{}
	fb.regs[0xD0] = 0x60
	fb.regs[0x88], fb.regs[0x89] = 0x70, 0x6B

	var gotBus byte
	e := Embd{NewBus: func(n byte) embd.I2CBus { gotBus = n; return fb }}

	c, err := e.Open("1", 0x76)
	require.NoError(t, err)
	assert.Equal(t, byte(1), gotBus)

	id, err := c.ReadReg(0xD0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x60), id)
	assert.Equal(t, byte(0x76), fb.addr)

	w, err := c.ReadRegWord(0x88)
	require.NoError(t, err)
	assert.Equal(t, uint16(27504), w)

	require.NoError(t, c.WriteReg(0xF4, 0xB7))
	assert.Equal(t, [][2]byte{{0xF4, 0xB7}}, fb.writes)

	require.NoError(t, c.Close())
	assert.False(t, fb.closed, "bus is shared")
}

func TestEmbdErrors(t *testing.T) {
	errNack := errors.New("nack")
	fb := &fakeBus{err: errNack}
	e := Embd{NewBus: func(byte) embd.I2CBus { return fb }}

	_, err := e.Open("i2c-1", 0x77)
	assert.Error(t, err)
	_, err = e.Open("1", 0x1FF)
	assert.Error(t, err)

	c, err := e.Open("1", 0x77)
	require.NoError(t, err)
	_, err = c.ReadReg(0xD0)
	assert.True(t, errors.Is(err, errNack))
	assert.True(t, errors.Is(c.WriteReg(0xF4, 0), errNack))
}
