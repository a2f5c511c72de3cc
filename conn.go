package bme280

// Conn is an open register-level connection to a single device.
//
// ReadRegWord returns the little-endian word stored at reg (low byte) and
// reg+1 (high byte), which is how the calibration words are laid out.
type Conn interface {
	ReadReg(reg byte) (byte, error)
	ReadRegWord(reg byte) (uint16, error)
	ReadRegBuffer(reg byte, buf []byte) error
	WriteReg(reg, value byte) error
	Close() error
}

// Opener opens a Conn to the device at addr on the named bus.
type Opener interface {
	Open(bus string, addr uint16) (Conn, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(bus string, addr uint16) (Conn, error)

func (f OpenerFunc) Open(bus string, addr uint16) (Conn, error) {
	return f(bus, addr)
}
