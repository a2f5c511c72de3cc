package bme280

import "golang.org/x/xerrors"

// Calibration holds the trimming parameters stored in the device NVM.
type Calibration struct {
	T1 uint16
	T2 int16
	T3 int16

	P1 uint16
	P2 int16
	P3 int16
	P4 int16
	P5 int16
	P6 int16
	P7 int16
	P8 int16
	P9 int16

	H1 uint8
	H2 int16
	H3 uint8
	H4 int16
	H5 int16
	H6 int8
}

// calReader keeps the first error so the read sequence below stays flat.
type calReader struct {
	c   Conn
	err error
}

func (r *calReader) readWord(reg byte) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadRegWord(reg)
	if err != nil {
		r.err = xerrors.Errorf("ReadRegWord(0x%02X): %w", reg, err)
	}
	return v
}

func (r *calReader) readByte(reg byte) byte {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadReg(reg)
	if err != nil {
		r.err = xerrors.Errorf("ReadReg(0x%02X): %w", reg, err)
	}
	return v
}

// readCalibration reads all coefficients in one fixed sequence of word and
// byte reads.
func readCalibration(c Conn) (Calibration, error) {
	r := &calReader{c: c}

	var cal Calibration
	cal.T1 = r.readWord(regDigT1)
	cal.T2 = int16(r.readWord(regDigT2))
	cal.T3 = int16(r.readWord(regDigT3))

	cal.P1 = r.readWord(regDigP1)
	cal.P2 = int16(r.readWord(regDigP2))
	cal.P3 = int16(r.readWord(regDigP3))
	cal.P4 = int16(r.readWord(regDigP4))
	cal.P5 = int16(r.readWord(regDigP5))
	cal.P6 = int16(r.readWord(regDigP6))
	cal.P7 = int16(r.readWord(regDigP7))
	cal.P8 = int16(r.readWord(regDigP8))
	cal.P9 = int16(r.readWord(regDigP9))

	cal.H1 = r.readByte(regDigH1)
	cal.H2 = int16(r.readWord(regDigH2))
	cal.H3 = r.readByte(regDigH3)
	e4 := r.readByte(regDigH4)
	e5 := r.readByte(regDigH5)
	e6 := r.readByte(regDigH6)
	e7 := r.readByte(regDigH7)

	if r.err != nil {
		return Calibration{}, r.err
	}

	// E4 and E6 carry the sign of the 12-bit H4 and H5.
	cal.H4 = int16(int8(e4))<<4 | int16(e5&0x0F)
	cal.H5 = int16(int8(e6))<<4 | int16(e5>>4)
	cal.H6 = int8(e7)

	return cal, nil
}
