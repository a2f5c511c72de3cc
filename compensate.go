package bme280

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

// FineTemperature is the intermediate temperature value shared by the
// pressure and humidity formulas. It is only meaningful for raw samples taken
// in the same measurement as the temperature it was computed from.
type FineTemperature int32

// Compensation selects one of the two datasheet formulations.
type Compensation int

const (
	// IntegerCompensation uses the 32/64-bit fixed point formulas.
	IntegerCompensation Compensation = iota
	// FloatCompensation uses the double precision formulas.
	FloatCompensation
)

func (c Compensation) String() string {
	switch c {
	case IntegerCompensation:
		return "integer"
	case FloatCompensation:
		return "float"
	}
	return fmt.Sprintf("Compensation(%d)", int(c))
}

func (c *Compensation) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "int", "integer":
		*c = IntegerCompensation
	case "float", "double":
		*c = FloatCompensation
	default:
		return xerrors.Errorf("invalid compensation: %q", text)
	}
	return nil
}

func (c Compensation) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Temperature returns the temperature in °C and the fine temperature.
func (c Compensation) Temperature(raw int32, cal *Calibration) (float64, FineTemperature) {
	if c == FloatCompensation {
		return CompensateTemperatureFloat(raw, cal)
	}
	t, fine := CompensateTemperatureInt(raw, cal)
	return float64(t) / 100, fine
}

// Pressure returns the pressure in hPa.
func (c Compensation) Pressure(raw int32, cal *Calibration, fine FineTemperature) float64 {
	if c == FloatCompensation {
		return CompensatePressureFloat(raw, cal, fine) / 100
	}
	return float64(CompensatePressureInt(raw, cal, fine)) / 25600
}

// Humidity returns the relative humidity in %, always within [0, 100].
func (c Compensation) Humidity(raw int32, cal *Calibration, fine FineTemperature) float64 {
	if c == FloatCompensation {
		return CompensateHumidityFloat(raw, cal, fine)
	}
	return float64(CompensateHumidityInt(raw, cal, fine)) / 1024
}

// ClampPressure limits hPa to the sensor's operating range.
func ClampPressure(hPa float64) float64 {
	switch {
	case hPa < MinPressure:
		return MinPressure
	case hPa > MaxPressure:
		return MaxPressure
	}
	return hPa
}

// CompensateTemperatureInt returns the temperature in 0.01 °C.
// Output value of 5123 equals 51.23 °C.
func CompensateTemperatureInt(raw int32, cal *Calibration) (int32, FineTemperature) {
	t1 := int32(cal.T1)
	t2 := int32(cal.T2)
	t3 := int32(cal.T3)

	v1 := (((raw >> 3) - (t1 << 1)) * t2) >> 11
	v2 := (((((raw >> 4) - t1) * ((raw >> 4) - t1)) >> 12) * t3) >> 14

	fine := v1 + v2
	return (fine*5 + 128) >> 8, FineTemperature(fine)
}

// CompensatePressureInt returns the pressure in Pa as Q24.8 fixed point.
// Output value of 24674867 equals 24674867/256 = 96386.2 Pa.
func CompensatePressureInt(raw int32, cal *Calibration, fine FineTemperature) uint32 {
	v1 := int64(fine) - 128000
	v2 := v1 * v1 * int64(cal.P6)
	v2 += (v1 * int64(cal.P5)) << 17
	v2 += int64(cal.P4) << 35
	v1 = ((v1 * v1 * int64(cal.P3)) >> 8) + ((v1 * int64(cal.P2)) << 12)
	v1 = ((int64(1) << 47) + v1) * int64(cal.P1) >> 33
	if v1 == 0 {
		return 0
	}

	p := 1048576 - int64(raw)
	p = (((p << 31) - v2) * 3125) / v1
	v1 = (int64(cal.P9) * (p >> 13) * (p >> 13)) >> 25
	v2 = (int64(cal.P8) * p) >> 19
	p = ((p + v1 + v2) >> 8) + (int64(cal.P7) << 4)
	return uint32(p)
}

// CompensateHumidityInt returns the relative humidity in % as Q22.10 fixed
// point. Output value of 47445 equals 47445/1024 = 46.333 %.
func CompensateHumidityInt(raw int32, cal *Calibration, fine FineTemperature) uint32 {
	h1 := int32(cal.H1)
	h2 := int32(cal.H2)
	h3 := int32(cal.H3)
	h4 := int32(cal.H4)
	h5 := int32(cal.H5)
	h6 := int32(cal.H6)

	x := int32(fine) - 76800
	x = ((((raw << 14) - (h4 << 20) - (h5 * x)) + 16384) >> 15) *
		(((((((x*h6)>>10)*(((x*h3)>>11)+32768))>>10)+2097152)*h2 + 8192) >> 14)
	x -= ((((x >> 15) * (x >> 15)) >> 7) * h1) >> 4

	switch {
	case x < 0:
		x = 0
	case x > 419430400:
		x = 419430400
	}
	return uint32(x >> 12)
}

// CompensateTemperatureFloat returns the temperature in °C.
func CompensateTemperatureFloat(raw int32, cal *Calibration) (float64, FineTemperature) {
	uct := float64(raw)

	t1 := float64(cal.T1)
	t2 := float64(cal.T2)
	t3 := float64(cal.T3)

	v1 := (uct/16384.0 - t1/1024.0) * t2
	v2 := ((uct/131072.0 - t1/8192.0) * (uct/131072.0 - t1/8192.0)) * t3

	return (v1 + v2) / 5120.0, FineTemperature(v1 + v2)
}

// CompensatePressureFloat returns the pressure in Pa.
func CompensatePressureFloat(raw int32, cal *Calibration, fine FineTemperature) float64 {
	ucp := float64(raw)

	p1 := float64(cal.P1)
	p2 := float64(cal.P2)
	p3 := float64(cal.P3)
	p4 := float64(cal.P4)
	p5 := float64(cal.P5)
	p6 := float64(cal.P6)
	p7 := float64(cal.P7)
	p8 := float64(cal.P8)
	p9 := float64(cal.P9)

	v1 := 0.5*float64(fine) - 64000.0
	v2 := v1*v1*p6/32768.0 + v1*p5*2
	v2 = v2/4 + p4*65536
	v1 = (p3*v1*v1/524288.0 + p2*v1) / 524288.0
	v1 = (1.0 + v1/32768.0) * p1
	if v1 == 0 {
		return 0
	}

	p := 1048576.0 - ucp
	p = ((p - v2/4096.0) * 6250.0) / v1
	v1 = p9 * p * p / 2147483648.0
	v2 = p * p8 / 32768.0
	return p + (v1+v2+p7)/16.0
}

// CompensateHumidityFloat returns the relative humidity in %.
func CompensateHumidityFloat(raw int32, cal *Calibration, fine FineTemperature) float64 {
	uch := float64(raw)

	h1 := float64(cal.H1)
	h2 := float64(cal.H2)
	h3 := float64(cal.H3)
	h4 := float64(cal.H4)
	h5 := float64(cal.H5)
	h6 := float64(cal.H6)

	h := float64(fine) - 76800
	h = (uch - (h4*64.0 + h5/16384.0*h)) * (h2 / 65536.0 * (1.0 + h6/67108864.0*h*(1.0+h3/67108864.0*h)))
	h = h * (1.0 - h1*h/524288.0)

	switch {
	case h > MaxHumidity:
		return MaxHumidity
	case h < MinHumidity:
		return MinHumidity
	}

	return h
}
