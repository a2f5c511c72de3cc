package bme280

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

// Mode is the device power mode.
type Mode byte

const (
	ModeSleep  Mode = 0b00
	ModeForced Mode = 0b01
	ModeNormal Mode = 0b11
)

// Oversampling is the per-quantity averaging factor. Skip disables the
// quantity entirely.
type Oversampling byte

const (
	Skip Oversampling = iota
	Sampling1X
	Sampling2X
	Sampling4X
	Sampling8X
	Sampling16X
)

// Filter is the IIR filter coefficient.
type Filter byte

const (
	FilterOff Filter = iota
	Filter2X
	Filter4X
	Filter8X
	Filter16X
)

// Standby is the inactive time between measurements in Normal mode. The
// register encoding is not monotonic in duration.
type Standby byte

const (
	S500us  Standby = 0b000
	S62ms   Standby = 0b001
	S125ms  Standby = 0b010
	S250ms  Standby = 0b011
	S500ms  Standby = 0b100
	S1000ms Standby = 0b101
	S10ms   Standby = 0b110
	S20ms   Standby = 0b111
)

// Sampling is the full content of the three control registers.
type Sampling struct {
	Mode        Mode
	Temperature Oversampling
	Pressure    Oversampling
	Humidity    Oversampling
	Filter      Filter
	Standby     Standby
}

// Registers packs s into ctrl_hum (0xF2), config (0xF5) and ctrl_meas (0xF4).
// Values are written as-is; out of range fields are not rejected.
func (s Sampling) Registers() (ctrlHum, config, ctrlMeas byte) {
	ctrlHum = byte(s.Humidity) & 0x07
	config = byte(s.Standby)<<5 | (byte(s.Filter)&0x07)<<2
	ctrlMeas = byte(s.Temperature)<<5 | (byte(s.Pressure)&0x07)<<2 | byte(s.Mode)&0x03
	return
}

// oversampling returns the configured oversampling of q.
func (s Sampling) oversampling(q Quantity) Oversampling {
	switch q {
	case Temperature:
		return s.Temperature
	case Pressure:
		return s.Pressure
	default:
		return s.Humidity
	}
}

func (s *Sampling) setOversampling(q Quantity, o Oversampling) {
	switch q {
	case Temperature:
		s.Temperature = o
	case Pressure:
		s.Pressure = o
	default:
		s.Humidity = o
	}
}

func (s Sampling) String() string {
	return fmt.Sprintf("{Mode:%s T:%s P:%s H:%s Filter:%s Standby:%s}",
		s.Mode, s.Temperature, s.Pressure, s.Humidity, s.Filter, s.Standby)
}

// Normal samples continuously with 16x oversampling for everything.
func Normal() Sampling {
	return Sampling{
		Mode:        ModeNormal,
		Temperature: Sampling16X,
		Pressure:    Sampling16X,
		Humidity:    Sampling16X,
		Filter:      FilterOff,
		Standby:     S500us,
	}
}

// WeatherStation is the datasheet's low power weather monitoring setting:
// one forced measurement per read with 1x oversampling.
func WeatherStation() Sampling {
	return Sampling{
		Mode:        ModeForced,
		Temperature: Sampling1X,
		Pressure:    Sampling1X,
		Humidity:    Sampling1X,
		Filter:      FilterOff,
		Standby:     S500us,
	}
}

// WeatherStationNormal is WeatherStation running in Normal mode.
func WeatherStationNormal() Sampling {
	s := WeatherStation()
	s.Mode = ModeNormal
	return s
}

// Skipped runs in Normal mode with every quantity skipped.
func Skipped() Sampling {
	return Sampling{Mode: ModeNormal}
}

// IndoorNavigation favours pressure resolution and filters out short term
// disturbances such as doors slamming.
func IndoorNavigation() Sampling {
	return Sampling{
		Mode:        ModeNormal,
		Temperature: Sampling2X,
		Pressure:    Sampling16X,
		Humidity:    Sampling1X,
		Filter:      Filter16X,
		Standby:     S500us,
	}
}

// Preset returns the named preset: "normal", "weather", "weather-normal" or
// "indoor".
func Preset(name string) (Sampling, error) {
	switch strings.ToLower(name) {
	case "", "normal":
		return Normal(), nil
	case "weather", "weather-station":
		return WeatherStation(), nil
	case "weather-normal":
		return WeatherStationNormal(), nil
	case "indoor", "indoor-navigation":
		return IndoorNavigation(), nil
	case "skipped":
		return Skipped(), nil
	}
	return Sampling{}, xerrors.Errorf("unknown preset %q", name)
}

func (m Mode) String() string {
	switch m {
	case ModeSleep:
		return "sleep"
	case ModeForced, 0b10:
		return "forced"
	case ModeNormal:
		return "normal"
	}
	return fmt.Sprintf("Mode(%d)", byte(m))
}

func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "sleep":
		*m = ModeSleep
	case "forced":
		*m = ModeForced
	case "normal":
		*m = ModeNormal
	default:
		return xerrors.Errorf("invalid mode: %q", text)
	}
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Factor returns the number of samples averaged, 0 for Skip.
func (o Oversampling) Factor() int {
	if o == Skip {
		return 0
	}
	if o > Sampling16X {
		o = Sampling16X
	}
	return 1 << (o - 1)
}

func (o Oversampling) String() string {
	if o == Skip {
		return "skip"
	}
	return fmt.Sprintf("%dx", o.Factor())
}

func (o *Oversampling) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	if s == "skip" || s == "off" {
		*o = Skip
		return nil
	}
	for v := Sampling1X; v <= Sampling16X; v++ {
		if s == v.String() {
			*o = v
			return nil
		}
	}
	return xerrors.Errorf("invalid oversampling: %q", text)
}

func (o Oversampling) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Coefficient returns the IIR filter coefficient, 0 when off.
func (f Filter) Coefficient() int {
	if f == FilterOff {
		return 0
	}
	if f > Filter16X {
		f = Filter16X
	}
	return 1 << f
}

func (f Filter) String() string {
	if f == FilterOff {
		return "off"
	}
	return fmt.Sprintf("%dx", f.Coefficient())
}

func (f *Filter) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for v := FilterOff; v <= Filter16X; v++ {
		if s == v.String() {
			*f = v
			return nil
		}
	}
	return xerrors.Errorf("invalid filter: %q", text)
}

func (f Filter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

var standbyDurations = [8]time.Duration{
	S500us:  500 * time.Microsecond,
	S62ms:   62500 * time.Microsecond,
	S125ms:  125 * time.Millisecond,
	S250ms:  250 * time.Millisecond,
	S500ms:  500 * time.Millisecond,
	S1000ms: time.Second,
	S10ms:   10 * time.Millisecond,
	S20ms:   20 * time.Millisecond,
}

// Duration returns the standby time.
func (s Standby) Duration() time.Duration {
	return standbyDurations[s&0x07]
}

func (s Standby) String() string {
	return s.Duration().String()
}

func (s *Standby) UnmarshalText(text []byte) error {
	d, err := time.ParseDuration(string(text))
	if err != nil {
		return xerrors.Errorf("time.ParseDuration: %w", err)
	}
	for v, sd := range standbyDurations {
		if sd == d {
			*s = Standby(v)
			return nil
		}
	}
	return xerrors.Errorf("invalid standby: %q", text)
}

func (s Standby) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
