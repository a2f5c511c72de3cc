package bme280

import (
	"time"

	"golang.org/x/xerrors"
)

// Provider is what a host sensor framework needs to drive one quantity: a
// description, a one-shot read and an on/off switch.
type Provider interface {
	Info() SensorInfo
	Read() (float64, error)
	SetEnabled(enabled bool) error
}

// SensorInfo describes a quantity for registration with a sensor framework.
type SensorInfo struct {
	Vendor     string
	Name       string
	Quantity   Quantity
	Unit       string
	MaxRange   float64
	Resolution float64
	Power      float64 // mA
	MinDelay   time.Duration
	MaxDelay   time.Duration
}

var sensorInfo = [3]SensorInfo{
	Temperature: {
		Unit:       "°C",
		MaxRange:   MaxTemperature,
		Resolution: 0.005,
		Power:      MaxCurrentTemperature / 1000,
	},
	Pressure: {
		Unit:       "hPa",
		MaxRange:   MaxPressure,
		Resolution: 0.0262,
		Power:      MaxCurrentPressure / 1000,
	},
	Humidity: {
		Unit:       "%",
		MaxRange:   MaxHumidity,
		Resolution: 0.00008,
		Power:      MaxCurrentHumidity / 1000,
	},
}

// Delays between samples at the fastest and slowest output rate, in ns.
var (
	minDelay = float64(time.Second) / MaxFrequency
	maxDelay = float64(time.Second) / MinFrequency
)

// Sensor is the Provider for one quantity of a Dev.
type Sensor struct {
	d *Dev
	q Quantity
}

var _ Provider = (*Sensor)(nil)

// Sensor returns the Provider for q, which must be Temperature, Pressure
// or Humidity.
func (d *Dev) Sensor(q Quantity) *Sensor {
	return &Sensor{d: d, q: q}
}

// Sensors returns providers for temperature, pressure and humidity.
func (d *Dev) Sensors() []*Sensor {
	return []*Sensor{d.Sensor(Temperature), d.Sensor(Pressure), d.Sensor(Humidity)}
}

func (s *Sensor) Info() SensorInfo {
	info := sensorInfo[s.q]
	info.Vendor = "Bosch"
	info.Name = "BME280"
	info.Quantity = s.q
	info.MinDelay = time.Duration(minDelay)
	info.MaxDelay = time.Duration(maxDelay)
	return info
}

func (s *Sensor) Read() (float64, error) {
	switch s.q {
	case Temperature:
		return s.d.ReadTemperature()
	case Pressure:
		return s.d.ReadPressure()
	case Humidity:
		return s.d.ReadHumidity()
	}
	return 0, xerrors.Errorf("unknown quantity %s", s.q)
}

// Enabled reports whether the quantity was enabled through SetEnabled.
func (s *Sensor) Enabled() bool {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.enabled[s.q]
}

// SetEnabled sets the quantity's oversampling to 1x or Skip. The device is
// put to sleep when no quantity is enabled and into Normal mode otherwise.
func (s *Sensor) SetEnabled(enabled bool) error {
	d := s.d
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return ErrNotOpen
	}

	cfg := d.sampling
	if enabled {
		cfg.setOversampling(s.q, Sampling1X)
	} else {
		cfg.setOversampling(s.q, Skip)
	}

	want := d.enabled
	want[s.q] = enabled

	cfg.Mode = ModeSleep
	for _, on := range want {
		if on {
			cfg.Mode = ModeNormal
			break
		}
	}

	if err := d.setSampling(cfg); err != nil {
		return err
	}
	d.enabled = want
	return nil
}
