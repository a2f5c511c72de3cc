package bme280

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Opts holds the driver configuration.
type Opts struct {
	// Address is the I2C address used by Open, DefaultAddress if zero.
	Address uint16

	Compensation Compensation

	// Clamp limits pressure readings to [MinPressure, MaxPressure].
	// Humidity is always limited to [0, 100].
	Clamp bool

	// StrictChipID fails the connection on a chip id other than ChipID.
	// Otherwise the mismatch is logged and the connection proceeds.
	StrictChipID bool

	Throttle     Throttle
	MaxAttempts  int           // ThrottleBounded polls, 10 if zero
	PollInterval time.Duration // 10ms if zero

	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// DefaultOpts is used when nil is passed to New or Open.
var DefaultOpts = Opts{
	Address:      DefaultAddress,
	Compensation: IntegerCompensation,
	StrictChipID: true,
	Throttle:     ThrottleBounded,
	MaxAttempts:  10,
	PollInterval: 10 * time.Millisecond,
}

var sleep = time.Sleep

// Dev is a handle to an initialized BME280.
//
// All methods are serialized. Separate Dev values may be used concurrently.
type Dev struct {
	mu   sync.Mutex
	opts Opts
	log  logrus.FieldLogger
	p    protocol
	open bool

	chipID   byte
	cal      Calibration
	sampling Sampling
	enabled  [3]bool
}

// Open opens the device at opts.Address on bus and initializes it.
func Open(o Opener, bus string, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Address
	if addr == 0 {
		addr = DefaultAddress
	}

	conn, err := o.Open(bus, addr)
	if err != nil {
		return nil, xerrors.Errorf("Open(%q, 0x%02X): %w", bus, addr, err)
	}

	return New(conn, opts)
}

// New initializes the device behind an already open conn. On failure conn
// is closed before the error is returned.
func New(conn Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}

	d := &Dev{opts: *opts}
	if d.opts.MaxAttempts <= 0 {
		d.opts.MaxAttempts = DefaultOpts.MaxAttempts
	}
	if d.opts.PollInterval <= 0 {
		d.opts.PollInterval = DefaultOpts.PollInterval
	}

	d.log = d.opts.Logger
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	d.log = d.log.WithField("device", "bme280")

	d.p = protocol{
		conn:         conn,
		log:          d.log,
		sleep:        sleep,
		throttle:     d.opts.Throttle,
		maxAttempts:  d.opts.MaxAttempts,
		pollInterval: d.opts.PollInterval,
	}

	if err := d.connect(); err != nil {
		if cerr := conn.Close(); cerr != nil {
			d.log.WithError(cerr).Debug("close after failed connect")
		}
		return nil, err
	}

	return d, nil
}

func (d *Dev) connect() error {
	d.open = true

	id, err := d.p.identify()
	if err != nil {
		return xerrors.Errorf("identify: %w", err)
	}
	d.chipID = id
	if id != ChipID {
		if d.opts.StrictChipID {
			return xerrors.Errorf("identify: got 0x%02X: %w", id, ErrUnexpectedDevice)
		}
		d.log.WithField("chip_id", fmt.Sprintf("0x%02X", id)).Warn("failed to find Bosch BME280")
	}

	if err := d.p.softReset(); err != nil {
		return xerrors.Errorf("softReset: %w", err)
	}

	if err := d.p.waitCalibrationReady(); err != nil {
		return xerrors.Errorf("waitCalibrationReady: %w", err)
	}

	if d.cal, err = readCalibration(d.p.conn); err != nil {
		return xerrors.Errorf("readCalibration: %w", err)
	}
	d.log.WithField("calibration", fmt.Sprintf("%+v", d.cal)).Debug("calibration loaded")

	if err := d.setSampling(Normal()); err != nil {
		return xerrors.Errorf("setSampling: %w", err)
	}

	return nil
}

// Close closes the underlying connection. Further calls are no-ops.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return nil
	}
	d.open = false

	conn := d.p.conn
	d.p.conn = nil
	if err := conn.Close(); err != nil {
		return xerrors.Errorf("Close: %w", err)
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("BME280{chip:0x%02X %s}", d.ChipID(), d.Sampling())
}

// ChipID returns the value read from the id register at connect time.
func (d *Dev) ChipID() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chipID
}

// Calibration returns the coefficients read at connect time.
func (d *Dev) Calibration() Calibration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cal
}

// Sampling returns the last configuration written to the device.
func (d *Dev) Sampling() Sampling {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampling
}

// SetSampling writes s to the control registers. The values are not
// validated.
func (d *Dev) SetSampling(s Sampling) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return ErrNotOpen
	}
	return d.setSampling(s)
}

func (d *Dev) setSampling(s Sampling) error {
	if err := d.p.writeSampling(s); err != nil {
		return err
	}
	d.sampling = s
	return nil
}

// SetMode changes the power mode and keeps the other settings.
func (d *Dev) SetMode(m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return ErrNotOpen
	}
	s := d.sampling
	s.Mode = m
	return d.setSampling(s)
}

// SetOversampling changes the oversampling of one quantity.
func (d *Dev) SetOversampling(q Quantity, o Oversampling) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return ErrNotOpen
	}
	s := d.sampling
	s.setOversampling(q, o)
	return d.setSampling(s)
}

func (d *Dev) SetTemperatureOversampling(o Oversampling) error {
	return d.SetOversampling(Temperature, o)
}

func (d *Dev) SetPressureOversampling(o Oversampling) error {
	return d.SetOversampling(Pressure, o)
}

func (d *Dev) SetHumidityOversampling(o Oversampling) error {
	return d.SetOversampling(Humidity, o)
}

// check verifies the device is open and the listed quantities are sampled.
func (d *Dev) check(required ...Quantity) error {
	if !d.open {
		return ErrNotOpen
	}
	for _, q := range required {
		if d.sampling.oversampling(q) == Skip {
			return &OversamplingDisabledError{Quantity: q}
		}
	}
	return nil
}

// ReadTemperature returns the temperature in °C.
func (d *Dev) ReadTemperature() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check(Temperature); err != nil {
		return 0, err
	}
	r, err := d.sense(false, false)
	return r.Temperature, err
}

// ReadPressure returns the pressure in hPa. Temperature is always sampled
// as well, prefer ReadTemperatureAndPressure when both are needed.
func (d *Dev) ReadPressure() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check(Pressure); err != nil {
		return 0, err
	}
	r, err := d.sense(false, true)
	return r.Pressure, err
}

// ReadTemperatureAndPressure returns a Reading with Humidity unset.
func (d *Dev) ReadTemperatureAndPressure() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check(Temperature, Pressure); err != nil {
		return Reading{}, err
	}
	return d.sense(false, true)
}

// ReadHumidity returns the relative humidity in %.
func (d *Dev) ReadHumidity() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check(Humidity); err != nil {
		return 0, err
	}
	r, err := d.sense(true, false)
	return r.Humidity, err
}

// ReadAll returns temperature, humidity and pressure from one measurement.
func (d *Dev) ReadAll() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check(Temperature, Humidity, Pressure); err != nil {
		return Reading{}, err
	}
	return d.sense(true, true)
}

// TakeForcedMeasurement triggers a single measurement and reads all
// quantities. Once triggered, the configured mode is restored on the device
// even if the read fails, and Sampling is left unchanged.
func (d *Dev) TakeForcedMeasurement() (r Reading, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.check(Temperature, Humidity, Pressure); err != nil {
		return Reading{}, err
	}

	if err := d.p.triggerForced(d.sampling); err != nil {
		return Reading{}, xerrors.Errorf("triggerForced: %w", err)
	}

	// Forced mode falls back to sleep by itself.
	if d.sampling.Mode != ModeForced {
		defer func() {
			if rerr := d.p.writeCtrlMeas(d.sampling); rerr != nil {
				if err == nil {
					r, err = Reading{}, xerrors.Errorf("writeCtrlMeas: %w", rerr)
				} else {
					d.log.WithError(rerr).Debug("restore mode after failed read")
				}
			}
		}()
	}

	if r, err = d.sense(true, true); err != nil {
		return Reading{}, err
	}
	return r, nil
}

// sense waits for the current conversion and reads one frame. Temperature
// is always read first since the other formulas need its fine value.
//
// It must be called with d.mu held.
func (d *Dev) sense(humidity, pressure bool) (r Reading, err error) {
	if err := d.p.waitMeasurement(); err != nil {
		return r, xerrors.Errorf("waitMeasurement: %w", err)
	}

	comp := d.opts.Compensation

	rawT, err := d.p.readRaw20(regTemperature)
	if err != nil {
		return r, err
	}
	var fine FineTemperature
	r.Temperature, fine = comp.Temperature(rawT, &d.cal)

	if humidity {
		rawH, err := d.p.readRaw16(regHumidity)
		if err != nil {
			return Reading{}, err
		}
		r.Humidity = comp.Humidity(rawH, &d.cal, fine)
	}

	if pressure {
		rawP, err := d.p.readRaw20(regPressure)
		if err != nil {
			return Reading{}, err
		}
		r.Pressure = comp.Pressure(rawP, &d.cal, fine)
		if d.opts.Clamp {
			r.Pressure = ClampPressure(r.Pressure)
		}
	}

	return r, nil
}
