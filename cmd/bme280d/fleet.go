package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/bemasher/bme280"
	"github.com/bemasher/bme280/internal/server"
)

type publisher interface {
	Publish(server.Sample)
	ReadError(device string)
	Forget(device string)
}

type pointWriter interface {
	Write(ctx context.Context, name, bus string, addr uint16, r bme280.Reading, t time.Time) error
}

type station struct {
	dev Device
	d   *bme280.Dev
}

func (s station) read() (bme280.Reading, error) {
	if s.dev.Forced {
		return s.d.TakeForcedMeasurement()
	}
	return s.d.ReadAll()
}

// fleet owns the open devices.
type fleet struct {
	opener bme280.Opener
	log    logrus.FieldLogger
	pub    publisher
	sink   pointWriter // nil when disabled

	stations map[string]station
}

func newFleet(opener bme280.Opener, log logrus.FieldLogger, pub publisher, sink pointWriter) *fleet {
	return &fleet{
		opener:   opener,
		log:      log,
		pub:      pub,
		sink:     sink,
		stations: map[string]station{},
	}
}

func (f *fleet) open(name string, dev Device) error {
	opts, err := dev.Opts()
	if err != nil {
		return err
	}
	opts.Logger = f.log.WithField("name", name)

	d, err := bme280.Open(f.opener, dev.Bus, &opts)
	if err != nil {
		return xerrors.Errorf("bme280.Open: %w", err)
	}

	sampling, _ := bme280.Preset(dev.Preset)
	if err := d.SetSampling(sampling); err != nil {
		if cerr := d.Close(); cerr != nil {
			f.log.WithField("name", name).Warnf("%+v", xerrors.Errorf("Close: %w", cerr))
		}
		return xerrors.Errorf("SetSampling: %w", err)
	}

	f.stations[name] = station{dev: dev, d: d}
	f.log.WithFields(logrus.Fields{
		"name":     name,
		"bus":      dev.Bus,
		"sampling": sampling.String(),
	}).Info("device opened")

	return nil
}

func (f *fleet) close(name string) {
	s, ok := f.stations[name]
	if !ok {
		return
	}
	if err := s.d.Close(); err != nil {
		f.log.WithField("name", name).Warnf("%+v", xerrors.Errorf("Close: %w", err))
	}
	delete(f.stations, name)
	f.pub.Forget(name)
}

// apply opens the devices of cfg and closes those no longer in it. Devices
// whose entry changed are reopened. Devices that fail to open are logged
// and skipped.
func (f *fleet) apply(cfg Config) {
	for name, s := range f.stations {
		if dev, ok := cfg[name]; !ok || !sameDevice(dev, s.dev) {
			f.close(name)
		}
	}

	for name, dev := range cfg {
		if _, ok := f.stations[name]; ok {
			continue
		}
		if err := f.open(name, dev); err != nil {
			f.log.WithField("name", name).Errorf("%+v", err)
		}
	}
}

func sameDevice(a, b Device) bool {
	strict := func(d Device) bool { return d.StrictChipID == nil || *d.StrictChipID }
	return a.Bus == b.Bus && a.Address == b.Address && a.Preset == b.Preset &&
		a.Compensation == b.Compensation && a.Clamp == b.Clamp &&
		strict(a) == strict(b) && a.Forced == b.Forced
}

// poll reads every device once.
func (f *fleet) poll(ctx context.Context) {
	for name, s := range f.stations {
		r, err := s.read()
		if err != nil {
			f.pub.ReadError(name)
			f.log.WithField("name", name).Errorf("%+v", xerrors.Errorf("read: %w", err))
			continue
		}

		t := time.Now()
		f.log.WithField("name", name).Info(r)
		f.pub.Publish(server.NewSample(name, r, t))

		if f.sink == nil {
			continue
		}
		addr := uint16(s.dev.Address)
		if addr == 0 {
			addr = bme280.DefaultAddress
		}
		if err := f.sink.Write(ctx, name, s.dev.Bus, addr, r, t); err != nil {
			f.log.WithField("name", name).Errorf("%+v", xerrors.Errorf("sink.Write: %w", err))
		}
	}
}

func (f *fleet) closeAll() {
	for name := range f.stations {
		f.close(name)
	}
}
