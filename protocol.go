package bme280

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Fixed delays from the datasheet.
const (
	resetSettle          = 300 * time.Millisecond
	calibrationPoll      = 10 * time.Millisecond
	calibrationPollLimit = 10
)

// Throttle selects how a read waits for a running conversion.
type Throttle int

const (
	// ThrottleBounded polls the measuring bit at most Opts.MaxAttempts times
	// and then reads whatever the data registers hold.
	ThrottleBounded Throttle = iota
	// ThrottleUnbounded polls until the conversion is done.
	ThrottleUnbounded
)

// protocol sequences register access for one device. Callers serialize.
type protocol struct {
	conn  Conn
	log   logrus.FieldLogger
	sleep func(time.Duration)

	throttle     Throttle
	maxAttempts  int
	pollInterval time.Duration

	buf [3]byte
}

func (p *protocol) identify() (byte, error) {
	id, err := p.conn.ReadReg(regChipID)
	if err != nil {
		return 0, xerrors.Errorf("ReadReg(chip id): %w", err)
	}
	return id, nil
}

func (p *protocol) softReset() error {
	if err := p.conn.WriteReg(regSoftReset, softResetCmd); err != nil {
		return xerrors.Errorf("WriteReg(soft reset): %w", err)
	}
	p.sleep(resetSettle)
	return nil
}

func (p *protocol) status() (byte, error) {
	s, err := p.conn.ReadReg(regStatus)
	if err != nil {
		return 0, xerrors.Errorf("ReadReg(status): %w", err)
	}
	return s, nil
}

// waitCalibrationReady polls until the NVM copy after reset has finished.
func (p *protocol) waitCalibrationReady() error {
	for i := 0; i < calibrationPollLimit; i++ {
		s, err := p.status()
		if err != nil {
			return err
		}
		if s&statusImUpdate == 0 {
			return nil
		}
		p.sleep(calibrationPoll)
	}
	return ErrCalibrationBusy
}

// writeSampling writes ctrl_hum, config and ctrl_meas in that order.
// ctrl_hum only takes effect after ctrl_meas is written.
func (p *protocol) writeSampling(s Sampling) error {
	ctrlHum, config, ctrlMeas := s.Registers()
	if err := p.conn.WriteReg(regCtrlHum, ctrlHum); err != nil {
		return xerrors.Errorf("WriteReg(ctrl_hum): %w", err)
	}
	if err := p.conn.WriteReg(regConfig, config); err != nil {
		return xerrors.Errorf("WriteReg(config): %w", err)
	}
	if err := p.conn.WriteReg(regCtrlMeas, ctrlMeas); err != nil {
		return xerrors.Errorf("WriteReg(ctrl_meas): %w", err)
	}
	return nil
}

// triggerForced writes ctrl_hum and ctrl_meas with s.Mode replaced by Forced.
func (p *protocol) triggerForced(s Sampling) error {
	s.Mode = ModeForced
	ctrlHum, _, ctrlMeas := s.Registers()
	if err := p.conn.WriteReg(regCtrlHum, ctrlHum); err != nil {
		return xerrors.Errorf("WriteReg(ctrl_hum): %w", err)
	}
	if err := p.conn.WriteReg(regCtrlMeas, ctrlMeas); err != nil {
		return xerrors.Errorf("WriteReg(ctrl_meas): %w", err)
	}
	return nil
}

// writeCtrlMeas rewrites only ctrl_meas, used to restore the mode.
func (p *protocol) writeCtrlMeas(s Sampling) error {
	_, _, ctrlMeas := s.Registers()
	if err := p.conn.WriteReg(regCtrlMeas, ctrlMeas); err != nil {
		return xerrors.Errorf("WriteReg(ctrl_meas): %w", err)
	}
	return nil
}

// waitMeasurement waits for the measuring bit to clear. With ThrottleBounded
// it gives up silently after maxAttempts polls, so the following read may
// return the previous measurement.
func (p *protocol) waitMeasurement() error {
	for i := 0; p.throttle == ThrottleUnbounded || i < p.maxAttempts; i++ {
		s, err := p.status()
		if err != nil {
			return err
		}
		if s&statusMeasuring == 0 {
			return nil
		}
		p.sleep(p.pollInterval)
	}
	p.log.WithField("attempts", p.maxAttempts).Debug("measurement still running, reading anyway")
	return nil
}

// readRaw20 reads a 20-bit temperature or pressure sample.
func (p *protocol) readRaw20(reg byte) (int32, error) {
	b := p.buf[:3]
	if err := p.conn.ReadRegBuffer(reg, b); err != nil {
		return 0, xerrors.Errorf("ReadRegBuffer(0x%02X): %w", reg, err)
	}
	// msb[7:0] lsb[7:0] xlsb[7:4]
	return int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4, nil
}

// readRaw16 reads the 16-bit humidity sample.
func (p *protocol) readRaw16(reg byte) (int32, error) {
	b := p.buf[:2]
	if err := p.conn.ReadRegBuffer(reg, b); err != nil {
		return 0, xerrors.Errorf("ReadRegBuffer(0x%02X): %w", reg, err)
	}
	return int32(b[0])<<8 | int32(b[1]), nil
}
