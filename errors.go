package bme280

import (
	"fmt"

	"golang.org/x/xerrors"
)

var (
	// ErrNotOpen is returned by every operation on a closed Dev.
	ErrNotOpen = xerrors.New("bme280: device not open")

	// ErrUnexpectedDevice is returned at connect time when the chip id does
	// not match ChipID and Opts.StrictChipID is set.
	ErrUnexpectedDevice = xerrors.New("bme280: unexpected chip id")

	// ErrCalibrationBusy is returned when the device is still copying its
	// calibration data after the post-reset wait.
	ErrCalibrationBusy = xerrors.New("bme280: calibration data not ready")

	// ErrOversamplingDisabled matches any *OversamplingDisabledError.
	ErrOversamplingDisabled = xerrors.New("bme280: oversampling disabled")
)

// Quantity names one of the measured values.
type Quantity int

const (
	Temperature Quantity = iota
	Pressure
	Humidity
)

func (q Quantity) String() string {
	switch q {
	case Temperature:
		return "temperature"
	case Pressure:
		return "pressure"
	case Humidity:
		return "humidity"
	}
	return fmt.Sprintf("Quantity(%d)", int(q))
}

// OversamplingDisabledError is returned when a read needs a quantity whose
// oversampling is set to Skip.
type OversamplingDisabledError struct {
	Quantity Quantity
}

func (e *OversamplingDisabledError) Error() string {
	return fmt.Sprintf("bme280: %s oversampling is skipped", e.Quantity)
}

func (e *OversamplingDisabledError) Is(target error) bool {
	return target == ErrOversamplingDisabled
}
