package bme280

import (
	"fmt"
	"math"
)

// Reading is one compensated measurement. Quantities that were not read are
// zero.
type Reading struct {
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %RH
	Pressure    float64 `json:"pressure"`    // hPa
}

func (r Reading) String() string {
	return fmt.Sprintf("T:%0.2fC H:%0.1f%% P:%0.2fhPa", r.Temperature, r.Humidity, r.Pressure)
}

// DewPoint returns the dew point in °C using the Magnus formula.
func (r Reading) DewPoint() float64 {
	return DewPoint(r.Temperature, r.Humidity)
}

func CtoF(t float64) float64 {
	return t*1.8 + 32
}

func FtoC(t float64) float64 {
	return (t - 32) / 1.8
}

const (
	ß = 17.62
	λ = 243.12
)

// DewPoint takes °C and %RH and returns °C. It returns NaN for a
// humidity of zero or less, where the dew point is undefined.
func DewPoint(t, rh float64) float64 {
	if rh <= 0 {
		return math.NaN()
	}
	rh /= 100.0

	ßt := ß * t
	λt := λ + t
	rhLn := math.Log(rh)
	α := rhLn + ßt/λt

	return (λ * α) / (ß - α)
}
