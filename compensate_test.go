package bme280

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The datasheet allows small rounding differences, results must be within
// 0.1 %.
const tolerance = 0.001

// referenceFine is the fine value the published pressure and humidity
// vectors were generated with (temperature × 100).
const referenceFine FineTemperature = 2508

func TestCompensateTemperature(t *testing.T) {
	cal := datasheetCalibration

	centi, fine := CompensateTemperatureInt(rawTemperature, &cal)
	assert.Equal(t, int32(2508), centi)
	assert.Equal(t, FineTemperature(128422), fine)

	c, fine := CompensateTemperatureFloat(rawTemperature, &cal)
	assert.InEpsilon(t, 25.08, c, tolerance)
	assert.InEpsilon(t, 128422.0, float64(fine), tolerance)

	for _, comp := range []Compensation{IntegerCompensation, FloatCompensation} {
		c, fine := comp.Temperature(rawTemperature, &cal)
		assert.InEpsilon(t, 25.08, c, tolerance, comp.String())
		assert.InEpsilon(t, 128422.0, float64(fine), tolerance, comp.String())
	}
}

func TestCompensatePressure(t *testing.T) {
	cal := datasheetCalibration

	for _, comp := range []Compensation{IntegerCompensation, FloatCompensation} {
		_, fine := comp.Temperature(rawTemperature, &cal)
		assert.InEpsilon(t, 1006.53, comp.Pressure(rawPressure, &cal, fine), tolerance, comp.String())
		assert.InEpsilon(t, 968.5327, comp.Pressure(rawPressure, &cal, referenceFine), tolerance, comp.String())
	}

	q := CompensatePressureInt(rawPressure, &cal, 128422)
	assert.InEpsilon(t, 100653.27, float64(q)/256, tolerance)
}

func TestCompensateHumidity(t *testing.T) {
	cal := datasheetCalibration

	for _, comp := range []Compensation{IntegerCompensation, FloatCompensation} {
		_, fine := comp.Temperature(rawTemperature, &cal)
		assert.InEpsilon(t, 45.71, comp.Humidity(rawHumidity, &cal, fine), tolerance, comp.String())
		assert.InEpsilon(t, 45.242188, comp.Humidity(rawHumidity, &cal, referenceFine), tolerance, comp.String())
	}

	assert.Equal(t, uint32(46808), CompensateHumidityInt(rawHumidity, &cal, 128422))
}

func TestCompensationFormulationsAgree(t *testing.T) {
	cal := datasheetCalibration

	for _, rawT := range []int32{400000, 480000, 519888, 560000} {
		ti, fi := IntegerCompensation.Temperature(rawT, &cal)
		tf, ff := FloatCompensation.Temperature(rawT, &cal)
		assert.InDelta(t, ti, tf, 0.01)

		for _, rawP := range []int32{300000, 415148, 500000} {
			pi := IntegerCompensation.Pressure(rawP, &cal, fi)
			pf := FloatCompensation.Pressure(rawP, &cal, ff)
			assert.InEpsilon(t, pi, pf, tolerance, "raw T %d P %d", rawT, rawP)
		}
	}
}

func TestCompensatePressureZeroGuard(t *testing.T) {
	cal := datasheetCalibration
	cal.P1 = 0

	assert.Zero(t, CompensatePressureInt(rawPressure, &cal, 128422))
	assert.Zero(t, CompensatePressureFloat(rawPressure, &cal, 128422))
	assert.Equal(t, MinPressure, ClampPressure(IntegerCompensation.Pressure(rawPressure, &cal, 128422)))
}

func TestCompensateHumidityRange(t *testing.T) {
	cal := datasheetCalibration

	for _, comp := range []Compensation{IntegerCompensation, FloatCompensation} {
		for _, fine := range []FineTemperature{-200000, 0, 128422, 300000} {
			for raw := int32(0); raw <= 0xFFFF; raw += 0x0FFF {
				h := comp.Humidity(raw, &cal, fine)
				require.GreaterOrEqual(t, h, 0.0)
				require.LessOrEqual(t, h, 100.0)
			}
		}
	}
}

func TestClampPressure(t *testing.T) {
	cal := datasheetCalibration

	for raw := int32(0); raw <= 0xFFFFF; raw += 0x7FFF {
		p := ClampPressure(IntegerCompensation.Pressure(raw, &cal, 128422))
		require.GreaterOrEqual(t, p, MinPressure)
		require.LessOrEqual(t, p, MaxPressure)
	}

	assert.Equal(t, 1013.25, ClampPressure(1013.25))
	assert.Equal(t, MaxPressure, ClampPressure(1500))
}

func TestCompensationText(t *testing.T) {
	var c Compensation
	require.NoError(t, c.UnmarshalText([]byte("float")))
	assert.Equal(t, FloatCompensation, c)
	require.NoError(t, c.UnmarshalText([]byte("integer")))
	assert.Equal(t, IntegerCompensation, c)
	assert.Error(t, c.UnmarshalText([]byte("fixed")))
}
