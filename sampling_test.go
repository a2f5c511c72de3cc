package bme280

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplingRegisters(t *testing.T) {
	tests := []struct {
		name                     string
		s                        Sampling
		ctrlHum, config, ctrlMeas byte
	}{
		{"normal", Normal(), 0x05, 0x00, 0xB7},
		{"weather", WeatherStation(), 0x01, 0x00, 0x25},
		{"weather-normal", WeatherStationNormal(), 0x01, 0x00, 0x27},
		{"indoor", IndoorNavigation(), 0x01, 0x10, 0x57},
		{"sleep", Sampling{Mode: ModeSleep}, 0x00, 0x00, 0x00},
		{"skipped", Skipped(), 0x00, 0x00, 0x03},
		{
			"standby-filter",
			Sampling{Mode: ModeNormal, Temperature: Sampling4X, Pressure: Sampling8X, Humidity: Sampling2X, Filter: Filter2X, Standby: S1000ms},
			0x02, 0xA4, 0x73,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrlHum, config, ctrlMeas := tt.s.Registers()
			assert.Equal(t, tt.ctrlHum, ctrlHum, "ctrl_hum")
			assert.Equal(t, tt.config, config, "config")
			assert.Equal(t, tt.ctrlMeas, ctrlMeas, "ctrl_meas")
		})
	}
}

func TestPreset(t *testing.T) {
	for name, want := range map[string]Sampling{
		"":               Normal(),
		"normal":         Normal(),
		"Weather":        WeatherStation(),
		"weather-normal": WeatherStationNormal(),
		"indoor":         IndoorNavigation(),
		"skipped":        Skipped(),
	} {
		got, err := Preset(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := Preset("outdoor")
	assert.Error(t, err)
}

func TestSamplingNames(t *testing.T) {
	assert.Equal(t, 16, Sampling16X.Factor())
	assert.Equal(t, 0, Skip.Factor())
	assert.Equal(t, "2x", Sampling2X.String())
	assert.Equal(t, 8, Filter8X.Coefficient())
	assert.Equal(t, "off", FilterOff.String())
	assert.Equal(t, 62500*time.Microsecond, S62ms.Duration())
	assert.Equal(t, 20*time.Millisecond, S20ms.Duration())
	assert.Equal(t, "forced", ModeForced.String())
}

func TestSamplingJSON(t *testing.T) {
	in := IndoorNavigation()
	in.Standby = S62ms

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Mode":"normal","Temperature":"2x","Pressure":"16x","Humidity":"1x","Filter":"16x","Standby":"62.5ms"}`, string(b))

	var out Sampling
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	var o Oversampling
	assert.Error(t, o.UnmarshalText([]byte("3x")))
	var s Standby
	assert.Error(t, s.UnmarshalText([]byte("30ms")))
}
