package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bemasher/bme280"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	log, _ := test.NewNullLogger()
	s := New(log)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

var porch = bme280.Reading{Temperature: 25.08, Humidity: 45.71, Pressure: 1006.53}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestReadings(t *testing.T) {
	s, ts := newTestServer(t)
	now := time.Date(2020, 9, 13, 12, 26, 40, 0, time.UTC)

	s.Publish(NewSample("shed", bme280.Reading{Temperature: 10}, now))
	s.Publish(NewSample("porch", porch, now))

	code, body := get(t, ts.URL+"/api/readings")
	require.Equal(t, http.StatusOK, code)

	var samples []Sample
	require.NoError(t, json.Unmarshal([]byte(body), &samples))
	require.Len(t, samples, 2)
	assert.Equal(t, "porch", samples[0].Device)
	assert.Equal(t, porch, samples[0].Reading)
	require.NotNil(t, samples[0].DewPoint)
	assert.InDelta(t, porch.DewPoint(), *samples[0].DewPoint, 1e-9)
	assert.Nil(t, samples[1].DewPoint, "no dew point at 0 %RH")
	assert.True(t, now.Equal(samples[0].Time))

	code, body = get(t, ts.URL+"/api/readings/shed")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"temperature":10`)

	s.Forget("shed")
	code, _ = get(t, ts.URL+"/api/readings/shed")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetrics(t *testing.T) {
	s, ts := newTestServer(t)

	s.Publish(NewSample("porch", porch, time.Now()))
	s.ReadError("porch")
	s.ReadError("porch")

	code, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `bme280_temperature_celsius{device="porch"} 25.08`)
	assert.Contains(t, body, `bme280_pressure_hpa{device="porch"} 1006.53`)
	assert.Contains(t, body, `bme280_read_errors_total{device="porch"} 2`)
}

func TestWebSocket(t *testing.T) {
	s, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	s.Publish(NewSample("porch", porch, time.Now()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var got Sample
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "porch", got.Device)
	assert.Equal(t, porch, got.Reading)

	// undefined dew point must not break the stream
	s.Publish(NewSample("shed", bme280.Reading{Temperature: 10}, time.Now()))
	var shed Sample
	require.NoError(t, conn.ReadJSON(&shed))
	assert.Equal(t, "shed", shed.Device)
	assert.Nil(t, shed.DewPoint)
	assert.Equal(t, 1, s.Clients())

	conn.Close()
	require.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, 5*time.Millisecond)
}
