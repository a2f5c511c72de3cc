// Package sink writes readings to InfluxDB.
package sink

import (
	"context"
	"fmt"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api/write"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/bemasher/bme280"
)

type Config struct {
	URL     string
	Token   string
	Org     string
	Bucket  string
	Measure string
}

// pointWriter is the part of api.WriteAPIBlocking the sink uses.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes one point per reading with a blocking write.
type Influx struct {
	client  influxdb2.Client
	w       pointWriter
	measure string
	log     logrus.FieldLogger
}

func NewInflux(cfg Config, log logrus.FieldLogger) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client:  client,
		w:       client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measure: cfg.Measure,
		log:     log.WithField("sink", "influx"),
	}
}

// Point builds the point for one reading of a named device.
// The dewpoint field is left out when it is undefined.
func (s *Influx) Point(name, bus string, addr uint16, r bme280.Reading, t time.Time) *write.Point {
	fields := map[string]interface{}{
		"temperature": r.Temperature,
		"humidity":    r.Humidity,
		"pressure":    r.Pressure,
	}
	if dp := r.DewPoint(); !math.IsNaN(dp) && !math.IsInf(dp, 0) {
		fields["dewpoint"] = dp
	}

	return influxdb2.NewPoint(s.measure,
		map[string]string{
			"name":    name,
			"bus":     bus,
			"address": fmt.Sprintf("%02X", addr),
		},
		fields,
		t,
	)
}

func (s *Influx) Write(ctx context.Context, name, bus string, addr uint16, r bme280.Reading, t time.Time) error {
	if err := s.w.WritePoint(ctx, s.Point(name, bus, addr, r, t)); err != nil {
		return xerrors.Errorf("WritePoint: %w", err)
	}
	s.log.WithField("name", name).Debug("point written")
	return nil
}

func (s *Influx) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
