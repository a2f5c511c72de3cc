// Command bme280d polls BME280 sensors and publishes the readings to
// InfluxDB, Prometheus and WebSocket clients.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/bemasher/bme280"
	"github.com/bemasher/bme280/bus"
	"github.com/bemasher/bme280/internal/server"
	"github.com/bemasher/bme280/internal/sink"
)

type settings struct {
	deviceFilename string
	transport      string
	interval       time.Duration
	listen         string
	level          logrus.Level
	influx         sink.Config
}

// loadSettings reads the environment through lookup.
func loadSettings(lookup func(string) (string, bool)) (s settings, err error) {
	var ok bool

	if s.deviceFilename, ok = lookup("BME280D_DEVICES"); !ok {
		return s, xerrors.New("required environment variable BME280D_DEVICES undefined")
	}

	if s.transport, ok = lookup("BME280D_TRANSPORT"); !ok {
		s.transport = "periph"
	}
	if s.transport != "periph" && s.transport != "embd" {
		return s, xerrors.Errorf("unknown transport %q", s.transport)
	}

	s.interval = 2 * time.Second
	if v, ok := lookup("BME280D_INTERVAL"); ok {
		if s.interval, err = time.ParseDuration(v); err != nil {
			return s, xerrors.Errorf("BME280D_INTERVAL: %w", err)
		}
		if s.interval <= 0 {
			return s, xerrors.Errorf("BME280D_INTERVAL must be positive: %s", v)
		}
	}

	if s.listen, ok = lookup("BME280D_LISTEN"); !ok {
		s.listen = ":8080"
	}

	s.level = logrus.InfoLevel
	if v, ok := lookup("BME280D_LOG_LEVEL"); ok {
		if s.level, err = logrus.ParseLevel(v); err != nil {
			return s, xerrors.Errorf("BME280D_LOG_LEVEL: %w", err)
		}
	}

	s.influx.URL, _ = lookup("INFLUX_URL")
	s.influx.Token, _ = lookup("INFLUX_TOKEN")
	s.influx.Org, _ = lookup("INFLUX_ORG")
	s.influx.Bucket, _ = lookup("INFLUX_BUCKET")
	if s.influx.Measure, ok = lookup("INFLUX_MEASURE"); !ok {
		s.influx.Measure = "environment"
	}

	return s, nil
}

func (s settings) log(log logrus.FieldLogger) {
	log.Infof("BME280D_DEVICES=%q", s.deviceFilename)
	log.Infof("BME280D_TRANSPORT=%q", s.transport)
	log.Infof("BME280D_INTERVAL=%s", s.interval)
	log.Infof("BME280D_LISTEN=%q", s.listen)
	log.Infof("INFLUX_URL=%q", s.influx.URL)
	log.Info("INFLUX_TOKEN=************")
	log.Infof("INFLUX_BUCKET=%q", s.influx.Bucket)
	log.Infof("INFLUX_MEASURE=%q", s.influx.Measure)
}

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	cfgEnv, err := loadSettings(os.LookupEnv)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	log.SetLevel(cfgEnv.level)
	cfgEnv.log(log)

	cfg := Config{}
	err = cfg.Read(cfgEnv.deviceFilename)
	if xerrors.Is(err, os.ErrNotExist) {
		log.Warn("device file does not exist, writing an example")
		if err := exampleConfig().Write(cfgEnv.deviceFilename); err != nil {
			log.Fatalf("%+v", xerrors.Errorf("cfg.Write: %w", err))
		}
		return
	}
	if err != nil {
		log.Fatalf("%+v", xerrors.Errorf("cfg.Read: %w", err))
	}

	var opener bme280.Opener = &bus.Periph{}
	if cfgEnv.transport == "embd" {
		if err := embd.InitI2C(); err != nil {
			log.Fatalf("%+v", xerrors.Errorf("embd.InitI2C: %w", err))
		}
		defer embd.CloseI2C()
		opener = bus.Embd{}
	}

	srv := server.New(log)
	httpSrv := &http.Server{Addr: cfgEnv.listen, Handler: srv.Handler()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("%+v", xerrors.Errorf("ListenAndServe: %w", err))
		}
	}()
	defer httpSrv.Close()

	var w pointWriter
	if cfgEnv.influx.URL != "" {
		influx := sink.NewInflux(cfgEnv.influx, log)
		defer influx.Close()
		w = influx
	}

	f := newFleet(opener, log, srv, w)
	f.apply(cfg)
	defer f.closeAll()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tick := time.NewTicker(cfgEnv.interval)
	defer tick.Stop()

	log.WithField("devices", len(f.stations)).Info("polling...")

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGUSR1:
				log.Info("reloading config...")
				if err := cfg.Reload(cfgEnv.deviceFilename); err != nil {
					log.Errorf("%+v", xerrors.Errorf("cfg.Reload: %w", err))
					continue
				}
				f.apply(cfg)
			default:
				log.Infof("received signal: %s", sig)
				return
			}
		case <-tick.C:
			f.poll(ctx)
		}
	}
}
