// Package server exposes the latest readings over HTTP, Prometheus and
// WebSocket.
package server

import (
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bemasher/bme280"
)

// Sample is one reading of a named device.
type Sample struct {
	Device string `json:"device"`
	bme280.Reading
	DewPoint *float64  `json:"dew_point,omitempty"` // nil when undefined
	Time     time.Time `json:"time"`
}

func NewSample(device string, r bme280.Reading, t time.Time) Sample {
	s := Sample{Device: device, Reading: r, Time: t}
	if dp := r.DewPoint(); !math.IsNaN(dp) && !math.IsInf(dp, 0) {
		s.DewPoint = &dp
	}
	return s
}

type Server struct {
	log    logrus.FieldLogger
	engine *gin.Engine

	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	pressure    *prometheus.GaugeVec
	readErrors  *prometheus.CounterVec

	upgrader websocket.Upgrader

	mu      sync.Mutex
	last    map[string]Sample
	clients map[*websocket.Conn]bool
}

func New(log logrus.FieldLogger) *Server {
	s := &Server{
		log: log.WithField("component", "server"),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bme280_temperature_celsius",
			Help: "Last temperature reading.",
		}, []string{"device"}),
		humidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bme280_humidity_percent",
			Help: "Last relative humidity reading.",
		}, []string{"device"}),
		pressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bme280_pressure_hpa",
			Help: "Last pressure reading.",
		}, []string{"device"}),
		readErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bme280_read_errors_total",
			Help: "Failed reads.",
		}, []string{"device"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		last:    map[string]Sample{},
		clients: map[*websocket.Conn]bool{},
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(s.temperature, s.humidity, s.pressure, s.readErrors)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequest)

	r.GET("/api/readings", s.readings)
	r.GET("/api/readings/:device", s.reading)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.GET("/ws", s.handleWebSocket)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) logRequest(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.WithFields(logrus.Fields{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"elapsed": time.Since(start),
	}).Debug("request")
}

// Publish records sample, updates the gauges and pushes it to every
// WebSocket client.
func (s *Server) Publish(sample Sample) {
	s.temperature.WithLabelValues(sample.Device).Set(sample.Temperature)
	s.humidity.WithLabelValues(sample.Device).Set(sample.Humidity)
	s.pressure.WithLabelValues(sample.Device).Set(sample.Pressure)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last[sample.Device] = sample

	for client := range s.clients {
		if err := client.WriteJSON(sample); err != nil {
			s.log.WithError(err).Debug("websocket write")
			client.Close()
			delete(s.clients, client)
		}
	}
}

func (s *Server) ReadError(device string) {
	s.readErrors.WithLabelValues(device).Inc()
}

// Forget drops a device that is no longer configured.
func (s *Server) Forget(device string) {
	s.temperature.DeleteLabelValues(device)
	s.humidity.DeleteLabelValues(device)
	s.pressure.DeleteLabelValues(device)

	s.mu.Lock()
	delete(s.last, device)
	s.mu.Unlock()
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) readings(c *gin.Context) {
	s.mu.Lock()
	samples := make([]Sample, 0, len(s.last))
	for _, sample := range s.last {
		samples = append(samples, sample)
	}
	s.mu.Unlock()

	sort.Slice(samples, func(i, j int) bool { return samples[i].Device < samples[j].Device })
	c.JSON(http.StatusOK, samples)
}

func (s *Server) reading(c *gin.Context) {
	s.mu.Lock()
	sample, ok := s.last[c.Param("device")]
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		return
	}
	c.JSON(http.StatusOK, sample)
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade")
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.mu.Unlock()
	s.log.WithField("clients", n).Info("client connected")

	defer func() {
		s.mu.Lock()
		if s.clients[conn] {
			delete(s.clients, conn)
			conn.Close()
		}
		s.mu.Unlock()
	}()

	// Clients only listen, reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
