package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Close causes for the terminals_closed counter
const (
	CauseClose = "close"
	CauseExit  = "exit"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Terminal metrics
	TerminalsLive    prometheus.Gauge
	TerminalsCreated prometheus.Counter
	TerminalsClosed  *prometheus.CounterVec
	CreateFailures   *prometheus.CounterVec
	OutputBytes      prometheus.Counter

	// Session store metrics
	ScopeSwitches prometheus.Counter

	// Persistence metrics
	PersistOps      *prometheus.CounterVec
	PersistDuration *prometheus.HistogramVec
	PersistFailures *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
	snapshot  MetricsSnapshot
	mu        sync.RWMutex
}

// MetricsSnapshot holds current metric values for the JSON health API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	LiveTerminals     int64   `json:"live_terminals"`
	ActiveConnections int64   `json:"active_connections"`
	AvgDurationMs     float64 `json:"avg_duration_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	totalDuration     float64
}

// NewMetrics creates a new metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termdeck_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termdeck_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termdeck_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		TerminalsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termdeck_terminals_live",
				Help: "Number of live pty sessions",
			},
		),
		TerminalsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_terminals_created_total",
				Help: "Total number of terminals spawned",
			},
		),
		TerminalsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdeck_terminals_closed_total",
				Help: "Total number of terminals removed, by cause",
			},
			[]string{"cause"},
		),
		CreateFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdeck_terminal_create_failures_total",
				Help: "Terminal creation failures, by reason",
			},
			[]string{"reason"},
		),
		OutputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_terminal_output_bytes_total",
				Help: "Bytes read from pty sessions",
			},
		),

		ScopeSwitches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_scope_switches_total",
				Help: "Total number of project scope switches",
			},
		),

		PersistOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdeck_persistence_ops_total",
				Help: "Session record operations, by op and status",
			},
			[]string{"op", "status"},
		),
		PersistDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termdeck_persistence_duration_seconds",
				Help:    "Session record operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op"},
		),
		PersistFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdeck_persistence_failures_total",
				Help: "Swallowed session record failures, by op",
			},
			[]string{"op"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termdeck_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdeck_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "termdeck_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// TerminalCreated records a successful spawn
func (m *Metrics) TerminalCreated(live int) {
	if m == nil {
		return
	}
	m.TerminalsCreated.Inc()
	m.SetTerminalsLive(live)
}

// TerminalClosed records a removal; cause is CauseClose or CauseExit
func (m *Metrics) TerminalClosed(cause string, live int) {
	if m == nil {
		return
	}
	m.TerminalsClosed.WithLabelValues(cause).Inc()
	m.SetTerminalsLive(live)
}

// TerminalCreateFailed records a failed spawn
func (m *Metrics) TerminalCreateFailed(reason string) {
	if m == nil {
		return
	}
	m.CreateFailures.WithLabelValues(reason).Inc()
}

// SetTerminalsLive sets the live terminal gauge
func (m *Metrics) SetTerminalsLive(count int) {
	if m == nil {
		return
	}
	m.TerminalsLive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.LiveTerminals = int64(count)
	m.mu.Unlock()
}

// AddOutputBytes counts bytes read from a pty
func (m *Metrics) AddOutputBytes(n int) {
	if m == nil {
		return
	}
	m.OutputBytes.Add(float64(n))
}

// IncScopeSwitches counts a project switch
func (m *Metrics) IncScopeSwitches() {
	if m == nil {
		return
	}
	m.ScopeSwitches.Inc()
}

// RecordPersistOp records a persistence operation outcome
func (m *Metrics) RecordPersistOp(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PersistOps.WithLabelValues(op, status).Inc()
	m.PersistDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncPersistFailures counts a swallowed persistence failure
func (m *Metrics) IncPersistFailures(op string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(op).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON health endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgDurationMs = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
