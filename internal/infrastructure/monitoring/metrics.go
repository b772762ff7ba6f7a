package monitoring

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Interpreter metrics
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	CallSteps    prometheus.Histogram
	ParseTotal   *prometheus.CounterVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON output - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON output
type MetricsSnapshot struct {
	TotalCalls    int64   `json:"total_calls"`
	TotalErrors   int64   `json:"total_errors"`
	TotalParses   int64   `json:"total_parses"`
	ParseErrors   int64   `json:"parse_errors"`
	TotalSteps    int64   `json:"total_steps"`
	TotalDuration float64 `json:"total_duration_seconds"` // sum of all call durations
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates the collectors and registers them on reg. Collectors
// already registered on reg are reused, so several interpreters may share
// one registry. A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		startTime: time.Now(),

		CallsTotal: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cipherjs_calls_total",
				Help: "Total number of interpreter entry calls",
			},
			[]string{"function", "status"},
		)),
		CallDuration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cipherjs_call_duration_seconds",
				Help:    "Interpreter call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"function"},
		)),
		CallSteps: register(reg, prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cipherjs_call_steps",
				Help:    "Evaluation steps used per interpreter call",
				Buckets: prometheus.ExponentialBuckets(100, 4, 10),
			},
		)),
		ParseTotal: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cipherjs_parse_total",
				Help: "Total number of parsed sources",
			},
			[]string{"status"},
		)),
		CacheRequests: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cipherjs_cache_requests_total",
				Help: "Signature-spec cache lookups",
			},
			[]string{"result"},
		)),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RecordCall records one entry call
func (m *Metrics) RecordCall(function, status string, duration time.Duration, steps int64) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(function, status).Inc()
	m.CallDuration.WithLabelValues(function).Observe(duration.Seconds())
	m.CallSteps.Observe(float64(steps))

	m.mu.Lock()
	m.snapshot.TotalCalls++
	m.snapshot.TotalSteps += steps
	m.snapshot.TotalDuration += duration.Seconds()
	if status != StatusOK {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordParse records a parsed source
func (m *Metrics) RecordParse(status string) {
	if m == nil {
		return
	}
	m.ParseTotal.WithLabelValues(status).Inc()

	m.mu.Lock()
	m.snapshot.TotalParses++
	if status != StatusOK {
		m.snapshot.ParseErrors++
	}
	m.mu.Unlock()
}

// RecordCacheRequest records a cache lookup result
func (m *Metrics) RecordCacheRequest(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()

	m.mu.Lock()
	switch result {
	case CacheHit:
		m.snapshot.CacheHits++
	case CacheMiss:
		m.snapshot.CacheMisses++
	}
	m.mu.Unlock()
}

// GetSnapshot returns the current values
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

// Timer measures a call
type Timer struct {
	start    time.Time
	metrics  *Metrics
	function string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, function string) *Timer {
	return &Timer{
		start:    time.Now(),
		metrics:  metrics,
		function: function,
	}
}

// Stop records the call and returns its duration
func (t *Timer) Stop(status string, steps int64) time.Duration {
	duration := time.Since(t.start)
	t.metrics.RecordCall(t.function, status, duration, steps)
	return duration
}
