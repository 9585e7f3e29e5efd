// Package metrics provides Prometheus metrics for the payment console.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the console's Prometheus collectors.
type Metrics struct {
	enabled bool

	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	loginsTotal        *prometheus.CounterVec
	guardDecisions     *prometheus.CounterVec
	cacheFetchesTotal  *prometheus.CounterVec
	workspacesActive   prometheus.Gauge
}

// New registers the console metrics with reg.
// A nil registerer returns a no-op Metrics instance.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{enabled: reg != nil}
	if !m.enabled {
		return m
	}
	factory := promauto.With(reg)

	m.apiRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "console_api_requests_total",
		Help: "Total requests sent to the payment backend",
	}, []string{"method", "code"})

	m.apiRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_api_request_duration_seconds",
		Help:    "Payment backend request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	m.loginsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "console_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	m.guardDecisions = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "console_guard_decisions_total",
		Help: "Access guard decisions by outcome",
	}, []string{"outcome"})

	m.cacheFetchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "console_cache_fetches_total",
		Help: "Entity cache fetches by slice and result",
	}, []string{"slice", "result"})

	m.workspacesActive = factory.NewGauge(prometheus.GaugeOpts{
		Name: "console_workspaces_active",
		Help: "Browser workspaces currently held in memory",
	})

	return m
}

// NewNoop returns a Metrics instance that records nothing.
func NewNoop() *Metrics {
	return New(nil)
}

func (m *Metrics) on() bool {
	return m != nil && m.enabled
}

// RecordAPIRequest records a backend call. A status of 0 means a transport failure.
func (m *Metrics) RecordAPIRequest(method string, status int, seconds float64) {
	if !m.on() {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiRequestsTotal.WithLabelValues(method, code).Inc()
	m.apiRequestDuration.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) RecordLogin(success bool) {
	if !m.on() {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.loginsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordGuardDecision(outcome string) {
	if !m.on() {
		return
	}
	m.guardDecisions.WithLabelValues(outcome).Inc()
}

// RecordCacheFetch records a slice fetch; result is succeeded, failed or superseded.
func (m *Metrics) RecordCacheFetch(slice, result string) {
	if !m.on() {
		return
	}
	m.cacheFetchesTotal.WithLabelValues(slice, result).Inc()
}

func (m *Metrics) SetWorkspaces(n int) {
	if !m.on() {
		return
	}
	m.workspacesActive.Set(float64(n))
}
