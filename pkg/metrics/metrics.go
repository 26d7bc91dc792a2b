// Package metrics provides Prometheus metrics collection for HTTP requests
// and Slack send operations.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/notelink/slack-bridge/pkg/logger"
)

const (
	subsystem = "app"
)

// Metrics provides Prometheus metrics collection backed by a private registry.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	HTTPDurationHistogram    prometheus.Histogram

	TotalSendsCounter    prometheus.Counter
	SendOutcomeCounters  map[string]prometheus.Counter
	SlackRequestCounters map[string]prometheus.Counter

	mu  sync.Mutex
	log logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, sendCounters bool, l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter)
		m.HTTPRequestsCounters = make(map[int]prometheus.Counter)

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if sendCounters {
		m.TotalSendsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_send_attempts",
			Help:      "Total Slack send attempts",
		})
		m.reg.MustRegister(m.TotalSendsCounter)
		m.SendOutcomeCounters = make(map[string]prometheus.Counter)
		m.SlackRequestCounters = make(map[string]prometheus.Counter)
	}
	return m
}

// ObserveHTTPRequest records one HTTP request with its status code and duration.
func (m *Metrics) ObserveHTTPRequest(status int, duration time.Duration) {
	if m == nil || m.TotalHTTPRequestsCounter == nil {
		return
	}
	m.TotalHTTPRequestsCounter.Inc()
	m.HTTPDurationHistogram.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.HTTPRequestsCounters[status]
	if !ok {
		counter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      fmt.Sprintf("http_requests_%d", status),
			Help:      fmt.Sprintf("HTTP requests with status %d", status),
		})
		m.reg.MustRegister(counter)
		m.HTTPRequestsCounters[status] = counter
	}
	counter.Inc()
}

// IncSendOutcome records the outcome of one send attempt
// (e.g. "sent", "not_found", "not_authed", "slack_error").
func (m *Metrics) IncSendOutcome(outcome string) {
	if m == nil || m.TotalSendsCounter == nil {
		return
	}
	m.TotalSendsCounter.Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.SendOutcomeCounters[outcome]
	if !ok {
		counter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      fmt.Sprintf("send_attempts_%s", outcome),
			Help:      fmt.Sprintf("Send attempts with outcome %s", outcome),
		})
		m.reg.MustRegister(counter)
		m.SendOutcomeCounters[outcome] = counter
	}
	counter.Inc()
}

// IncSlackRequest records one Slack Web API call by method name
// (e.g. "users.list", "conversations.list", "chat.postMessage").
func (m *Metrics) IncSlackRequest(method string) {
	if m == nil || m.SlackRequestCounters == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.SlackRequestCounters[method]
	if !ok {
		counter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem:   subsystem,
			Name:        "slack_api_requests",
			Help:        "Slack Web API requests by method",
			ConstLabels: prometheus.Labels{"method": method},
		})
		m.reg.MustRegister(counter)
		m.SlackRequestCounters[method] = counter
	}
	counter.Inc()
}

// Handler returns an HTTP handler exposing the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request counts, status codes and durations for every
// request passing through it.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		m.ObserveHTTPRequest(wrapped.Status(), time.Since(start))
	})
}
