// Package metrics defines the Prometheus metrics exported by the rar listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the receiver service
type Metrics struct {
	// Datagram metrics
	DatagramsReceived *prometheus.CounterVec
	BytesReceived     prometheus.Counter
	DatagramSize      prometheus.Histogram
	EmptyPolls        prometheus.Counter
	ReadErrors        prometheus.Counter
	ReadPending       prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DatagramsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rar_datagrams_received_total",
			Help: "Total number of UDP datagrams received",
		}, []string{"mode"}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "rar_bytes_received_total",
			Help: "Total payload bytes received",
		}),
		DatagramSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rar_datagram_size_bytes",
			Help:    "Payload size of received datagrams",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8), // 16B to ~256KB
		}),
		EmptyPolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "rar_empty_polls_total",
			Help: "Total number of polls that returned no datagram",
		}),
		ReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "rar_read_errors_total",
			Help: "Total number of socket read errors",
		}),
		ReadPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rar_read_pending",
			Help: "1 while a polled read is outstanding",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rar_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rar_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rar_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordDatagram records one received datagram
func (m *Metrics) RecordDatagram(mode string, size int) {
	m.DatagramsReceived.WithLabelValues(mode).Inc()
	m.BytesReceived.Add(float64(size))
	m.DatagramSize.Observe(float64(size))
}

// RecordEmptyPoll increments the empty polls counter
func (m *Metrics) RecordEmptyPoll() {
	m.EmptyPolls.Inc()
}

// RecordReadError increments the read errors counter
func (m *Metrics) RecordReadError() {
	m.ReadErrors.Inc()
}

// SetReadPending sets the pending read gauge
func (m *Metrics) SetReadPending(pending bool) {
	if pending {
		m.ReadPending.Set(1)
	} else {
		m.ReadPending.Set(0)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
