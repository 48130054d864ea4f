// Package metrics holds the Prometheus collectors of the boundary server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Direction labels for transfer counters.
const (
	DirectionIngest = "ingest"
	DirectionExport = "export"
)

// Metrics groups the collectors registered on one registry. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transferRows    *prometheus.CounterVec
	transferFailed  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatbridge_http_requests_total",
				Help: "HTTP requests served, by route and status code",
			},
			[]string{"route", "code"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flatbridge_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		transferRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatbridge_transfer_rows_total",
				Help: "Rows moved between flat files and the store",
			},
			[]string{"direction", "format"},
		),
		transferFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flatbridge_transfer_failures_total",
				Help: "Transfers that ended in an error",
			},
			[]string{"direction"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// TransferRows adds n rows to the transfer counter.
func (m *Metrics) TransferRows(direction, format string, n int) {
	if m == nil {
		return
	}
	m.transferRows.WithLabelValues(direction, format).Add(float64(n))
}

// TransferFailed counts a failed transfer.
func (m *Metrics) TransferFailed(direction string) {
	if m == nil {
		return
	}
	m.transferFailed.WithLabelValues(direction).Inc()
}
