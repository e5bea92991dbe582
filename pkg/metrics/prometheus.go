package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog_sync"

// Metrics holds the collectors for one process. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	offersTotal     *prometheus.CounterVec
	skipsTotal      *prometheus.CounterVec
	rowsDeleted     prometheus.Counter
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of marketplace API requests.",
			},
			[]string{"operation", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Histogram of marketplace API request durations.",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation", "status"},
		),
		offersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offers_total",
				Help:      "Offers seen by the sync, by outcome.",
			},
			[]string{"outcome"},
		),
		skipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offers_skipped_total",
				Help:      "Offers skipped during enrichment, by reason.",
			},
			[]string{"reason"},
		),
		rowsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_deleted_total",
			Help:      "Rows removed from the catalog table before reload.",
		}),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed sync runs, by final state.",
			},
			[]string{"state"},
		),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the most recent run.",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.offersTotal,
		m.skipsTotal,
		m.rowsDeleted,
		m.runsTotal,
		m.runDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest records one marketplace call. statusCode 0 means the request never got a response.
func (m *Metrics) RecordRequest(operation string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	status := classifyStatus(statusCode)
	m.requestsTotal.WithLabelValues(operation, status).Inc()
	m.requestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// AddOffers counts offers under an outcome such as "found", "filtered" or "inserted".
func (m *Metrics) AddOffers(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.offersTotal.WithLabelValues(outcome).Add(float64(n))
}

// IncSkipped counts one skipped offer.
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipsTotal.WithLabelValues(reason).Inc()
}

// AddDeleted counts rows removed by the table clear.
func (m *Metrics) AddDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsDeleted.Add(float64(n))
}

// ObserveRun records the final state and duration of a run.
func (m *Metrics) ObserveRun(state string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(state).Inc()
	m.runDuration.Set(duration.Seconds())
}

// Handler returns an HTTP handler exporting this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// classifyStatus buckets an HTTP status code into a label value.
func classifyStatus(statusCode int) string {
	switch {
	case statusCode == 0:
		return "error"
	case statusCode >= 100 && statusCode < 600:
		return strconv.Itoa(statusCode/100) + "xx"
	}
	return "unknown"
}
