package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for filter operations.
type Metrics struct {
	// Items added, by filter.
	AddsTotal *prometheus.CounterVec
	// Membership queries, by filter and result (positive, negative).
	QueriesTotal *prometheus.CounterVec
	// Clear operations, by filter.
	ClearsTotal *prometheus.CounterVec
	// Number of filters currently open.
	FiltersOpen prometheus.Gauge
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the process-wide Metrics registered on the default registry.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

// NewMetrics creates and registers a Metrics instance on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AddsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bumblebloom_adds_total",
				Help: "The total number of items added to filters",
			},
			[]string{"filter"},
		),
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bumblebloom_queries_total",
				Help: "The total number of membership queries",
			},
			[]string{"filter", "result"},
		),
		ClearsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bumblebloom_clears_total",
				Help: "The total number of filter clears",
			},
			[]string{"filter"},
		),
		FiltersOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bumblebloom_filters_open",
				Help: "The number of filters currently open",
			},
		),
	}
}

// RecordAdd records an add on the named filter.
func (m *Metrics) RecordAdd(filter string) {
	m.AddsTotal.WithLabelValues(filter).Inc()
}

// RecordQuery records a contains query and its result.
func (m *Metrics) RecordQuery(filter string, positive bool) {
	result := "negative"
	if positive {
		result = "positive"
	}
	m.QueriesTotal.WithLabelValues(filter, result).Inc()
}

// RecordClear records a clear on the named filter.
func (m *Metrics) RecordClear(filter string) {
	m.ClearsTotal.WithLabelValues(filter).Inc()
}

// SetFiltersOpen sets the open filter gauge.
func (m *Metrics) SetFiltersOpen(n int) {
	m.FiltersOpen.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr. It blocks until the server fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
