package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts table loads, dropped rows and rendered charts.
type Metrics struct {
	registry    *prometheus.Registry
	tablesTotal *prometheus.CounterVec
	droppedRows *prometheus.CounterVec
	duplicates  *prometheus.CounterVec
	chartsTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors on a private registry so several
// instances can coexist in tests.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tablesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oura_tables_total",
			Help: "Tables fetched or loaded, by data type, source and outcome.",
		}, []string{"data_type", "source", "outcome"}),
		droppedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oura_dropped_rows_total",
			Help: "Input rows dropped for a missing or unparseable date.",
		}, []string{"data_type"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oura_duplicate_dates_total",
			Help: "Dates seen more than once during normalization.",
		}, []string{"data_type"}),
		chartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oura_charts_total",
			Help: "Charts rendered, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	m.registry.MustRegister(m.tablesTotal, m.droppedRows, m.duplicates, m.chartsTotal)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveTable records one fetch or load.
func (m *Metrics) ObserveTable(dataType, source string, dropped, duplicates int, err error) {
	m.tablesTotal.WithLabelValues(dataType, source, outcome(err)).Inc()
	if dropped > 0 {
		m.droppedRows.WithLabelValues(dataType).Add(float64(dropped))
	}
	if duplicates > 0 {
		m.duplicates.WithLabelValues(dataType).Add(float64(duplicates))
	}
}

// ObserveChart records one render attempt.
func (m *Metrics) ObserveChart(kind string, err error) {
	m.chartsTotal.WithLabelValues(kind, outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
