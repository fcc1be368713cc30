// Package metrics exposes Prometheus instrumentation for the sheet cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes recorded by CacheLookups.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Metrics holds the collectors for one cache gateway. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	CacheLookups  *prometheus.CounterVec
	Refreshes     prometheus.Counter
	RefreshErrors *prometheus.CounterVec
	StorageErrors *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	Records       prometheus.Gauge
}

// New creates Metrics under namespace with Go and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}
	m.CacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Snapshot lookups by outcome (hit or miss)",
	}, []string{"result"})
	m.Refreshes = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refreshes_total",
		Help:      "Completed fetch-and-normalize refreshes",
	})
	m.RefreshErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_errors_total",
		Help:      "Failed refreshes by failure kind",
	}, []string{"kind"})
	m.StorageErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_errors_total",
		Help:      "Snapshot storage failures by operation",
	}, []string{"op"})
	m.FetchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time to fetch and normalize the sheet export",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
	m.Records = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Records in the most recently served snapshot",
	})
	return m
}

// ObserveLookup counts a hit or miss.
func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveRefresh records a successful refresh.
func (m *Metrics) ObserveRefresh(d time.Duration, records int) {
	if m == nil {
		return
	}
	m.Refreshes.Inc()
	m.FetchDuration.Observe(d.Seconds())
	m.Records.Set(float64(records))
}

// ObserveRefreshError counts a failed refresh by kind.
func (m *Metrics) ObserveRefreshError(kind string) {
	if m == nil {
		return
	}
	m.RefreshErrors.WithLabelValues(kind).Inc()
}

// ObserveStorageError counts a failed storage operation ("stat", "read", "write").
func (m *Metrics) ObserveStorageError(op string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(op).Inc()
}

// ObserveRecords sets the served record count.
func (m *Metrics) ObserveRecords(n int) {
	if m == nil {
		return
	}
	m.Records.Set(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
