// Package metrics exposes the Prometheus collectors for catalog sync and search.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors.
type Metrics struct {
	// Sync
	SyncRuns         *prometheus.CounterVec
	SyncRecords      *prometheus.CounterVec
	SyncDuration     prometheus.Histogram
	SyncPagesFetched prometheus.Counter

	// Search
	SearchRequests *prometheus.CounterVec
	SearchDuration prometheus.Histogram

	// Qualification
	QualificationMarks prometheus.Counter

	registry *prometheus.Registry
}

// New registers every collector against a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.SyncRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_runs_total",
		Help: "Full catalog sync runs by final status",
	}, []string{"status"})

	m.SyncRecords = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_records_total",
		Help: "Catalog records reconciled by outcome (created, updated, failed)",
	}, []string{"outcome"})

	m.SyncDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_sync_duration_seconds",
		Help:    "Wall time of a full catalog sync",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	m.SyncPagesFetched = factory.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_pages_fetched_total",
		Help: "Pages read from the external catalog",
	})

	m.SearchRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_search_requests_total",
		Help: "Search requests by result (ok, invalid, error)",
	}, []string{"result"})

	m.SearchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_search_duration_seconds",
		Help:    "Time spent running the count and page queries",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	m.QualificationMarks = factory.NewCounter(prometheus.CounterOpts{
		Name: "catalog_qualification_marks_total",
		Help: "Qualification marks written",
	})

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
