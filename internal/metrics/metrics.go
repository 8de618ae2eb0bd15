// Package metrics exposes search and catalog figures to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	searches      *prometheus.CounterVec
	searchLatency prometheus.Histogram
	catalogIcons  prometheus.Gauge
	indexNodes    prometheus.Gauge
	rateLimited   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "heroicons_searches_total",
			Help: "Searches by outcome (match, no_match, empty).",
		}, []string{"outcome"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "heroicons_search_duration_seconds",
			Help:    "Time spent in the search index per query.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		catalogIcons: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heroicons_catalog_icons",
			Help: "Number of icons in the loaded catalog.",
		}),
		indexNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heroicons_index_nodes",
			Help: "Number of trie nodes in the search index.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "heroicons_search_rate_limited_total",
			Help: "Search API requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		m.searches,
		m.searchLatency,
		m.catalogIcons,
		m.indexNodes,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSearch records one query.
func (m *Metrics) ObserveSearch(outcome string, elapsed time.Duration) {
	m.searches.WithLabelValues(outcome).Inc()
	m.searchLatency.Observe(elapsed.Seconds())
}

// SetIndexSize records the size of the catalog and index built at startup.
func (m *Metrics) SetIndexSize(icons, nodes int) {
	m.catalogIcons.Set(float64(icons))
	m.indexNodes.Set(float64(nodes))
}

func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
