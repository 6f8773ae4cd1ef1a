// Package metrics holds Prometheus instruments used across the config
// server. All collectors are registered with the global default registry
// at package init; the server's router does not mount a /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NamespaceCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "configserver_namespace_count",
			Help: "Number of namespaces currently known to the repository gateway.",
		})

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configserver_cache_hits_total",
			Help: "Cumulative cache hits by region.",
		}, []string{"region"})

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configserver_cache_misses_total",
			Help: "Cumulative cache misses by region.",
		}, []string{"region"})

	CommitLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "configserver_commit_latency_seconds",
			Help:    "Latency of Git stage+commit operations.",
			Buckets: prometheus.DefBuckets,
		})

	ConfigConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "configserver_config_conflicts_total",
			Help: "Cumulative optimistic-concurrency conflicts on config updates.",
		})
)

func init() {
	prometheus.MustRegister(
		NamespaceCount,
		CacheHitsTotal,
		CacheMissesTotal,
		CommitLatencySeconds,
		ConfigConflictsTotal,
	)
}
