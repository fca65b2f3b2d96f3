// Package metrics defines the Prometheus collectors used by the builder
// and the engine, and exposes an HTTP handler for scraping. Metrics are
// observability only — nothing in build or engine branches on a metric
// value.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Build holds the collectors emitted by the index builder.
type Build struct {
	DocsProcessed  prometheus.Counter
	TokensEmitted  prometheus.Gauge
	ShardBytes     *prometheus.GaugeVec
	BuildDuration  prometheus.Histogram
	TagsDropped    prometheus.Counter
}

// NewBuild creates and registers the builder's collectors against a fresh
// registry (callers keep the registry to back Handler).
func NewBuild(reg *prometheus.Registry) *Build {
	b := &Build{
		DocsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zmh_build_docs_processed_total",
			Help: "Rows read from the source and folded into the index.",
		}),
		TokensEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zmh_build_unique_tokens",
			Help: "Distinct n-gram tokens in the built dictionary.",
		}),
		ShardBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zmh_build_shard_bytes",
			Help: "Bytes written per index shard file.",
		}, []string{"shard"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zmh_build_duration_seconds",
			Help:    "Wall-clock duration of a full build run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TagsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zmh_build_tags_dropped_total",
			Help: "Tags beyond the 50-slot bit budget, dropped during assignment.",
		}),
	}
	reg.MustRegister(b.DocsProcessed, b.TokensEmitted, b.ShardBytes, b.BuildDuration, b.TagsDropped)
	return b
}

// Engine holds the collectors emitted by the runtime query engine.
type Engine struct {
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	ShardLoads      *prometheus.CounterVec
	ShardLoadLatency prometheus.Histogram
	QueryLatency    prometheus.Histogram
	ResultCacheHits prometheus.Counter
	SearchesAborted prometheus.Counter
}

// NewEngine creates and registers the engine's collectors.
func NewEngine(reg *prometheus.Registry) *Engine {
	e := &Engine{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zmh_engine_cache_hits_total",
			Help: "Local artifact-cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zmh_engine_cache_misses_total",
			Help: "Local artifact-cache misses (fetched over the network).",
		}),
		ShardLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zmh_engine_shard_loads_total",
			Help: "Index shard loads, by outcome.",
		}, []string{"outcome"}),
		ShardLoadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zmh_engine_shard_load_seconds",
			Help:    "Latency of a single index shard becoming available.",
			Buckets: prometheus.DefBuckets,
		}),
		QueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zmh_engine_query_seconds",
			Help:    "End-to-end latency of a completed search.",
			Buckets: prometheus.DefBuckets,
		}),
		ResultCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zmh_engine_result_cache_hits_total",
			Help: "Queries served from the resolved-doc-id result cache.",
		}),
		SearchesAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zmh_engine_searches_aborted_total",
			Help: "Searches abandoned because a newer search superseded them.",
		}),
	}
	reg.MustRegister(e.CacheHits, e.CacheMisses, e.ShardLoads, e.ShardLoadLatency,
		e.QueryLatency, e.ResultCacheHits, e.SearchesAborted)
	return e
}

// Handler returns the scrape endpoint for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
