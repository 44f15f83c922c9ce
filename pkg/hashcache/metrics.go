package hashcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Digest cache outcomes, labelled by variant.
var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verushash_cache_hits_total",
		Help: "Digests served from the cache",
	}, []string{"variant"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verushash_cache_misses_total",
		Help: "Digests computed because the cache had no entry",
	}, []string{"variant"})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verushash_cache_errors_total",
		Help: "Cache reads or writes that failed and fell through",
	}, []string{"op"})
)
