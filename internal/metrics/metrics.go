package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Find Engine Metrics
	FindDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conv_find_duration_ms",
		Help:    "Duration of a convolution Find call in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 15), // 1ms to ~32s
	})

	FindDbHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conv_find_db_hits_total",
		Help: "The total number of find-db lookups answered from cache",
	})

	FindDbMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conv_find_db_misses_total",
		Help: "The total number of find-db lookups that ran the solver finder pipeline",
	})

	ImmediateFallback = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conv_immediate_fallback_total",
		Help: "The total number of immediate-mode fallback resolutions by tier",
	}, []string{"tier"})

	// Kernel / Invoker Metrics
	KernelCompiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conv_kernel_compiles_total",
		Help: "The total number of kernel compilations by solver",
	}, []string{"solver"})

	InvokerCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conv_invoker_cache_entries",
		Help: "Number of invokers registered in the per-handle cache",
	})

	SolverBenchmarks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conv_solver_benchmarks_total",
		Help: "The total number of candidate solver evaluations run by Find",
	})
)
