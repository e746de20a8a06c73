package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Planning metrics
	PlanRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futarchy_plan_requests_total",
			Help: "Total number of plan requests",
		},
		[]string{"kind", "status"},
	)

	PlanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "futarchy_plan_duration_seconds",
			Help:    "Plan request duration in seconds, chain reads included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	SplitsPlanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futarchy_splits_planned_total",
			Help: "Total number of buy plans that split spot tokens before the swap",
		},
		[]string{"side"},
	)

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "futarchy_price_impact_bps",
			Help:    "Quoted price impact in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"side", "direction"},
	)

	// Transaction build metrics
	TransactionBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futarchy_transaction_builds_total",
			Help: "Total number of unsigned transactions built from plans",
		},
		[]string{"status"},
	)

	InstructionsPerTransaction = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "futarchy_instructions_per_transaction",
		Help:    "Number of instructions in built transactions",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
	})

	// Chain reader metrics
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futarchy_rpc_requests_total",
			Help: "Total number of chain RPC requests",
		},
		[]string{"method", "status"},
	)

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "futarchy_rpc_duration_seconds",
			Help:    "Chain RPC request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// Cache metrics
	MintCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "futarchy_mint_cache_size",
		Help: "Current number of entries in the mint metadata cache",
	})

	MintCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "futarchy_mint_cache_hits_total",
		Help: "Total number of mint metadata cache hits",
	})

	MintCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "futarchy_mint_cache_misses_total",
		Help: "Total number of mint metadata cache misses",
	})

	BlockhashAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "futarchy_blockhash_age_seconds",
		Help: "Age of the cached blockhash when last served",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "futarchy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "futarchy_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
