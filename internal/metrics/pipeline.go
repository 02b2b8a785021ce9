package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdb",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"backend", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askdb",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "model"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdb",
			Name:      "result_cache_lookups_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdb",
			Name:      "sql_generation_requests_total",
			Help:      "Total number of SQL generation requests",
		},
		[]string{"model", "status"},
	)

	UnsafeQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "askdb",
			Name:      "unsafe_queries_total",
			Help:      "Generated queries rejected by the safety validator",
		},
	)

	WarehouseQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "askdb",
			Name:      "warehouse_query_duration_seconds",
			Help:      "Warehouse query execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(UnsafeQueriesTotal)
	prometheus.MustRegister(WarehouseQueryDuration)
	pipelineMetricsRegistered = true
}
