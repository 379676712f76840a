package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	questionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "semquery_questions_total",
			Help: "Total number of natural language questions received.",
		},
	)
	intentResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semquery_intent_resolutions_total",
			Help: "Intent resolutions by resulting intent kind.",
		},
		[]string{"kind"},
	)
	intentRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semquery_intent_rejections_total",
			Help: "Intents rejected before execution, by error code.",
		},
		[]string{"code"},
	)
	queriesGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semquery_queries_generated_total",
			Help: "SQL queries generated, by query shape.",
		},
		[]string{"shape"},
	)
	askLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "semquery_ask_latency_ms",
			Help:    "End to end question answering latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)
	queryExecutionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "semquery_query_execution_latency_ms",
			Help:    "DuckDB query execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)
	queryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "semquery_query_failures_total",
			Help: "Total number of failed query executions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		intentResolutionsTotal,
		intentRejectionsTotal,
		queriesGeneratedTotal,
		askLatencyMs,
		queryExecutionLatencyMs,
		queryFailuresTotal,
	)
}

func ObserveQuestion(elapsed time.Duration) {
	questionsTotal.Inc()
	askLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveIntentResolution(kind string) {
	intentResolutionsTotal.WithLabelValues(kind).Inc()
}

func ObserveIntentRejection(code string) {
	intentRejectionsTotal.WithLabelValues(code).Inc()
}

func ObserveQueryGenerated(shape string) {
	queriesGeneratedTotal.WithLabelValues(shape).Inc()
}

func ObserveQueryExecution(elapsed time.Duration, failed bool) {
	queryExecutionLatencyMs.Observe(float64(elapsed.Milliseconds()))
	if failed {
		queryFailuresTotal.Inc()
	}
}
