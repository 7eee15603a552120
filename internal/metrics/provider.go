// Package metrics holds the Prometheus instrumentation for providers,
// the agent loop, and HTTP transport.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider metrics, labeled by call kind ("embedding" / "completion").
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lore",
			Name:      "provider_requests_total",
			Help:      "Total number of LLM provider requests",
		},
		[]string{"kind", "model", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lore",
			Name:      "provider_request_duration_seconds",
			Help:      "LLM provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "model"},
	)

	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lore",
			Name:      "provider_tokens_total",
			Help:      "Total provider tokens consumed",
		},
		[]string{"kind", "model", "type"},
	)

	ProviderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lore",
			Name:      "provider_errors_total",
			Help:      "Total provider errors",
		},
		[]string{"kind", "model", "error_type"},
	)
)

// Agent loop metrics.
var (
	AgentRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lore",
			Name:      "agent_runs_total",
			Help:      "Total agent runs by terminal state",
		},
		[]string{"outcome"}, // "answer", "max_iterations", "error"
	)

	AgentIterationsPerRun = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lore",
			Name:      "agent_iterations_per_run",
			Help:      "Number of reasoning iterations per agent run",
			Buckets:   []float64{1, 2, 3, 4, 5, 7, 10},
		},
	)

	AgentToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lore",
			Name:      "agent_tool_calls_total",
			Help:      "Total tool executions by the agent loop",
		},
		[]string{"tool", "status"},
	)
)

// Search metrics.
var (
	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lore",
			Name:      "search_cache_total",
			Help:      "Search query cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var coreMetricsRegistered bool

// RegisterCoreMetrics registers provider, agent, and search metrics.
// Must be called once from main.
func RegisterCoreMetrics() {
	if coreMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderTokensTotal)
	prometheus.MustRegister(ProviderErrorsTotal)
	prometheus.MustRegister(AgentRunsTotal)
	prometheus.MustRegister(AgentIterationsPerRun)
	prometheus.MustRegister(AgentToolCallsTotal)
	prometheus.MustRegister(SearchCacheTotal)
	coreMetricsRegistered = true
}
