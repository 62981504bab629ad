// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of conversation turns by classified intent",
		},
		[]string{"intent"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "Duration of a conversation turn in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"intent"},
	)

	ClarificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_clarifications_total",
			Help: "Clarification prompts issued and resolved",
		},
		[]string{"kind", "outcome"},
	)

	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_oracle_calls_total",
			Help: "Total number of NLU oracle calls by task and status",
		},
		[]string{"task", "status"},
	)

	CatalogCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_catalog_calls_total",
			Help: "Total number of catalog gateway calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_sessions_active",
			Help: "Number of sessions held by the in-memory session store",
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)

// Status renders an error as the status label used across call counters.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
