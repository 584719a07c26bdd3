// Package metrics exposes Prometheus collectors for the orchestration engine.
// Collectors are registered with the default registry via promauto and served
// by the HTTP layer on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Invocation metrics
	InvocationsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportmesh_invocations_started_total",
			Help: "Total number of supervisor invocations started",
		},
		[]string{"transport"},
	)

	InvocationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportmesh_invocations_completed_total",
			Help: "Total number of supervisor invocations completed",
		},
		[]string{"transport", "status"},
	)

	InvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportmesh_invocation_duration_seconds",
			Help:    "Supervisor invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport"},
	)

	// Oracle metrics
	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportmesh_oracle_calls_total",
			Help: "Total number of oracle decide calls",
		},
		[]string{"scope", "status"},
	)

	OracleLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportmesh_oracle_latency_seconds",
			Help:    "Oracle decide call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"scope"},
	)

	// Capability metrics
	CapabilityExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportmesh_capability_executions_total",
			Help: "Total number of capability (tool or team) executions",
		},
		[]string{"capability", "status"},
	)

	CapabilityDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportmesh_capability_duration_ms",
			Help:    "Capability execution duration in milliseconds",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000},
		},
		[]string{"capability"},
	)

	// Session metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "supportmesh_sessions_created_total",
			Help: "Total number of sessions created",
		},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "supportmesh_active_streams",
			Help: "Number of currently open event streams",
		},
	)
)
