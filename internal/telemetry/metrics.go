package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики выполнения шагов. Экспортируются на /metrics каждым
// процессом, инкрементирует их worker.
var (
	// StepsTotal — выполненные шаги по типу узла и статусу.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cogniflow_steps_total",
		Help: "Total workflow steps executed, by node type and status",
	}, []string{"node_type", "status"})

	// StepDuration — длительность выполнения шага в секундах.
	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cogniflow_step_duration_seconds",
		Help:    "Workflow step execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
