package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики движка. Экспортируются на /metrics endpoint сервера.
var (
	// ExecutionsStarted — сколько запусков workflow было начато.
	ExecutionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeflow_executions_started_total",
		Help: "Total workflow executions started",
	})

	// ExecutionsFinished — завершённые запуски по финальному статусу.
	ExecutionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeflow_executions_finished_total",
		Help: "Total workflow executions finished, by final status",
	}, []string{"status"})

	// ActiveExecutions — текущее число выполняемых workflow.
	ActiveExecutions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodeflow_active_executions",
		Help: "Number of workflow executions currently running",
	})

	// NodeDuration — длительность выполнения узлов по типу.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nodeflow_node_duration_seconds",
		Help:    "Node execution duration in seconds, by node type",
		Buckets: prometheus.DefBuckets,
	}, []string{"node_type"})

	// NodeFailures — упавшие узлы по типу.
	NodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeflow_node_failures_total",
		Help: "Total node execution failures, by node type",
	}, []string{"node_type"})
)

// ObserveNodeDuration записывает длительность выполнения узла.
func ObserveNodeDuration(nodeType string, d time.Duration) {
	NodeDuration.WithLabelValues(nodeType).Observe(d.Seconds())
}
