package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики выполнения flow.
//
// Регистрируются в глобальном registry при импорте пакета
// и отдаются сервисами на /metrics через promhttp.Handler().
var (
	// FlowExecutions — завершённые выполнения flow по финальному статусу.
	FlowExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "langweave_flow_executions_total",
		Help: "Total flow executions by terminal status",
	}, []string{"status"})

	// NodeDuration — длительность выполнения узла по типу компонента.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "langweave_node_duration_seconds",
		Help:    "Node execution duration by component type",
		Buckets: prometheus.DefBuckets,
	}, []string{"component"})

	// NodeFailures — упавшие узлы по типу компонента.
	NodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "langweave_node_failures_total",
		Help: "Total failed node executions by component type",
	}, []string{"component"})

	// StreamTokens — чанки, отданные streaming компонентами.
	StreamTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "langweave_stream_tokens_total",
		Help: "Total token events emitted by streaming components",
	})

	// APIRequests — HTTP запросы к API по методу и коду ответа.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "langweave_api_http_requests_total",
		Help: "Total HTTP requests handled by langweave-api",
	}, []string{"method", "code"})
)
