package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/toolflow/internal/domain"
)

var (
	// ExecutionsTotal — завершённые выполнения flow по статусу.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolflow_flow_executions_total",
		Help: "Finished flow executions by status",
	}, []string{"status"})

	// ExecutionDuration — длительность выполнения flow.
	ExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toolflow_flow_execution_duration_seconds",
		Help:    "Flow execution duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	// NodeExecutionsTotal — выполнения узлов по типу и статусу.
	NodeExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolflow_node_executions_total",
		Help: "Node executions by node type and status",
	}, []string{"node_type", "status"})

	// NodeDuration — длительность выполнения узлов.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toolflow_node_execution_duration_seconds",
		Help:    "Node execution duration by node type",
		Buckets: prometheus.DefBuckets,
	}, []string{"node_type"})

	// BlockedRequestsTotal — исходящие запросы, отклонённые guard.
	BlockedRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolflow_outbound_requests_blocked_total",
		Help: "Outbound requests rejected by the SSRF guard",
	})

	// HTTPRequestsTotal — запросы к API.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolflow_api_http_requests_total",
		Help: "Total HTTP requests handled by the API",
	}, []string{"method", "code"})
)

// ObserveExecution записывает метрики завершённого выполнения.
func ObserveExecution(exec *domain.FlowExecution) {
	status := string(exec.Status)
	ExecutionsTotal.WithLabelValues(status).Inc()
	ExecutionDuration.WithLabelValues(status).Observe(exec.Duration().Seconds())

	if exec.ErrorInfo != nil && exec.ErrorInfo.Kind == domain.ErrorKindSSRFBlocked {
		BlockedRequestsTotal.Inc()
	}
}

// ObserveNode записывает метрики выполнения узла.
func ObserveNode(data *domain.NodeExecutionData) {
	NodeExecutionsTotal.WithLabelValues(data.NodeType, string(data.Status)).Inc()
	if data.ExecutionTimeMs != nil {
		NodeDuration.WithLabelValues(data.NodeType).Observe((time.Duration(*data.ExecutionTimeMs) * time.Millisecond).Seconds())
	}
}
