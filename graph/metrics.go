package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records Prometheus-compatible counters and histograms for run
// execution. All metrics are namespaced "chatgraph_".
type Metrics struct {
	stepLatency     *prometheus.HistogramVec
	taskLatency     *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	toolInvocations *prometheus.CounterVec
	interrupts      prometheus.Counter
	eventsDropped   prometheus.Counter
}

// NewMetrics registers every metric with registry and returns the
// collector. Pass prometheus.DefaultRegisterer to publish on the default
// registry, or a fresh prometheus.NewRegistry() in tests.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatgraph",
			Name:      "step_latency_ms",
			Help:      "Step execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"status"}),
		taskLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatgraph",
			Name:      "task_latency_ms",
			Help:      "Per-node task execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_id", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatgraph",
			Name:      "retries_total",
			Help:      "Cumulative retry attempts across all nodes.",
		}, []string{"node_id"}),
		toolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatgraph",
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool_name", "status"}),
		interrupts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chatgraph",
			Name:      "interrupts_total",
			Help:      "Runs suspended by an interrupt.",
		}),
		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chatgraph",
			Name:      "events_dropped_total",
			Help:      "Events dropped by a backpressured sink under the drop-oldest policy.",
		}),
	}
}

func (m *Metrics) ObserveStep(d time.Duration, success bool) {
	m.stepLatency.WithLabelValues(statusLabel(success)).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveTask(nodeID string, d time.Duration, success bool) {
	m.taskLatency.WithLabelValues(nodeID, statusLabel(success)).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) IncRetry(nodeID string) {
	m.retries.WithLabelValues(nodeID).Inc()
}

func (m *Metrics) IncToolInvocation(toolName string, success bool) {
	m.toolInvocations.WithLabelValues(toolName, statusLabel(success)).Inc()
}

func (m *Metrics) IncInterrupt() {
	m.interrupts.Inc()
}

func (m *Metrics) IncEventsDropped() {
	m.eventsDropped.Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
