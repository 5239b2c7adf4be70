// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequestDuration tracks Genie API call duration per operation.
	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genie_gateway_request_duration_seconds",
			Help:    "Genie API request duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "outcome"},
	)

	// GatewayRequestsTotal tracks total Genie API calls.
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_gateway_requests_total",
			Help: "Total Genie API requests",
		},
		[]string{"operation", "outcome"},
	)

	// QuestionDuration tracks end-to-end question duration, polling
	// included.
	QuestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genie_question_duration_seconds",
			Help:    "End-to-end question duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"space_id", "outcome"},
	)

	// QuestionsTotal tracks questions by space and outcome.
	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_questions_total",
			Help: "Total questions asked",
		},
		[]string{"space_id", "outcome"},
	)

	// PollsTotal tracks status-poll iterations.
	PollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "genie_polls_total",
			Help: "Total message status polls",
		},
	)

	// RetriesTotal tracks transport-error retries.
	RetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "genie_retries_total",
			Help: "Total transient-failure retries",
		},
	)

	// ActivePolls tracks questions currently in the polling loop.
	ActivePolls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "genie_active_polls",
			Help: "Number of questions currently polling",
		},
	)

	// ToolCallsTotal tracks MCP tool invocations.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genie_tool_calls_total",
			Help: "Total MCP tool calls",
		},
		[]string{"tool", "outcome"},
	)
)

// ObserveGatewayRequest records one Genie API call.
func ObserveGatewayRequest(operation, outcome string, duration float64) {
	GatewayRequestDuration.WithLabelValues(operation, outcome).Observe(duration)
	GatewayRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveQuestion records one finished question turn.
func ObserveQuestion(spaceID, outcome string, duration float64) {
	QuestionDuration.WithLabelValues(spaceID, outcome).Observe(duration)
	QuestionsTotal.WithLabelValues(spaceID, outcome).Inc()
}

// RecordToolCall records one MCP tool invocation.
func RecordToolCall(tool, outcome string) {
	ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}
