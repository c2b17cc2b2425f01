package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat requests by outcome",
		},
		[]string{"outcome"},
	)

	DiagnoseRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnose_requests_total",
			Help: "Total number of diagnose requests by outcome",
		},
		[]string{"outcome"},
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Total number of chat completion calls by pipeline phase",
		},
		[]string{"phase"},
	)

	ToolExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Total number of tool executions by tool name and outcome",
		},
		[]string{"tool", "outcome"},
	)

	RetrievalQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_queries_total",
			Help: "Total number of vector index queries by outcome",
		},
		[]string{"outcome"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "request_duration_seconds",
			Help: "Duration of request handling in seconds",
		},
		[]string{"endpoint"},
	)
)
