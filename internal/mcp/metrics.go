package mcp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "superagent",
			Name:      "mcp_tool_calls_total",
			Help:      "Total MCP tool invocations",
		},
		[]string{"tool", "status"},
	)

	toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "superagent",
			Name:      "mcp_tool_call_duration_seconds",
			Help:      "Duration of MCP tool invocations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"tool"},
	)
)

func observeToolCall(tool string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}
