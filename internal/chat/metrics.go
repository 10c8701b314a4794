package chat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superagent",
		Subsystem: "chat",
		Name:      "queries_total",
		Help:      "Processed queries by outcome",
	}, []string{"outcome"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "superagent",
		Subsystem: "chat",
		Name:      "query_duration_seconds",
		Help:      "End to end query processing latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	llmCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superagent",
		Subsystem: "chat",
		Name:      "llm_calls_total",
		Help:      "Chat completion calls by phase and status",
	}, []string{"phase", "status"})

	llmTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "superagent",
		Subsystem: "chat",
		Name:      "llm_tokens_total",
		Help:      "Tokens consumed by chat completions",
	}, []string{"kind"})

	validationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "superagent",
		Subsystem: "chat",
		Name:      "validation_failures_total",
		Help:      "Replies rejected by the response validator",
	})
)

func observeQuery(outcome string, start time.Time) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDuration.Observe(time.Since(start).Seconds())
}

func observeLLMCall(phase string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	llmCallsTotal.WithLabelValues(phase, status).Inc()
}

func observeTokens(prompt, completion int) {
	if prompt > 0 {
		llmTokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		llmTokensTotal.WithLabelValues("completion").Add(float64(completion))
	}
}
