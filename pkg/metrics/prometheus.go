package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsum_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// SummariesTotal counts summaries by producing source and outcome.
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsum_summaries_total",
			Help: "Summaries produced, by source (remote, local, cache) and outcome",
		},
		[]string{"source", "outcome"},
	)

	// SummaryDuration measures end-to-end summarization latency.
	SummaryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsum_summary_duration_seconds",
			Help:    "Summarization duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	// RemoteFallbacksTotal counts remote LLM failures that were answered locally.
	RemoteFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsum_remote_fallbacks_total",
			Help: "Remote LLM failures recovered with the local path",
		},
		[]string{"operation"},
	)

	// ChatAnswersTotal counts document chat answers by source.
	ChatAnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsum_chat_answers_total",
			Help: "Document chat answers, by source",
		},
		[]string{"source"},
	)

	// ContextSelectionsTotal counts context narrowing decisions by mode.
	ContextSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsum_context_selections_total",
			Help: "Context selections, by mode (passthrough, all, matched, fallback)",
		},
		[]string{"mode"},
	)

	// ExtractionsTotal counts text extraction attempts by input kind and outcome.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsum_extractions_total",
			Help: "Text extraction attempts, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)

// RecordSummary tracks one summarization result.
func RecordSummary(source, outcome string, elapsed time.Duration) {
	SummariesTotal.WithLabelValues(source, outcome).Inc()
	SummaryDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordRemoteFallback tracks a remote failure answered by the local path.
func RecordRemoteFallback(operation string) {
	RemoteFallbacksTotal.WithLabelValues(operation).Inc()
}

// RecordChatAnswer tracks one chat answer.
func RecordChatAnswer(source string) {
	ChatAnswersTotal.WithLabelValues(source).Inc()
}

// RecordContextSelection tracks how a chat context was produced.
func RecordContextSelection(mode string) {
	ContextSelectionsTotal.WithLabelValues(mode).Inc()
}

// RecordExtraction tracks an extraction attempt.
func RecordExtraction(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ExtractionsTotal.WithLabelValues(kind, outcome).Inc()
}
