package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "codegrade"

// Grading Prometheus metrics.
var (
	GradingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grading_total",
			Help:      "Total number of graded submissions by rubric tier",
		},
		[]string{"tier"},
	)

	GradingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grading_duration_seconds",
			Help:      "Time spent comparing a submission with its reference",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"path"}, // "parsed" / "unparsed"
	)

	GradingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grading_errors_total",
			Help:      "Total grading errors",
		},
		[]string{"error_type"},
	)

	SubmissionParseFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_parse_failures_total",
			Help:      "Submissions that did not parse and were graded heuristically",
		},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	FailureLogDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failure_log_dropped_total",
			Help:      "Failure log entries dropped because the buffer was full",
		},
	)
)

var registerGrading sync.Once

// RegisterGradingMetrics registers Prometheus grading metrics. Must be called from main.
func RegisterGradingMetrics() {
	registerGrading.Do(func() {
		prometheus.MustRegister(
			GradingTotal,
			GradingDuration,
			GradingErrorsTotal,
			SubmissionParseFailuresTotal,
			ResultCacheTotal,
			FailureLogDroppedTotal,
		)
	})
}
