// Package metrics provides Prometheus metrics for the digest pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// runsTotal counts finished schedule runs.
	// Labels:
	//   - status: "success" or "failed"
	//   - trigger: "cron", "pubsub", "ticker", "cli" or "manual"
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Total number of finished schedule runs",
		},
		[]string{"status", "trigger"},
	)

	// runDuration records wall time per schedule run.
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Duration of schedule runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// stageFailuresTotal counts runs that failed, by the stage that failed.
	stageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_stage_failures_total",
			Help: "Total number of run failures by pipeline stage",
		},
		[]string{"stage"},
	)

	// backendAttemptsTotal counts AI backend attempts.
	// Labels:
	//   - backend: backend name, e.g. "gemini:gemini-2.5-flash"
	//   - result: "success", "quota", "safety", "transport", "empty", "error"
	backendAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_ai_backend_attempts_total",
			Help: "Total number of AI backend attempts by outcome",
		},
		[]string{"backend", "result"},
	)

	// deliveriesTotal counts per-channel delivery outcomes.
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_deliveries_total",
			Help: "Total number of channel deliveries by outcome",
		},
		[]string{"channel", "status"},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(stageFailuresTotal)
	prometheus.MustRegister(backendAttemptsTotal)
	prometheus.MustRegister(deliveriesTotal)
}

// RecordRun records a finished run and its duration.
func RecordRun(status, trigger string, durationSeconds float64) {
	runsTotal.WithLabelValues(status, trigger).Inc()
	runDuration.Observe(durationSeconds)
}

// RecordStageFailure records a run failing in stage.
func RecordStageFailure(stage string) {
	stageFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordBackendAttempt records one AI backend call.
func RecordBackendAttempt(backend, result string) {
	backendAttemptsTotal.WithLabelValues(backend, result).Inc()
}

// RecordDelivery records a channel delivery outcome.
func RecordDelivery(channel, status string) {
	deliveriesTotal.WithLabelValues(channel, status).Inc()
}
