package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	AdviceFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advice_fallbacks_total",
			Help: "Advice requests answered by the local template engine instead of the remote model",
		},
		[]string{"reason"},
	)

	AdviceIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advice_intents_total",
			Help: "Classified question intents",
		},
		[]string{"intent"},
	)

	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_alerts_triggered_total",
			Help: "Price alerts that crossed their threshold",
		},
		[]string{"crop", "direction"},
	)
)
