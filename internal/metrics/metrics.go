package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsEnqueued counts accepted generation jobs per category.
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitserver_jobs_enqueued_total",
			Help: "Total number of generation jobs enqueued",
		},
		[]string{"category"},
	)

	// JobsTerminal counts jobs reaching a terminal state per category.
	JobsTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitserver_jobs_terminal_total",
			Help: "Total number of generation jobs reaching a terminal state",
		},
		[]string{"category", "state"},
	)

	// JobAttempts counts individual job attempts, including retries.
	JobAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitserver_job_attempts_total",
			Help: "Total number of job attempts",
		},
		[]string{"category"},
	)

	// ProviderCalls counts generation calls per provider and category.
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitserver_provider_calls_total",
			Help: "Total number of provider generation calls",
		},
		[]string{"provider", "category", "outcome"},
	)

	// ProviderFallbacks counts orchestrator-level provider switches.
	ProviderFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitserver_provider_fallbacks_total",
			Help: "Total number of one-shot provider fallbacks",
		},
		[]string{"from", "to"},
	)

	// GenerationLatency tracks end-to-end generation latency per category.
	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitserver_generation_latency_seconds",
			Help:    "End-to-end generation latency in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"category"},
	)

	// QuotaRejections counts admissions rejected by the quota ledger.
	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitserver_quota_rejections_total",
			Help: "Total number of submissions rejected by quota admission",
		},
		[]string{"category"},
	)

	// Notifications counts dispatched terminal-outcome notifications.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitserver_notifications_total",
			Help: "Total number of dispatched job outcome notifications",
		},
		[]string{"category", "outcome", "delivery"},
	)
)
