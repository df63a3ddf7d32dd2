package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the job lifecycle engine. Registered on the default
// registry and exposed by the API server at /metrics.
var (
	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_conversions_total",
		Help: "Conversions by final status",
	}, []string{"status"})

	PrintJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_print_jobs_total",
		Help: "Print jobs by reached status",
	}, []string{"status"})

	ReconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_reconciliations_total",
		Help: "Status reconciliations by source (pull/push) and outcome (applied/stale)",
	}, []string{"source", "outcome"})

	SyncCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printforge_sync_cycles_total",
		Help: "Completed synchronizer polling cycles",
	})

	SyncPollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "printforge_sync_poll_errors_total",
		Help: "Print service status queries that failed",
	})

	WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_webhook_deliveries_total",
		Help: "Webhook deliveries by result (applied/stale/unknown_job/invalid_signature/invalid_payload)",
	}, []string{"result"})

	QuotaDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printforge_quota_denials_total",
		Help: "Quota gate denials by reason",
	}, []string{"reason"})

	StuckConversions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "printforge_stuck_conversions",
		Help: "Conversions sitting in processing past the alert threshold",
	})
)
