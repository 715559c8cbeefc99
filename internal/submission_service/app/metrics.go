package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	videosAcceptedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_bot",
			Name:      "videos_accepted_total",
			Help:      "Videos accepted, by path (inline, queued).",
		},
		[]string{"path"},
	)
	outboxOutcomeCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_bot",
			Name:      "outbox_entries_total",
			Help:      "Outbox entries processed by drain runs, by outcome (delivered, unrecorded, failed, dropped).",
		},
		[]string{"outcome"},
	)
	outboxDrainDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "delivery_bot",
			Name:      "outbox_drain_duration_seconds",
			Help:      "Duration of one outbox drain run.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	remoteCallCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "delivery_bot",
			Name:      "best_effort_calls_total",
			Help:      "Best-effort remote calls (ledger writes, reminder sends), by operation and result.",
		},
		[]string{"op", "result"},
	)
)
