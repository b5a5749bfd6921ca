package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossbag_matches_created_total",
		Help: "Total number of candidate matches persisted after scoring.",
	})

	MatchesClaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossbag_matches_claimed_total",
		Help: "Total number of matches claimed by travelers.",
	})

	MatchesApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossbag_matches_approved_total",
		Help: "Total number of matches approved by shoppers.",
	})

	MatchesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossbag_matches_completed_total",
		Help: "Total number of matches completed by travelers.",
	})

	CooldownsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossbag_cooldowns_processed_total",
		Help: "Total number of requests advanced to purchase_pending by the cooldown sweep.",
	})

	DeadlinesMissedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossbag_purchase_deadlines_missed_total",
		Help: "Total number of requests cancelled by the purchase-deadline sweep.",
	})

	SweepErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossbag_sweep_errors_total",
		Help: "Total number of per-record errors encountered during a sweep.",
	},
		[]string{"sweep"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossbag_operation_errors_total",
		Help: "Total number of errors encountered during specific lifecycle operations.",
	},
		[]string{"operation"},
	)

	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossbag_notifications_sent_total",
		Help: "Total number of notification events published from the outbox.",
	})

	TripCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossbag_trip_cache_items",
		Help: "Current number of trips in the active-trip cache.",
	})
)
