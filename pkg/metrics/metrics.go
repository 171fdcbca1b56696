package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Waitlist engine metrics
	OffersCreated    prometheus.Counter
	OffersResolved   *prometheus.CounterVec // outcome: accepted|declined|expired|voided
	OffersSkipped    *prometheus.CounterVec // reason: no_candidate|auto_offer_disabled|candidate_raced
	SweepRuns        prometheus.Counter
	SweepLatency     prometheus.Histogram
	RepliesRouted    *prometheus.CounterVec // result: accept|decline|unrecognized|not_found
	DispatchFailures *prometheus.CounterVec // channel

	// Database metrics
	DatabaseOperations *prometheus.CounterVec // operation, status
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OffersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waitlist_offers_created_total",
			Help:      "Total number of waitlist offers created",
		}),
		OffersResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waitlist_offers_resolved_total",
			Help:      "Total number of waitlist offers resolved, by outcome",
		}, []string{"outcome"}),
		OffersSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waitlist_releases_skipped_total",
			Help:      "Total number of slot releases that produced no offer",
		}, []string{"reason"}),
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waitlist_sweep_runs_total",
			Help:      "Total number of expiry sweep runs",
		}),
		SweepLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "waitlist_sweep_duration_seconds",
			Help:      "Time spent per expiry sweep run",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		RepliesRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waitlist_replies_routed_total",
			Help:      "Total number of inbound replies routed, by result",
		}, []string{"result"}),
		DispatchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_dispatch_failures_total",
			Help:      "Total number of notification sends that failed",
		}, []string{"channel"}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}
