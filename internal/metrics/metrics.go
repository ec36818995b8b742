package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesStarted counts search sessions initialized.
	SearchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchcore_searches_started_total",
		Help: "Total number of search sessions initialized",
	})

	// SearchesFinished counts search sessions that reached deinit, by outcome.
	SearchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchcore_searches_finished_total",
		Help: "Total number of search sessions completed by outcome",
	}, []string{"outcome"})

	// SearchDuration tracks wall time spent inside a session from init to deinit.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "searchcore_search_duration_seconds",
		Help:    "Time spent evaluating a search session",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	// TierEvaluations counts per-leaf evaluations by tier and verdict.
	TierEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchcore_tier_evaluations_total",
		Help: "Leaf predicate evaluations by tier and verdict",
	}, []string{"tier", "verdict"})

	// RangePlannerEmptied counts range-planner runs that collapsed to an empty window.
	RangePlannerEmptied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchcore_range_planner_emptied_total",
		Help: "Range planner runs that produced an empty sequence window",
	})

	// SearchErrors counts session failures by error kind.
	SearchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchcore_search_errors_total",
		Help: "Search session failures by error kind",
	}, []string{"kind"})

	// StreamerBytesEmitted counts bytes written by the CR-injecting streamer.
	StreamerBytesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchcore_streamer_bytes_emitted_total",
		Help: "Total virtual bytes emitted by the message streamer",
	})

	// FlagRenames counts maildir filename renames performed by flag updates.
	FlagRenames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searchcore_flag_renames_total",
		Help: "Maildir filename renames performed during flag updates",
	}, []string{"result"})
)

// RecordSearchFinished records a completed session with its outcome and duration.
func RecordSearchFinished(outcome string, durationSeconds float64) {
	SearchDuration.Observe(durationSeconds)
	SearchesFinished.WithLabelValues(outcome).Inc()
}

// RecordTierEvaluation records one leaf evaluation at a tier.
func RecordTierEvaluation(tier, verdict string) {
	TierEvaluations.WithLabelValues(tier, verdict).Inc()
}

// RecordSearchError records a session failure by kind.
func RecordSearchError(kind string) {
	SearchErrors.WithLabelValues(kind).Inc()
}

// RecordFlagRename records the outcome of a maildir rename during a flag update.
func RecordFlagRename(result string) {
	FlagRenames.WithLabelValues(result).Inc()
}
