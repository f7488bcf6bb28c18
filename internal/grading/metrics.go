package grading

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// gradedTotal counts graded requests by operation and result
	gradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hintsys_graded_total",
		Help: "Total graded requests by operation and result",
	}, []string{"operation", "result"})

	// gradingDuration tracks end-to-end grading latency
	gradingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hintsys_grading_duration_seconds",
		Help:    "Grading duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"operation"})

	// branchTotal counts selected hint branches
	branchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hintsys_hint_branch_total",
		Help: "Total selected hint branches",
	}, []string{"branch"})

	// persistenceErrors counts swallowed storage failures by operation
	persistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hintsys_persistence_errors_total",
		Help: "Total storage failures that were logged and skipped",
	}, []string{"operation"})

	// masteryConflicts counts lost compare-and-swap races
	masteryConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hintsys_mastery_conflicts_total",
		Help: "Total mastery compare-and-swap conflicts",
	})

	// badgesAwarded counts newly created badges
	badgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hintsys_badges_awarded_total",
		Help: "Total badges awarded by badge id",
	}, []string{"badge"})
)
