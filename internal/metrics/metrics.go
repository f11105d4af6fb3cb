// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// VotesTotal counts castVote outcomes by result (accepted, duplicate,
	// not_found, invalid, error).
	VotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parish_events",
		Name:      "votes_total",
		Help:      "Vote attempts by outcome.",
	}, []string{"result"})

	// SuggestionsSubmitted counts stored suggestions by kind.
	SuggestionsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parish_events",
		Name:      "suggestions_submitted_total",
		Help:      "Suggestions accepted into the moderation queue, by kind.",
	}, []string{"kind"})

	// SuggestionsResolved counts moderation decisions by outcome.
	SuggestionsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parish_events",
		Name:      "suggestions_resolved_total",
		Help:      "Moderation decisions, by outcome.",
	}, []string{"outcome"})

	// ScoreDriftEvents is the number of events whose stored score disagreed
	// with their vote rows at the last audit.  Anything but zero is a bug.
	ScoreDriftEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "parish_events",
		Name:      "score_drift_events",
		Help:      "Events whose verification score differs from the sum of their votes.",
	})

	// PublishFailures counts broker publishes that failed and were dropped.
	PublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parish_events",
		Name:      "publish_failures_total",
		Help:      "Broker publishes that failed, by queue.",
	}, []string{"queue"})

	// PendingSuggestions is refreshed by the audit job.
	PendingSuggestions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "parish_events",
		Name:      "pending_suggestions",
		Help:      "Suggestions waiting for a moderator.",
	})
)

func init() {
	prometheus.MustRegister(
		VotesTotal,
		SuggestionsSubmitted,
		SuggestionsResolved,
		ScoreDriftEvents,
		PublishFailures,
		PendingSuggestions,
	)
}
