// Package metrics registers the app's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sync engine
	SyncPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_pages_total",
			Help: "Total ledger pages applied",
		},
	)
	SyncTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_transactions_total",
			Help: "Total transactions processed during sync",
		},
		[]string{"kind"}, // added|modified|removed
	)
	SyncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_failures_total",
			Help: "Total failed synchronize calls",
		},
	)

	// Karma engine
	ChallengesOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "karma_challenges_opened_total",
			Help: "Total challenges opened",
		},
	)
	ChallengesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karma_challenges_resolved_total",
			Help: "Total challenges resolved",
		},
		[]string{"outcome"}, // violated|succeeded|cleared
	)

	// Classifier gateway
	ClassifierCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_calls_total",
			Help: "Total classifier round trips",
		},
		[]string{"judgment", "outcome"}, // outcome: ok|error
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

// Init registers all collectors. Call once at startup.
func Init() {
	prometheus.MustRegister(SyncPagesTotal)
	prometheus.MustRegister(SyncTransactionsTotal)
	prometheus.MustRegister(SyncFailures)
	prometheus.MustRegister(ChallengesOpened)
	prometheus.MustRegister(ChallengesResolved)
	prometheus.MustRegister(ClassifierCalls)
}
