package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dreammend_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammend_messages_total",
		Help: "Chat messages processed, by outcome.",
	}, []string{"outcome"})

	ResponderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dreammend_responder_duration_seconds",
		Help:    "Latency of AI responder calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	SummariesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dreammend_summaries_created_total",
		Help: "Summaries persisted from AI replies or the summary endpoint.",
	})

	MigratedEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dreammend_migrated_entries_total",
		Help: "Dream entries created by migration.",
	})

	MigrationSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammend_migration_skipped_total",
		Help: "Selected summaries skipped by migration, by reason.",
	}, []string{"reason"})

	MigrationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dreammend_migration_failures_total",
		Help: "Migration batches rolled back.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dreammend_rate_limited_total",
		Help: "Messages rejected by the per-user rate limit.",
	})

	IndexerJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dreammend_indexer_jobs_total",
		Help: "Dream indexing jobs, by outcome.",
	}, []string{"outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
