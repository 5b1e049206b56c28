// Package metrics exposes the /metrics admin endpoint (§6, ambient stack)
// counters for the rating pipeline: ratings ingested, events
// published/consumed, anomaly penalties applied, worker batch duration.
// This is ambient operational surface, out of scope as a hardened
// subsystem (§1) but carried per the teacher's promauto convention.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RatingsIngestedTotal counts successful SubmitRating calls (C5).
	RatingsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_ingested_total",
		Help: "Total number of ratings accepted by the ingest service",
	})

	// EventsPublishedTotal counts RatingEvents successfully published to C4.
	EventsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_events_published_total",
		Help: "Total number of rating events published to the stream",
	})

	// EventsPublishFailedTotal counts publish failures after a successful
	// commit (§4.5: logged, not surfaced as a client error).
	EventsPublishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_events_publish_failed_total",
		Help: "Total number of rating event publish failures after a successful commit",
	})

	// EventsConsumedTotal counts events the aggregation worker has acked.
	EventsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_events_consumed_total",
		Help: "Total number of rating events consumed by the aggregation worker",
	})

	// AnomalyPenaltiesTotal counts rows whose weight was overridden by the
	// anomaly predicate in C6 step 3.
	AnomalyPenaltiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_anomaly_penalties_total",
		Help: "Total number of ratings that received the anomaly weight penalty",
	})

	// WorkerBatchDuration measures the wall-clock time of one C6 batch
	// (ProcessContent call).
	WorkerBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rating_worker_batch_duration_seconds",
		Help:    "Aggregation worker batch processing duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// WorkerBatchFailuresTotal counts batches that errored and left the
	// offset uncommitted for redelivery (§7).
	WorkerBatchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rating_worker_batch_failures_total",
		Help: "Total number of aggregation worker batches that failed and were redelivered",
	})
)
