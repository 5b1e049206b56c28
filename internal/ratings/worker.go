package ratings

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/cachex"
	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/eventstream"
	"github.com/Allliance/content-rating/internal/logging"
	"github.com/Allliance/content-rating/internal/metrics"
)

// AggregationWorker implements C6: consume rating events and recompute a
// content's aggregate in batches, applying an anomaly penalty to bursts of
// identical-value ratings before the recompute.
//
// The batch procedure is grounded directly on the original rating_processor:
// load content, select the unprocessed rows for that content, apply the
// anomaly-penalty pass, recompute the weighted average over ALL rows (not
// just the unprocessed ones), mark the batch processed, invalidate the
// cached stats entry.
type AggregationWorker struct {
	store *Store
	cache cachex.Cache
	cfg   config.RatingConfig
}

// NewAggregationWorker wires the store and cache behind the anomaly-penalty
// policy from cfg.
func NewAggregationWorker(store *Store, cache cachex.Cache, cfg config.RatingConfig) *AggregationWorker {
	return &AggregationWorker{store: store, cache: cache, cfg: cfg}
}

// HandleEvent is the entry point driven by eventstream.Subscriber.Run. Each
// event names a content id; the worker reprocesses that content's whole
// unprocessed batch, not just the triggering row, so concurrent submissions
// for the same content collapse into one recompute pass.
func (w *AggregationWorker) HandleEvent(ctx context.Context, event eventstream.RatingEvent) error {
	return w.ProcessContent(ctx, event.ContentID)
}

// ProcessContent runs the six-step batch procedure for a single content id
// (§4.6):
//  1. load the content row (a missing row is logged and the event skipped)
//  2. select its unprocessed ratings
//  3. apply the anomaly penalty to any rating value that is over-represented
//     in the last hour
//  4. recompute the weighted average and distribution over all ratings
//  5. mark the batch processed
//  6. invalidate the cached stats entry
func (w *AggregationWorker) ProcessContent(ctx context.Context, contentID int64) (err error) {
	start := time.Now()
	defer func() {
		metrics.WorkerBatchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.WorkerBatchFailuresTotal.Inc()
		}
	}()

	if _, err := w.store.GetContent(ctx, contentID); err != nil {
		if apiErr, ok := apierr.As(err); ok && apiErr.Kind == apierr.KindNotFound {
			logging.Warn().Int64("content_id", contentID).Msg("content not found, skipping event")
			return nil
		}
		return err
	}

	unprocessed, err := w.store.UnprocessedRatings(ctx, contentID)
	if err != nil {
		return err
	}
	if len(unprocessed) == 0 {
		return nil
	}

	if err := w.applyAnomalyPenalty(ctx, contentID, unprocessed); err != nil {
		return err
	}

	all, err := w.store.AllRatings(ctx, contentID)
	if err != nil {
		return err
	}

	average, count, distribution := recomputeAggregate(all)
	if err := w.store.UpdateAggregate(ctx, contentID, average, count, distribution); err != nil {
		return err
	}

	userIDs := make([]string, 0, len(unprocessed))
	for _, r := range unprocessed {
		userIDs = append(userIDs, r.UserID)
	}
	if err := w.store.MarkProcessed(ctx, contentID, userIDs); err != nil {
		return err
	}

	if err := w.cache.Invalidate(ctx, contentID); err != nil {
		logging.Warn().Err(err).Int64("content_id", contentID).Msg("stats cache invalidation failed")
	}

	return nil
}

// applyAnomalyPenalty implements check_rating_anomaly: for each rating
// value represented in the unprocessed batch, if the total count of recent
// ratings for the content within the last hour is at least MinRateCount AND
// the ratings sharing that value make up more than AnomalyThreshold of that
// total, every unprocessed row carrying that value has its weight set to
// AnomalyWeightPenalty (or to minPenalizedWeight when the configured penalty
// is not positive, so a penalized rating still contributes rather than
// vanishing from the aggregate).
func (w *AggregationWorker) applyAnomalyPenalty(ctx context.Context, contentID int64, batch []Rating) error {
	since := time.Now().UTC().Add(-time.Hour)

	total, err := w.store.CountRecentTotal(ctx, contentID, since)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	seen := map[int]bool{}
	for _, r := range batch {
		if seen[r.Value] {
			continue
		}
		seen[r.Value] = true

		sameValue, err := w.store.CountRecentSameValue(ctx, contentID, r.Value, since)
		if err != nil {
			return err
		}

		if !isAnomalous(sameValue, total, w.cfg.MinRateCount, w.cfg.AnomalyThreshold) {
			continue
		}

		logging.Info().Int64("content_id", contentID).Int("rating_value", r.Value).
			Int("same_value_count", sameValue).Int("total_recent", total).
			Msg("anomalous rating burst detected, applying weight penalty")

		penalty := w.cfg.AnomalyWeightPenalty
		if penalty <= 0 {
			penalty = minPenalizedWeight
		}
		for _, row := range batch {
			if row.Value != r.Value {
				continue
			}
			metrics.AnomalyPenaltiesTotal.Inc()
			if err := w.store.SetWeight(ctx, contentID, row.UserID, penalty); err != nil {
				return err
			}
		}
	}
	return nil
}

// minPenalizedWeight is the floor ANOMALY_WEIGHT_PENALTY is clamped to when
// misconfigured as zero or negative — a penalized rating still counts,
// just diminished, and I2 requires weight stay strictly positive.
const minPenalizedWeight = 0.0001

// isAnomalous is check_rating_anomaly's predicate: the total recent sample
// must clear the minimum sample size AND sameValue's share of it must
// exceed the threshold (§4.6 step 3: "if total_recent >= MIN_RATE_COUNT and
// same_value_recent / total_recent > ANOMALY_THRESHOLD").
func isAnomalous(sameValue, total, minCount int, threshold float64) bool {
	if total < minCount {
		return false
	}
	if total == 0 {
		return false
	}
	return float64(sameValue)/float64(total) > threshold
}

// recomputeAggregate is process_ratings_batch's weighted-average step,
// applied over every rating for the content (processed and newly processed
// alike), per I4.
func recomputeAggregate(all []Rating) (average float64, count int, distribution map[string]int) {
	distribution = map[string]int{}
	if len(all) == 0 {
		return 0, 0, distribution
	}

	var weightedSum, weightTotal float64
	for _, r := range all {
		w := r.Weight
		if w <= 0 {
			w = 1
		}
		weightedSum += float64(r.Value) * w
		weightTotal += w
		distribution[strconv.Itoa(r.Value)]++
	}

	if weightTotal == 0 {
		return 0, len(all), distribution
	}
	return clampAverage(weightedSum / weightTotal), len(all), distribution
}

func clampAverage(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

// Run drives the worker from a Subscriber until ctx is canceled, suitable
// for supervision as a single suture service (§5: one worker goroutine per
// process, content ids interleaved by subscription order, not parallelized
// within a process).
func (w *AggregationWorker) Run(ctx context.Context, sub *eventstream.Subscriber) error {
	err := sub.Run(ctx, w.HandleEvent)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("aggregation worker subscription ended: %w", err)
	}
	return ctx.Err()
}
