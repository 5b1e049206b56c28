package ratings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/eventstream"
	"github.com/Allliance/content-rating/internal/logging"
	"github.com/Allliance/content-rating/internal/metrics"
)

// Publisher is the subset of eventstream.Publisher the Ingest Service
// depends on, so tests can substitute a fake without touching NATS.
type Publisher interface {
	Publish(ctx context.Context, event eventstream.RatingEvent) error
}

// IngestService implements C5: validate, upsert, weight, publish.
type IngestService struct {
	store     *Store
	publisher Publisher
	cfg       config.RatingConfig
}

// NewIngestService wires the store and publisher behind the admission-weight
// policy from cfg.
func NewIngestService(store *Store, publisher Publisher, cfg config.RatingConfig) *IngestService {
	return &IngestService{store: store, publisher: publisher, cfg: cfg}
}

// SubmitRating is C5's single operation (§4.5).
func (svc *IngestService) SubmitRating(ctx context.Context, callerUserID string, contentID int64, ratingValue int) (SubmitResult, error) {
	if callerUserID == "" {
		return SubmitResult{}, apierr.AuthFailuref("caller identity required")
	}
	if ratingValue < 0 || ratingValue > 5 {
		return SubmitResult{}, apierr.Validationf("rating must be an integer in [0,5]")
	}

	if _, err := svc.store.GetContent(ctx, contentID); err != nil {
		return SubmitResult{}, err
	}

	weight := svc.admissionWeight(ctx, contentID, ratingValue)

	rating, err := svc.store.UpsertRating(ctx, contentID, callerUserID, ratingValue, weight)
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{Status: "accepted", Rating: rating.Value, Weight: rating.Weight}
	metrics.RatingsIngestedTotal.Inc()

	event := eventstream.RatingEvent{
		ContentID:   contentID,
		RatingID:    uuid.NewString(),
		UserID:      callerUserID,
		RatingValue: ratingValue,
		SubmittedAt: rating.UpdatedAt,
	}
	if err := svc.publisher.Publish(ctx, event); err != nil {
		// §4.5: publish failure after a successful commit is logged and
		// surfaced as a non-fatal warning, never a client-visible error —
		// the next event for this content heals the aggregate.
		logging.Warn().Err(err).Int64("content_id", contentID).Msg("publish rating event failed after commit")
		metrics.EventsPublishFailedTotal.Inc()
		result.DeferredAggregation = true
	} else {
		metrics.EventsPublishedTotal.Inc()
	}

	return result, nil
}

// admissionWeight computes w = max(1, L-n)/L (§4.5, P4). Store errors fall
// back to the floor weight rather than failing the request — a transient
// read-path failure here must not block an otherwise-valid write, and a
// conservative weight never violates I2.
func (svc *IngestService) admissionWeight(ctx context.Context, contentID int64, value int) float64 {
	limit := svc.cfg.RateLimitPerHour
	if limit <= 0 {
		limit = 10000
	}

	since := time.Now().UTC().Add(-time.Hour)
	n, err := svc.store.CountRecentSameValue(ctx, contentID, value, since)
	if err != nil {
		logging.Warn().Err(err).Int64("content_id", contentID).Msg("admission weight lookup failed, using floor weight")
		return 1.0 / float64(limit)
	}

	return admissionWeight(limit, n)
}

// admissionWeight is the pure form of the §4.5 formula, w = max(1, L-n)/L,
// split out from the store-backed lookup above so P4 can be tested without
// a database.
func admissionWeight(limit, n int) float64 {
	numerator := limit - n
	if numerator < 1 {
		numerator = 1
	}
	if numerator > limit {
		numerator = limit
	}
	w := float64(numerator) / float64(limit)
	if w <= 0 {
		w = 1.0 / float64(limit)
	}
	return w
}
