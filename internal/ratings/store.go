package ratings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/dbx"
)

// Store is the combined Rating Store (C1) and Aggregate Store (C2). Both
// live in the same relational database (Postgres). Every method runs its
// statement directly on the connection pool: the rate-window count
// (CountRecentSameValue) and the upsert (UpsertRating) are separate
// statements and are not wrapped in one transaction.
type Store struct {
	db *dbx.DB
}

// NewStore wraps an open database connection.
func NewStore(db *dbx.DB) *Store { return &Store{db: db} }

// GetContent loads a Content row, returning apierr.NotFound if absent.
func (s *Store) GetContent(ctx context.Context, contentID int64) (Content, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT content_id, title, text, created_at, rating_count, average_rating, rating_distribution
		FROM content WHERE content_id = $1`, contentID)

	var c Content
	var dist []byte
	if err := row.Scan(&c.ContentID, &c.Title, &c.Text, &c.CreatedAt, &c.RatingCount, &c.AverageRating, &dist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Content{}, apierr.NotFoundf("content %d not found", contentID)
		}
		return Content{}, apierr.Transient(err, "load content")
	}
	c.RatingDistribution = decodeDistribution(dist)
	return c, nil
}

// CreateContent inserts a new content row (the external creation endpoint,
// §6, restored from the original's contents/views.py create handler).
func (s *Store) CreateContent(ctx context.Context, title, text string) (Content, error) {
	if title == "" {
		return Content{}, apierr.Validationf("title is required")
	}
	if len(title) > 200 {
		return Content{}, apierr.Validationf("title must be at most 200 characters")
	}

	row := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO content (title, text) VALUES ($1, $2)
		RETURNING content_id, title, text, created_at, rating_count, average_rating, rating_distribution`,
		title, text)

	var c Content
	var dist []byte
	if err := row.Scan(&c.ContentID, &c.Title, &c.Text, &c.CreatedAt, &c.RatingCount, &c.AverageRating, &dist); err != nil {
		return Content{}, apierr.Transient(err, "create content")
	}
	c.RatingDistribution = decodeDistribution(dist)
	return c, nil
}

// CountRecentSameValue returns n in the admission-weight formula (§4.5): the
// number of rows for contentID with the given rating value created within
// the last hour.
func (s *Store) CountRecentSameValue(ctx context.Context, contentID int64, value int, since time.Time) (int, error) {
	var n int
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT count(*) FROM rating
		WHERE content_id = $1 AND rating = $2 AND created_at >= $3`,
		contentID, value, since).Scan(&n)
	if err != nil {
		return 0, apierr.Transient(err, "count recent ratings")
	}
	return n, nil
}

// UpsertRating performs the §4.5 upsert: update in place if a row exists
// for (contentID, userID), insert otherwise. weight and processed=false are
// always applied as update VALUES, never as lookup predicates — the source
// bug called out in §9 (an earlier draft used rating/weight as upsert
// lookup keys, which would have let the same user accumulate duplicate
// rows instead of colliding on the (content, user) key).
func (s *Store) UpsertRating(ctx context.Context, contentID int64, userID string, value int, weight float64) (Rating, error) {
	now := time.Now().UTC()

	// A uniqueness race lost by this statement is retried once before it is
	// reported as a conflict.
	for attempt := 0; ; attempt++ {
		row := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO rating (content_id, user_id, rating, weight, created_at, updated_at, processed)
		VALUES ($1, $2, $3, $4, $5, $5, false)
		ON CONFLICT (content_id, user_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			weight = EXCLUDED.weight,
			processed = false,
			updated_at = EXCLUDED.updated_at
		RETURNING content_id, user_id, rating, weight, created_at, updated_at, processed`,
			contentID, userID, value, weight, now)

		var r Rating
		if err := row.Scan(&r.ContentID, &r.UserID, &r.Value, &r.Weight, &r.CreatedAt, &r.UpdatedAt, &r.Processed); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Class() == "23" {
				if attempt == 0 {
					continue
				}
				return Rating{}, apierr.Conflictf("concurrent rating update lost the uniqueness race")
			}
			return Rating{}, apierr.Transient(err, "upsert rating")
		}
		return r, nil
	}
}

// UnprocessedRatings returns every row for contentID with processed=false
// (§4.6 step 2).
func (s *Store) UnprocessedRatings(ctx context.Context, contentID int64) ([]Rating, error) {
	return s.queryRatings(ctx, `
		SELECT content_id, user_id, rating, weight, created_at, updated_at, processed
		FROM rating WHERE content_id = $1 AND NOT processed`, contentID)
}

// AllRatings returns every row for contentID (§4.6 step 4).
func (s *Store) AllRatings(ctx context.Context, contentID int64) ([]Rating, error) {
	return s.queryRatings(ctx, `
		SELECT content_id, user_id, rating, weight, created_at, updated_at, processed
		FROM rating WHERE content_id = $1`, contentID)
}

func (s *Store) queryRatings(ctx context.Context, query string, contentID int64) ([]Rating, error) {
	rows, err := s.db.Conn().QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, apierr.Transient(err, "load ratings")
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ContentID, &r.UserID, &r.Value, &r.Weight, &r.CreatedAt, &r.UpdatedAt, &r.Processed); err != nil {
			return nil, apierr.Transient(err, "scan rating")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRecentTotal returns the total number of ratings for contentID within
// the last hour, used by the anomaly predicate (§4.6 step 3).
func (s *Store) CountRecentTotal(ctx context.Context, contentID int64, since time.Time) (int, error) {
	var n int
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT count(*) FROM rating WHERE content_id = $1 AND created_at >= $2`,
		contentID, since).Scan(&n)
	if err != nil {
		return 0, apierr.Transient(err, "count recent total")
	}
	return n, nil
}

// SetWeight overrides a row's weight — the anomaly-penalty write in §4.6
// step 3.
func (s *Store) SetWeight(ctx context.Context, contentID int64, userID string, weight float64) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`UPDATE rating SET weight = $3 WHERE content_id = $1 AND user_id = $2`,
		contentID, userID, weight)
	if err != nil {
		return apierr.Transient(err, "set rating weight")
	}
	return nil
}

// MarkProcessed flips processed to true for the given rows (§4.6 step 5).
func (s *Store) MarkProcessed(ctx context.Context, contentID int64, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.db.Conn().ExecContext(ctx,
		`UPDATE rating SET processed = true WHERE content_id = $1 AND user_id = ANY($2::uuid[])`,
		contentID, pq.Array(userIDs))
	if err != nil {
		return apierr.Transient(err, "mark ratings processed")
	}
	return nil
}

// UpdateAggregate writes the recomputed Content aggregate columns (§4.6
// step 4: new_average, new_count, rating_distribution).
func (s *Store) UpdateAggregate(ctx context.Context, contentID int64, average float64, count int, distribution map[string]int) error {
	dist, err := json.Marshal(distribution)
	if err != nil {
		return fmt.Errorf("encode rating distribution: %w", err)
	}
	_, err = s.db.Conn().ExecContext(ctx,
		`UPDATE content SET average_rating = $2, rating_count = $3, rating_distribution = $4 WHERE content_id = $1`,
		contentID, average, count, dist)
	if err != nil {
		return apierr.Transient(err, "update content aggregate")
	}
	return nil
}

// OwnRating returns the caller's own rating for contentID, if any — the
// left-join join described in §4.7.
func (s *Store) OwnRating(ctx context.Context, contentID int64, userID string) (*int, error) {
	if userID == "" {
		return nil, nil
	}
	var value int
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT rating FROM rating WHERE content_id = $1 AND user_id = $2`, contentID, userID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Transient(err, "load own rating")
	}
	return &value, nil
}

func decodeDistribution(raw []byte) map[string]int {
	dist := map[string]int{}
	if len(raw) == 0 {
		return dist
	}
	_ = json.Unmarshal(raw, &dist)
	return dist
}
