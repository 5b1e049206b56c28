package ratings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/cachex"
	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/dbx"
	"github.com/Allliance/content-rating/internal/logging"
)

// SortField enumerates the columns the listing endpoint may order by (§6).
type SortField string

const (
	SortByRating  SortField = "average_rating"
	SortByRecency SortField = "created_at"
	SortByCount   SortField = "rating_count"
)

var validSortFields = map[SortField]string{
	SortByRating:  "average_rating",
	SortByRecency: "created_at",
	SortByCount:   "rating_count",
}

// ListParams are the listing endpoint's query parameters (§4.7).
type ListParams struct {
	SortBy SortField
	Desc   bool
	Page   int
	UserID string // caller identity, for the own-rating left join; may be empty
}

// ListResult is the spec's exact pagination envelope.
type ListResult struct {
	Count    int            `json:"count"`
	Next     *int           `json:"next"`
	Previous *int           `json:"previous"`
	Results  []ContentView  `json:"results"`
}

// QueryService implements C7: paginated listings read straight from the C2
// aggregate columns, and single-content detail, which prefers the C3 stats
// cache and falls back to the C2 aggregate store on a miss (§4.7).
type QueryService struct {
	store *Store
	cache cachex.Cache
	db    *dbx.DB
	cfg   config.RatingConfig
}

// NewQueryService wires the store, cache, and raw connection (listing needs
// its own paginated SQL, which Store doesn't expose) behind cfg's page size.
func NewQueryService(store *Store, cache cachex.Cache, db *dbx.DB, cfg config.RatingConfig) *QueryService {
	return &QueryService{store: store, cache: cache, db: db, cfg: cfg}
}

// List returns a page of content, sorted per params, with the caller's own
// rating left-joined in when UserID is set.
func (q *QueryService) List(ctx context.Context, params ListParams) (ListResult, error) {
	column, ok := validSortFields[params.SortBy]
	if !ok {
		column = validSortFields[SortByRating]
	}
	direction := "ASC"
	if params.Desc {
		direction = "DESC"
	}

	pageSize := q.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var total int
	if err := q.db.Conn().QueryRowContext(ctx, `SELECT count(*) FROM content`).Scan(&total); err != nil {
		return ListResult{}, apierr.Transient(err, "count content")
	}

	query := fmt.Sprintf(`
		SELECT c.content_id, c.title, c.average_rating, c.rating_count, c.created_at, r.rating
		FROM content c
		LEFT JOIN rating r ON r.content_id = c.content_id AND r.user_id = $1
		ORDER BY c.%s %s, c.content_id ASC
		LIMIT $2 OFFSET $3`, column, direction)

	rows, err := q.db.Conn().QueryContext(ctx, query, nullableUserID(params.UserID), pageSize, offset)
	if err != nil {
		return ListResult{}, apierr.Transient(err, "list content")
	}
	defer rows.Close()

	var results []ContentView
	for rows.Next() {
		var view ContentView
		var ownRating sql.NullInt64
		if err := rows.Scan(&view.ContentID, &view.Title, &view.AverageRating, &view.RatingCount, &view.CreatedAt, &ownRating); err != nil {
			return ListResult{}, apierr.Transient(err, "scan content row")
		}
		if ownRating.Valid {
			v := int(ownRating.Int64)
			view.UserRating = &v
		}
		results = append(results, view)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, apierr.Transient(err, "list content")
	}

	result := ListResult{Count: total, Results: results}
	if offset+len(results) < total {
		next := page + 1
		result.Next = &next
	}
	if page > 1 {
		prev := page - 1
		result.Previous = &prev
	}
	return result, nil
}

// Detail returns a single content's aggregate, preferring the stats cache
// and falling back to the aggregate store on a miss or cache error — a
// cache outage degrades latency, never correctness (§4.7, §7).
func (q *QueryService) Detail(ctx context.Context, contentID int64, userID string) (Content, error) {
	content, err := q.store.GetContent(ctx, contentID)
	if err != nil {
		return Content{}, err
	}

	stats, err := q.cache.Get(ctx, contentID)
	switch err {
	case nil:
		content.AverageRating = stats.AverageRating
		content.RatingCount = stats.RatingCount
	case cachex.ErrMiss:
		if setErr := q.cache.Set(ctx, contentID, cachex.Stats{
			AverageRating: content.AverageRating,
			RatingCount:   content.RatingCount,
		}); setErr != nil {
			logging.Warn().Err(setErr).Int64("content_id", contentID).Msg("stats cache warm failed")
		}
	default:
		logging.Warn().Err(err).Int64("content_id", contentID).Msg("stats cache read failed, serving aggregate store")
	}

	return content, nil
}

// OwnRating returns the caller's own rating for contentID, or nil if unset.
func (q *QueryService) OwnRating(ctx context.Context, contentID int64, userID string) (*int, error) {
	return q.store.OwnRating(ctx, contentID, userID)
}

// DetailView returns the single-content shape the detail endpoint exposes
// (§4.7: "returns the same shape as per-item listing rows"), combining the
// cache-or-store aggregate with the caller's own rating.
func (q *QueryService) DetailView(ctx context.Context, contentID int64, userID string) (ContentView, error) {
	content, err := q.Detail(ctx, contentID, userID)
	if err != nil {
		return ContentView{}, err
	}
	own, err := q.OwnRating(ctx, contentID, userID)
	if err != nil {
		return ContentView{}, err
	}
	return ContentView{
		ContentID:     content.ContentID,
		Title:         content.Title,
		UserRating:    own,
		AverageRating: content.AverageRating,
		RatingCount:   content.RatingCount,
		CreatedAt:     content.CreatedAt,
	}, nil
}

func nullableUserID(userID string) interface{} {
	if userID == "" {
		return nil
	}
	return userID
}
