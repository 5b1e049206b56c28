// Package ratings implements the rating ingestion and aggregation pipeline:
// the Rating Store and Aggregate Store (C1/C2), the Ingest Service (C5),
// the Aggregation Worker (C6), and the Query Service (C7).
package ratings

import "time"

// Content is a rated item with denormalized aggregate fields (§3).
type Content struct {
	ContentID          int64          `json:"id"`
	Title              string         `json:"title"`
	Text               string         `json:"text"`
	CreatedAt          time.Time      `json:"created_at"`
	RatingCount        int            `json:"rating_count"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}

// Rating is a single user's score for one content (§3). At most one row
// exists per (ContentID, UserID) — invariant I5.
type Rating struct {
	ContentID int64     `json:"content_id"`
	UserID    string    `json:"user_id"`
	Value     int       `json:"rating"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Processed bool      `json:"processed"`
}

// ContentView is the shape returned by the Query Service (C7): a listing
// or detail row with the caller's own rating, if any, left-joined in.
type ContentView struct {
	ContentID     int64    `json:"id"`
	Title         string   `json:"title"`
	UserRating    *int     `json:"user_rating"`
	AverageRating float64  `json:"average_rating"`
	RatingCount   int      `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitResult is what SubmitRating (C5) returns to the caller.
type SubmitResult struct {
	Status             string  `json:"status"`
	Rating             int     `json:"rating"`
	Weight             float64 `json:"weight"`
	DeferredAggregation bool   `json:"deferred_aggregation,omitempty"`
}
