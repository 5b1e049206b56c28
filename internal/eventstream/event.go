// Package eventstream implements the event stream (C4): a durable,
// at-least-once log of rating events, partitioned by content id, over NATS
// JetStream via Watermill.
package eventstream

import (
	"encoding/json"
	"fmt"
	"time"
)

// RatingEvent is the wire record published by the Ingest Service (C5) and
// consumed by the Aggregation Worker (C6). Partition key is ContentID.
type RatingEvent struct {
	ContentID   int64     `json:"content_id"`
	RatingID    string    `json:"rating_id"`
	UserID      string    `json:"user_id"`
	RatingValue int       `json:"rating_value"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Subject returns the NATS subject for this event, scoped by content id so
// a single durable consumer can bind a wildcard subscription while still
// letting JetStream key per-content ordering.
func (e RatingEvent) Subject(topicPrefix string) string {
	return fmt.Sprintf("%s.%d", topicPrefix, e.ContentID)
}

// Marshal encodes the event as JSON.
func Marshal(e RatingEvent) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal rating event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON-encoded RatingEvent. A malformed payload is
// reported back to the caller, who treats it as a poison event per §7
// (logged and acknowledged, never retried).
func Unmarshal(data []byte) (RatingEvent, error) {
	var e RatingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RatingEvent{}, fmt.Errorf("unmarshal rating event: %w", err)
	}
	return e, nil
}
