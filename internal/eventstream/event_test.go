package eventstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	event := RatingEvent{
		ContentID:   42,
		RatingID:    "11111111-1111-1111-1111-111111111111",
		UserID:      "22222222-2222-2222-2222-222222222222",
		RatingValue: 5,
		SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := Marshal(event)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, event.ContentID, got.ContentID)
	assert.Equal(t, event.RatingID, got.RatingID)
	assert.Equal(t, event.UserID, got.UserID)
	assert.Equal(t, event.RatingValue, got.RatingValue)
	assert.True(t, event.SubmittedAt.Equal(got.SubmittedAt))
}

func TestUnmarshalMalformedPayloadIsPoison(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))
	assert.Error(t, err, "a malformed payload must surface as an error so the subscriber can ack-and-skip it")
}

func TestSubjectIsScopedByContentID(t *testing.T) {
	event := RatingEvent{ContentID: 7}
	assert.Equal(t, "ratings.7", event.Subject("ratings"))
}
