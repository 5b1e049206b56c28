package httpapi

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/Allliance/content-rating/internal/apierr"
)

func TestWriteErrorMapsClassifiedError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apierr.NotFoundf("content 7 not found"))

	assert.Equal(t, 404, rec.Code)

	var body errorBody
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "content 7 not found", body.Error)
}

func TestWriteErrorHidesUnclassifiedErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("duplicate key value violates unique constraint"))

	assert.Equal(t, 500, rec.Code)

	var body errorBody
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error, "internal failure detail must never leak to the client")
}

func TestWriteJSONEncodesBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 201, map[string]string{"status": "created"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"created"}`, rec.Body.String())
}
