package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/Allliance/content-rating/internal/ratings"
)

func TestMapSortField(t *testing.T) {
	assert.Equal(t, ratings.SortByCount, mapSortField("rating_count"))
	assert.Equal(t, ratings.SortByRating, mapSortField("rating_average"))
	assert.Equal(t, ratings.SortByRecency, mapSortField("created_at"))
	assert.Equal(t, ratings.SortByRecency, mapSortField("unknown"))
}

func withChiParam(key, value string) *chi.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return rctx
}

func TestPathContentIDParsesValidID(t *testing.T) {
	req := httptest.NewRequest("GET", "/contents/42", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, withChiParam("id", "42")))

	id, err := pathContentID(req)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestPathContentIDRejectsNonNumericID(t *testing.T) {
	req := httptest.NewRequest("GET", "/contents/abc", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, withChiParam("id", "abc")))

	_, err := pathContentID(req)
	assert.Error(t, err)
}

func TestPathContentIDRejectsZeroOrNegativeID(t *testing.T) {
	req := httptest.NewRequest("GET", "/contents/0", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, withChiParam("id", "0")))

	_, err := pathContentID(req)
	assert.Error(t, err)
}
