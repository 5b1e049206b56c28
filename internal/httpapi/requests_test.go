package httpapi

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQueryDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/contents", nil)
	sortBy, desc, page := listQuery(req)
	assert.Equal(t, "created_at", sortBy)
	assert.True(t, desc)
	assert.Equal(t, 1, page)
}

func TestListQueryParsesParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/contents?sort_by=rating_count&order=asc&page=3", nil)
	sortBy, desc, page := listQuery(req)
	assert.Equal(t, "rating_count", sortBy)
	assert.False(t, desc)
	assert.Equal(t, 3, page)
}

func TestListQueryRejectsUnknownSortField(t *testing.T) {
	req := httptest.NewRequest("GET", "/contents?sort_by=something_else", nil)
	sortBy, _, _ := listQuery(req)
	assert.Equal(t, "created_at", sortBy)
}

func TestListQueryIgnoresInvalidPage(t *testing.T) {
	req := httptest.NewRequest("GET", "/contents?page=not-a-number", nil)
	_, _, page := listQuery(req)
	assert.Equal(t, 1, page, "an unparsable page falls back to the first page rather than erroring")
}

func TestParsePositiveInt(t *testing.T) {
	n, err := parsePositiveInt("42")
	assert.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = parsePositiveInt("0")
	assert.Error(t, err)

	_, err = parsePositiveInt("-1")
	assert.Error(t, err)

	_, err = parsePositiveInt("abc")
	assert.Error(t, err)
}

func TestValidateStructReturnsValidationError(t *testing.T) {
	err := validateStruct(RegisterRequest{Username: "", Password: "short"})
	assert.Error(t, err)
}

func TestValidateStructAcceptsWellFormedRequest(t *testing.T) {
	err := validateStruct(RegisterRequest{Username: "alice", Password: "longenough"})
	assert.NoError(t, err)
}
