package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Allliance/content-rating/internal/config"
)

func TestRequireRejectsMissingToken(t *testing.T) {
	mgr, err := NewTokenManager(config.SecurityConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	handler := Require(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/contents", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireInjectsIdentityForValidToken(t *testing.T) {
	mgr, err := NewTokenManager(config.SecurityConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	token, err := mgr.IssueAccess("user-1", "alice")
	require.NoError(t, err)

	var gotIdentity Identity
	var ok bool
	handler := Require(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, ok = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/contents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	assert.Equal(t, "user-1", gotIdentity.UserID)
	assert.Equal(t, "alice", gotIdentity.Username)
}

func TestRequireRejectsMalformedAuthorizationHeader(t *testing.T) {
	mgr, err := NewTokenManager(config.SecurityConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	handler := Require(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid bearer token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/contents", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
