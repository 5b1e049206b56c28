package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Allliance/content-rating/internal/config"
)

func TestNewTokenManagerRejectsEmptySecret(t *testing.T) {
	_, err := NewTokenManager(config.SecurityConfig{})
	assert.Error(t, err)
}

func TestIssueAndParseAccessToken(t *testing.T) {
	mgr, err := NewTokenManager(config.SecurityConfig{
		SecretKey:            "test-secret",
		AccessTokenLifetime:  time.Hour,
		RefreshTokenLifetime: 24 * time.Hour,
	})
	require.NoError(t, err)

	token, err := mgr.IssueAccess("user-1", "alice")
	require.NoError(t, err)

	claims, err := mgr.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.Refresh)
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	mgr, err := NewTokenManager(config.SecurityConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	refresh, err := mgr.IssueRefresh("user-1", "alice")
	require.NoError(t, err)

	_, err = mgr.ParseAccess(refresh)
	assert.Error(t, err, "a refresh token must never be accepted as a bearer credential")

	claims, err := mgr.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.True(t, claims.Refresh)
}

func TestAccessTokenRejectedAsRefreshToken(t *testing.T) {
	mgr, err := NewTokenManager(config.SecurityConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	access, err := mgr.IssueAccess("user-1", "alice")
	require.NoError(t, err)

	_, err = mgr.ParseRefresh(access)
	assert.Error(t, err)
}

func TestParseRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	mgrA, err := NewTokenManager(config.SecurityConfig{SecretKey: "secret-a"})
	require.NoError(t, err)
	mgrB, err := NewTokenManager(config.SecurityConfig{SecretKey: "secret-b"})
	require.NoError(t, err)

	token, err := mgrA.IssueAccess("user-1", "alice")
	require.NoError(t, err)

	_, err = mgrB.ParseAccess(token)
	assert.Error(t, err)
}
