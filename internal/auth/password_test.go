package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
}

func TestHashPasswordProducesDistinctSalts(t *testing.T) {
	hashA, err := HashPassword("same password")
	require.NoError(t, err)
	hashB, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB, "bcrypt must salt each hash independently")
	assert.True(t, VerifyPassword(hashA, "same password"))
	assert.True(t, VerifyPassword(hashB, "same password"))
}
