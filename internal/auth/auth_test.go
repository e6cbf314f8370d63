package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateJWT("user-1")
	require.NoError(t, err)

	sub, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	token, err := NewTokenIssuer("one", time.Hour).GenerateJWT("user-1")
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)
	token, err := issuer.GenerateJWT("user-1")
	require.NoError(t, err)

	_, err = issuer.ValidateJWT(token)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("hunter2", hash))
	assert.False(t, CheckPasswordHash("hunter3", hash))
}
