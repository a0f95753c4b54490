package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	token, exp, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManagerDefaultsToSevenDays(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	_, exp, err := tm.GenerateToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, 5*time.Second)
}

func TestTokenManagerRejects(t *testing.T) {
	tm := NewTokenManager("secret", 60)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other", 60)
		token, _, err := other.GenerateToken("user-1")
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenManager("secret", 1)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateToken("user-1")
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.ParseToken(raw)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.ParseToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.NoError(t, ComparePassword(hash, "password123"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
