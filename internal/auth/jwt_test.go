package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(accessTTL time.Duration) *JWTService {
	return NewJWTService(&JWTConfig{
		SecretKey:            []byte("test-secret-key"),
		AccessTokenDuration:  accessTTL,
		RefreshTokenDuration: 24 * time.Hour,
		Issuer:               "uplink-test",
	})
}

func TestJWTService(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		svc := newTestJWTService(15 * time.Minute)

		tokenString, err := svc.GenerateAccessToken(42, "user@example.com")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(tokenString)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "user@example.com", claims.Email)
		assert.Equal(t, "uplink-test", claims.Issuer)
	})

	t.Run("expired token", func(t *testing.T) {
		svc := newTestJWTService(-time.Minute)

		tokenString, err := svc.GenerateAccessToken(1, "user@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateToken(tokenString)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		svc := newTestJWTService(15 * time.Minute)
		other := NewJWTService(&JWTConfig{
			SecretKey:           []byte("another-secret"),
			AccessTokenDuration: 15 * time.Minute,
			Issuer:              "uplink-test",
		})

		tokenString, err := other.GenerateAccessToken(1, "user@example.com")
		require.NoError(t, err)

		_, err = svc.ValidateToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newTestJWTService(15 * time.Minute)

		_, err := svc.ValidateToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc123", ExtractTokenFromBearer("Bearer abc123"))
	assert.Equal(t, "", ExtractTokenFromBearer("bearer abc123"))
	assert.Equal(t, "", ExtractTokenFromBearer("Bearer "))
	assert.Equal(t, "", ExtractTokenFromBearer("abc123"))
	assert.Equal(t, "", ExtractTokenFromBearer(""))
}

func TestPasswordService(t *testing.T) {
	// Минимальная сложность - тесту не нужен production cost
	svc := NewPasswordServiceWithCost(4)

	t.Run("hash and verify", func(t *testing.T) {
		hash, err := svc.HashPassword("correct-horse")
		require.NoError(t, err)
		assert.NotEqual(t, "correct-horse", hash)

		assert.NoError(t, svc.VerifyPassword(hash, "correct-horse"))
		assert.Error(t, svc.VerifyPassword(hash, "wrong-horse"))
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := svc.HashPassword("")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})
}

func TestIsValidPassword(t *testing.T) {
	assert.NoError(t, IsValidPassword("secret"))
	assert.Error(t, IsValidPassword("short"))
	assert.Error(t, IsValidPassword(string(make([]byte, 129))))
}
