package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 30*24*time.Hour)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestTokenService()

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "tenant-1", "a@example.com", "owner")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "tenant-1", claims["tenant_id"])
	assert.Equal(t, "a@example.com", claims["email"])
	assert.Equal(t, "owner", claims["role"])
	assert.Equal(t, "access", claims["type"])
}

func TestGenerateRefreshToken(t *testing.T) {
	svc := newTestTokenService()

	token, expiresAt, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "refresh", claims["type"])
}

func TestTokensAreUniquePerMint(t *testing.T) {
	svc := newTestTokenService()

	// Back-to-back mints for the same subject land in the same second, so
	// without a per-token jti both strings would be identical and rotation
	// would overwrite a session hash with itself.
	firstAccess, _, err := svc.GenerateAccessToken("user-1", "tenant-1", "a@example.com", "owner")
	require.NoError(t, err)
	secondAccess, _, err := svc.GenerateAccessToken("user-1", "tenant-1", "a@example.com", "owner")
	require.NoError(t, err)
	assert.NotEqual(t, firstAccess, secondAccess)

	firstRefresh, _, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	secondRefresh, _, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, firstRefresh, secondRefresh)

	claims, err := svc.VerifyRefreshToken(firstRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, claims["jti"])
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	svc := newTestTokenService()

	access, _, err := svc.GenerateAccessToken("user-1", "tenant-1", "a@example.com", "owner")
	require.NoError(t, err)
	refresh, _, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	// A refresh token must never pass as an access token or vice versa,
	// even for a caller holding both secrets.
	_, err = svc.VerifyAccessToken(refresh)
	assert.Error(t, err)
	_, err = svc.VerifyRefreshToken(access)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService("a-different-secret", "another-different-secret", 15*time.Minute, time.Hour)

	token, _, err := svc.GenerateAccessToken("user-1", "tenant-1", "a@example.com", "owner")
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("access-secret-for-tests", "refresh-secret-for-tests", -time.Minute, -time.Minute)

	token, _, err := svc.GenerateAccessToken("user-1", "tenant-1", "a@example.com", "owner")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	svc := newTestTokenService()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		claims  jwt.MapClaims
		expired bool
	}{
		{name: "future exp", claims: jwt.MapClaims{"exp": float64(now.Add(time.Hour).Unix())}, expired: false},
		{name: "past exp", claims: jwt.MapClaims{"exp": float64(now.Add(-time.Hour).Unix())}, expired: true},
		{name: "missing exp", claims: jwt.MapClaims{}, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, IsExpired(tt.claims, now))
		})
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("some-token")
	h2 := HashToken("some-token")
	h3 := HashToken("another-token")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "some-token")
}
