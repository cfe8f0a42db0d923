package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavelink/authcore/internal/model"
	"github.com/wavelink/authcore/internal/repository"
)

func newTestGatewayService(t *testing.T, staticSecret string) (*GatewayService, *repository.GatewayTokenRepository) {
	t.Helper()

	db := newTestDB(t)
	repo := repository.NewGatewayTokenRepository(db)
	audit := NewAuditService(repository.NewAuditRepository(db))
	return NewGatewayService(repo, audit, time.Hour, staticSecret), repo
}

func TestGatewayExchange(t *testing.T) {
	svc, _ := newTestGatewayService(t, "")

	resp, err := svc.Exchange(context.Background(), "user-1", "tenant-1", "127.0.0.1")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), resp.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), resp.ExpiresAt, 5*time.Second)

	// Two exchanges never collide.
	other, err := svc.Exchange(context.Background(), "user-1", "tenant-1", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEqual(t, resp.Token, other.Token)
}

func TestGatewayValidate(t *testing.T) {
	svc, _ := newTestGatewayService(t, "")

	resp, err := svc.Exchange(context.Background(), "user-1", "tenant-1", "127.0.0.1")
	require.NoError(t, err)

	verdict := svc.Validate(context.Background(), resp.Token)
	assert.True(t, verdict.Valid)
	assert.Equal(t, "user-1", verdict.UserID)
	assert.Equal(t, "tenant-1", verdict.TenantID)
}

func TestGatewayValidateRejections(t *testing.T) {
	svc, _ := newTestGatewayService(t, "")

	issued, err := svc.Exchange(context.Background(), "user-1", "tenant-1", "127.0.0.1")
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(context.Background(), issued.Token))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "revoked", token: issued.Token},
		{name: "well formed but never issued", token: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
		{name: "wrong shape without static secret", token: "some-random-string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := svc.Validate(context.Background(), tt.token)
			assert.False(t, verdict.Valid)
			assert.Empty(t, verdict.UserID)
		})
	}
}

func TestGatewayValidateExpiredToken(t *testing.T) {
	svc, repo := newTestGatewayService(t, "")

	expired := &model.GatewayToken{
		Token:     "00000000000000000000000000000000ffffffffffffffffffffffffffffffff",
		UserID:    "user-1",
		TenantID:  "tenant-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, repo.Create(context.Background(), expired))

	verdict := svc.Validate(context.Background(), expired.Token)
	assert.False(t, verdict.Valid)
}

func TestGatewayValidateStaticSecret(t *testing.T) {
	svc, _ := newTestGatewayService(t, "shared-infra-secret")

	// The static credential carries no user identity.
	verdict := svc.Validate(context.Background(), "shared-infra-secret")
	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.UserID)
	assert.Empty(t, verdict.TenantID)

	assert.False(t, svc.Validate(context.Background(), "wrong-secret").Valid)
}

func TestGatewayRevokeAllForUser(t *testing.T) {
	svc, _ := newTestGatewayService(t, "")

	first, err := svc.Exchange(context.Background(), "user-1", "tenant-1", "127.0.0.1")
	require.NoError(t, err)
	second, err := svc.Exchange(context.Background(), "user-1", "tenant-1", "127.0.0.1")
	require.NoError(t, err)
	other, err := svc.Exchange(context.Background(), "user-2", "tenant-1", "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllForUser(context.Background(), "user-1"))

	assert.False(t, svc.Validate(context.Background(), first.Token).Valid)
	assert.False(t, svc.Validate(context.Background(), second.Token).Valid)
	assert.True(t, svc.Validate(context.Background(), other.Token).Valid)
}
