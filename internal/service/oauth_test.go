package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavelink/authcore/config"
	"github.com/wavelink/authcore/internal/constants"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/internal/model"
	"github.com/wavelink/authcore/internal/repository"
	"gorm.io/gorm"
)

func newTestOAuthService(t *testing.T, db *gorm.DB) *OAuthService {
	t.Helper()

	auth := newTestAuthService(t, db)
	return NewOAuthService(
		repository.NewUserRepository(db),
		repository.NewOAuthLinkRepository(db),
		auth,
		NewAuditService(repository.NewAuditRepository(db)),
		NewGoogleProvider(config.GoogleOAuthConfig{}),
		NewAppleProvider(config.AppleOAuthConfig{}),
	)
}

func googleIdentity(subject, email string) oauthIdentity {
	return oauthIdentity{
		Provider:      constants.ProviderGoogle,
		Subject:       subject,
		Email:         email,
		EmailVerified: true,
		Profile:       map[string]any{"name": "Test Person"},
	}
}

func TestOAuthProvisionsNewAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOAuthService(t, db)

	resp, err := svc.registerOrLogin(context.Background(), googleIdentity("google-sub-1", "fresh@example.com"), "iPhone", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "fresh@example.com", resp.User.Email)
	assert.Equal(t, constants.RoleOwner, resp.User.Role)
	assert.True(t, resp.User.EmailVerified)
	assert.NotEmpty(t, resp.AccessToken)

	// Provider-only accounts carry no password hash.
	var user model.User
	require.NoError(t, db.First(&user, "id = ?", resp.User.ID).Error)
	assert.Nil(t, user.PasswordHash)

	var link model.OAuthProviderLink
	require.NoError(t, db.First(&link, "provider_user_id = ?", "google-sub-1").Error)
	assert.Equal(t, resp.User.ID, link.UserID)
}

func TestOAuthExistingLinkWins(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOAuthService(t, db)

	first, err := svc.registerOrLogin(context.Background(), googleIdentity("google-sub-2", "linked@example.com"), "", "127.0.0.1")
	require.NoError(t, err)

	// A repeat sign-in with a changed provider email still resolves to the
	// linked user: the subject is the durable identity.
	second, err := svc.registerOrLogin(context.Background(), googleIdentity("google-sub-2", "renamed@example.com"), "", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	var users int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)
}

func TestOAuthAttachesToEmailMatch(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(t, db)
	svc := newTestOAuthService(t, db)

	registered := registerTestUser(t, auth, "password-first@example.com")
	assert.False(t, registered.User.EmailVerified)

	resp, err := svc.registerOrLogin(context.Background(), googleIdentity("google-sub-3", "password-first@example.com"), "", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	// The link attached to the existing user and the provider's verified
	// email promoted local verification.
	var link model.OAuthProviderLink
	require.NoError(t, db.First(&link, "provider_user_id = ?", "google-sub-3").Error)
	assert.Equal(t, registered.User.ID, link.UserID)

	var user model.User
	require.NoError(t, db.First(&user, "id = ?", registered.User.ID).Error)
	assert.True(t, user.EmailVerified)
	assert.NotNil(t, user.PasswordHash) // the password still works
}

func TestOAuthUnverifiedEmailCannotClaimAccount(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(t, db)
	svc := newTestOAuthService(t, db)

	victim := registerTestUser(t, auth, "victim@example.com")

	// A provider account asserting the victim's address without verifying
	// it must not become a login path into the victim's account.
	identity := googleIdentity("hostile-sub", "victim@example.com")
	identity.EmailVerified = false

	_, err := svc.registerOrLogin(context.Background(), identity, "", "127.0.0.1")
	require.ErrorIs(t, err, apperrors.ErrEmailExists)

	var links int64
	require.NoError(t, db.Model(&model.OAuthProviderLink{}).Where("user_id = ?", victim.User.ID).Count(&links).Error)
	assert.EqualValues(t, 0, links)
}

func TestOAuthSuspendedLinkedUserRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOAuthService(t, db)

	resp, err := svc.registerOrLogin(context.Background(), googleIdentity("google-sub-4", "frozen@example.com"), "", "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, db.Model(&model.User{}).
		Where("id = ?", resp.User.ID).
		Update("status", constants.UserStatusSuspended).Error)

	_, err = svc.registerOrLogin(context.Background(), googleIdentity("google-sub-4", "frozen@example.com"), "", "127.0.0.1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestOAuthRejectsMissingSubject(t *testing.T) {
	db := newTestDB(t)
	svc := newTestOAuthService(t, db)

	_, err := svc.registerOrLogin(context.Background(), oauthIdentity{Provider: constants.ProviderGoogle}, "", "127.0.0.1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestIdentityFromClaims(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":            "subject-1",
		"email":          "claims@example.com",
		"email_verified": "true", // Apple's string spelling
		"name":           "Claim Holder",
	}

	identity := identityFromClaims(constants.ProviderApple, claims)
	assert.Equal(t, "subject-1", identity.Subject)
	assert.Equal(t, "claims@example.com", identity.Email)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "Claim Holder", identity.Profile["name"])
}

func TestMergeAppleUserBlob(t *testing.T) {
	identity := oauthIdentity{Provider: constants.ProviderApple, Subject: "s"}
	mergeAppleUserBlob(&identity, `{"name":{"firstName":"Ada","lastName":"Lovelace"},"email":"ada@example.com"}`)

	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, "Ada Lovelace", identity.Profile["name"])

	// Malformed blobs are ignored rather than failing the sign-in.
	mergeAppleUserBlob(&identity, "{not json")
	assert.Equal(t, "ada@example.com", identity.Email)
}
