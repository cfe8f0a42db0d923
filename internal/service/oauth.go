package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/dto"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/internal/model"
	"github.com/wavelink/authcore/internal/repository"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// oauthIdentity is the provider-neutral result of a verified sign-in.
type oauthIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Profile       map[string]any

	ProviderAccessToken  string
	ProviderRefreshToken string
}

// OAuthService turns verified provider identities into local accounts and
// sessions.
type OAuthService struct {
	userRepo *repository.UserRepository
	linkRepo *repository.OAuthLinkRepository
	auth     *AuthService
	audit    *AuditService
	google   *GoogleProvider
	apple    *AppleProvider
}

func NewOAuthService(
	userRepo *repository.UserRepository,
	linkRepo *repository.OAuthLinkRepository,
	auth *AuthService,
	audit *AuditService,
	google *GoogleProvider,
	apple *AppleProvider,
) *OAuthService {
	return &OAuthService{
		userRepo: userRepo,
		linkRepo: linkRepo,
		auth:     auth,
		audit:    audit,
		google:   google,
		apple:    apple,
	}
}

func (s *OAuthService) GoogleAuthURL(state string) (string, error) {
	if !s.google.Configured() {
		return "", apperrors.ErrNotConfigured
	}
	return s.google.AuthURL(state), nil
}

func (s *OAuthService) AppleAuthURL(state string) (string, error) {
	if !s.apple.Configured() {
		return "", apperrors.ErrNotConfigured
	}
	return s.apple.AuthURL(state), nil
}

// HandleGoogleCallback exchanges the authorization code, verifies the
// identity token and resolves the local account.
func (s *OAuthService) HandleGoogleCallback(ctx context.Context, req *dto.GoogleCallbackRequest, ip string) (*dto.TokenPairResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "HandleGoogleCallback")

	if !s.google.Configured() {
		return nil, apperrors.ErrNotConfigured
	}

	tokens, err := s.google.Exchange(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	claims, err := s.google.VerifyIDToken(ctx, tokens.IDToken)
	if err != nil {
		return nil, err
	}

	identity := identityFromClaims(constants.ProviderGoogle, claims)
	identity.ProviderAccessToken = tokens.AccessToken
	identity.ProviderRefreshToken = tokens.RefreshToken

	return s.registerOrLogin(ctx, identity, req.ClientName, ip)
}

// HandleAppleCallback processes Apple's form_post redirect. The optional
// user blob arrives exactly once, on first authorization, and is folded
// into the stored profile.
func (s *OAuthService) HandleAppleCallback(ctx context.Context, req *dto.AppleCallbackRequest, ip string) (*dto.TokenPairResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "HandleAppleCallback")

	if !s.apple.Configured() {
		return nil, apperrors.ErrNotConfigured
	}

	tokens, err := s.apple.Exchange(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	claims, err := s.apple.VerifyIDToken(ctx, tokens.IDToken)
	if err != nil {
		return nil, err
	}

	identity := identityFromClaims(constants.ProviderApple, claims)
	identity.ProviderAccessToken = tokens.AccessToken
	identity.ProviderRefreshToken = tokens.RefreshToken
	mergeAppleUserBlob(&identity, req.User)

	return s.registerOrLogin(ctx, identity, req.ClientName, ip)
}

// HandleAppleNative accepts an identity token obtained by the native Apple
// SDK. No code exchange happens; verification against Apple's key set is
// the whole trust decision.
func (s *OAuthService) HandleAppleNative(ctx context.Context, req *dto.AppleNativeRequest, ip string) (*dto.TokenPairResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "HandleAppleNative")

	if !s.apple.Configured() {
		return nil, apperrors.ErrNotConfigured
	}

	claims, err := s.apple.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}

	identity := identityFromClaims(constants.ProviderApple, claims)
	mergeAppleUserBlob(&identity, req.User)

	return s.registerOrLogin(ctx, identity, req.ClientName, ip)
}

// registerOrLogin applies the resolution order: an existing provider link
// wins outright; otherwise a user with the same provider-verified email
// gets the link attached; otherwise a fresh tenant and user are
// provisioned. The
// provider's subject, not the email, is the durable identity.
func (s *OAuthService) registerOrLogin(ctx context.Context, identity oauthIdentity, clientName, ip string) (*dto.TokenPairResponse, error) {
	if identity.Subject == "" {
		return nil, apperrors.ErrInvalidToken
	}
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))

	link, err := s.linkRepo.GetByProviderSubject(ctx, identity.Provider, identity.Subject)
	switch {
	case err == nil:
		return s.loginLinked(ctx, link, identity, clientName, ip)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to email match or provisioning
	default:
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if identity.Email != "" {
		user, err := s.userRepo.GetByEmail(ctx, identity.Email)
		switch {
		case err == nil:
			// Only a provider-verified address may claim an existing
			// account. An unverified assertion of someone else's email must
			// not attach a login path to that account.
			if !identity.EmailVerified {
				s.audit.Record(ctx, &user.TenantID, nil, constants.AuditActionOAuthLogin, constants.AuditStatusFailure, ip, map[string]any{
					"provider": identity.Provider,
					"reason":   "unverified_email_collision",
				})
				return nil, apperrors.ErrEmailExists
			}
			return s.attachLink(ctx, user, identity, clientName, ip)
		case errors.Is(err, gorm.ErrRecordNotFound):
			// no local account yet
		default:
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	return s.provision(ctx, identity, clientName, ip)
}

func (s *OAuthService) loginLinked(ctx context.Context, link *model.OAuthProviderLink, identity oauthIdentity, clientName, ip string) (*dto.TokenPairResponse, error) {
	user, err := s.userRepo.GetByID(ctx, link.UserID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.Status != constants.UserStatusActive {
		s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionOAuthLogin, constants.AuditStatusFailure, ip, map[string]any{
			"provider": identity.Provider,
			"reason":   constants.AuditReasonAccountSuspended,
		})
		return nil, apperrors.ErrInvalidCredentials
	}

	if identity.ProviderAccessToken != "" {
		if err := s.linkRepo.UpdateProviderTokens(ctx, link.ID, identity.ProviderAccessToken, identity.ProviderRefreshToken); err != nil {
			logger.WarnWithContext(ctx, "Failed to refresh provider token snapshot").
				String("link_id", link.ID).
				Err(err).
				Log()
		}
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, ip); err != nil {
		logger.WarnWithContext(ctx, "Failed to update last login metadata").
			String("user_id", user.ID).
			Err(err).
			Log()
	}

	s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionOAuthLogin, constants.AuditStatusSuccess, ip, map[string]any{
		"provider": identity.Provider,
	})
	return s.auth.CreateSession(ctx, user, clientName, ip)
}

func (s *OAuthService) attachLink(ctx context.Context, user *model.User, identity oauthIdentity, clientName, ip string) (*dto.TokenPairResponse, error) {
	if user.Status != constants.UserStatusActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	link := &model.OAuthProviderLink{
		UserID:         user.ID,
		Provider:       identity.Provider,
		ProviderUserID: identity.Subject,
		AccessToken:    identity.ProviderAccessToken,
		RefreshToken:   identity.ProviderRefreshToken,
		Profile:        marshalProfile(identity.Profile),
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// The provider vouched for this address, so a matched account becomes
	// verified even if the password flow never confirmed it.
	if identity.EmailVerified && !user.EmailVerified {
		if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
			logger.WarnWithContext(ctx, "Failed to promote email verification").
				String("user_id", user.ID).
				Err(err).
				Log()
		} else {
			user.EmailVerified = true
		}
	}
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, ip); err != nil {
		logger.WarnWithContext(ctx, "Failed to update last login metadata").
			String("user_id", user.ID).
			Err(err).
			Log()
	}

	s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionOAuthLogin, constants.AuditStatusSuccess, ip, map[string]any{
		"provider": identity.Provider,
		"linked":   true,
	})
	return s.auth.CreateSession(ctx, user, clientName, ip)
}

func (s *OAuthService) provision(ctx context.Context, identity oauthIdentity, clientName, ip string) (*dto.TokenPairResponse, error) {
	tenantName := identity.Email
	if tenantName == "" {
		tenantName = identity.Provider + ":" + identity.Subject
	}

	tenant := &model.Tenant{
		Name:     tenantName,
		PlanTier: constants.PlanTierFree,
		Status:   constants.TenantStatusActive,
	}
	user := &model.User{
		Email:         identity.Email,
		PasswordHash:  nil, // provider-only account until a reset sets one
		EmailVerified: identity.EmailVerified,
		Role:          constants.RoleOwner,
		Status:        constants.UserStatusActive,
	}
	link := &model.OAuthProviderLink{
		Provider:       identity.Provider,
		ProviderUserID: identity.Subject,
		AccessToken:    identity.ProviderAccessToken,
		RefreshToken:   identity.ProviderRefreshToken,
		Profile:        marshalProfile(identity.Profile),
	}

	if err := s.userRepo.RegisterOAuthUser(ctx, tenant, user, link); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.audit.Record(ctx, &tenant.ID, &user.ID, constants.AuditActionOAuthLogin, constants.AuditStatusSuccess, ip, map[string]any{
		"provider":    identity.Provider,
		"provisioned": true,
	})

	logger.InfoWithContext(ctx, "Provisioned account from provider identity").
		String("provider", identity.Provider).
		String("tenant_id", tenant.ID).
		Log()

	return s.auth.CreateSession(ctx, user, clientName, ip)
}

// identityFromClaims lifts the provider-agnostic fields out of a verified
// identity token.
func identityFromClaims(provider string, claims jwt.MapClaims) oauthIdentity {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)

	// Apple encodes email_verified as the string "true"; Google uses a
	// real boolean.
	verified := false
	switch v := claims["email_verified"].(type) {
	case bool:
		verified = v
	case string:
		verified = v == "true"
	}

	profile := map[string]any{}
	for _, key := range []string{"name", "given_name", "family_name", "picture", "locale"} {
		if val, ok := claims[key]; ok {
			profile[key] = val
		}
	}

	return oauthIdentity{
		Provider:      provider,
		Subject:       sub,
		Email:         email,
		EmailVerified: verified,
		Profile:       profile,
	}
}

// mergeAppleUserBlob folds Apple's one-time user payload into the identity.
func mergeAppleUserBlob(identity *oauthIdentity, raw string) {
	if raw == "" {
		return
	}
	var payload dto.AppleUserPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return
	}
	if payload.Email != "" && identity.Email == "" {
		identity.Email = payload.Email
	}
	name := strings.TrimSpace(payload.Name.FirstName + " " + payload.Name.LastName)
	if name != "" {
		if identity.Profile == nil {
			identity.Profile = map[string]any{}
		}
		identity.Profile["name"] = name
	}
}

func marshalProfile(profile map[string]any) datatypes.JSON {
	if len(profile) == 0 {
		return nil
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
