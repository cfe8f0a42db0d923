package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wavelink/authcore/config"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/pkg/httpclient"
)

const (
	appleAuthEndpoint  = "https://appleid.apple.com/auth/authorize"
	appleTokenEndpoint = "https://appleid.apple.com/auth/token"
	appleJWKSEndpoint  = "https://appleid.apple.com/auth/keys"
	appleIssuer        = "https://appleid.apple.com"
)

// AppleProvider implements Sign in with Apple. Unlike Google, the client
// secret is not static: it is an ES256 JWT signed with the developer key
// and minted per token-exchange call.
type AppleProvider struct {
	teamID      string
	keyID       string
	clientID    string
	privateKey  string
	redirectURL string
	keys        *JWKSCache
}

func NewAppleProvider(cfg config.AppleOAuthConfig) *AppleProvider {
	return &AppleProvider{
		teamID:      cfg.TeamID,
		keyID:       cfg.KeyID,
		clientID:    cfg.ClientID,
		privateKey:  cfg.PrivateKey,
		redirectURL: cfg.RedirectURL,
		keys:        NewJWKSCache(appleJWKSEndpoint),
	}
}

func (p *AppleProvider) Configured() bool {
	return p.teamID != "" && p.keyID != "" && p.clientID != "" && p.privateKey != ""
}

// AuthURL builds the authorization redirect. Apple delivers the callback as
// a form_post when name or email scopes are requested.
func (p *AppleProvider) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", p.clientID)
	params.Set("redirect_uri", p.redirectURL)
	params.Set("response_type", "code id_token")
	params.Set("response_mode", "form_post")
	params.Set("scope", "name email")
	params.Set("state", state)
	return appleAuthEndpoint + "?" + params.Encode()
}

// clientSecret mints the short-lived ES256 assertion Apple requires in
// place of a fixed secret.
func (p *AppleProvider) clientSecret() (string, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(p.privateKey))
	if err != nil {
		return "", fmt.Errorf("parsing apple signing key: %w", err)
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": p.teamID,
		"sub": p.clientID,
		"aud": appleIssuer,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	token.Header["kid"] = p.keyID
	return token.SignedString(key)
}

type appleTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Exchange trades the authorization code for Apple's token set.
func (p *AppleProvider) Exchange(ctx context.Context, code string) (*appleTokenResponse, error) {
	secret, err := p.clientSecret()
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", secret)
	form.Set("redirect_uri", p.redirectURL)
	form.Set("grant_type", "authorization_code")

	body, status, err := httpclient.DoWithRetry(ctx, httpclient.RequestConfig{
		Method:     "POST",
		URL:        appleTokenEndpoint,
		Form:       form,
		Timeout:    15 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if status != 200 {
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken,
			fmt.Errorf("apple token endpoint returned status %d", status))
	}

	var tokens appleTokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if tokens.IDToken == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return &tokens, nil
}

// VerifyIDToken validates signature, issuer and audience of an Apple
// identity token. Used for both the redirect callback and the native SDK
// flow, where the client hands over the identity token directly.
func (p *AppleProvider) VerifyIDToken(ctx context.Context, idToken string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, p.keys.Keyfunc(ctx),
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(p.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}
	return claims, nil
}
