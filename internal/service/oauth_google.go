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
	googleAuthEndpoint  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenEndpoint = "https://oauth2.googleapis.com/token"
	googleJWKSEndpoint  = "https://www.googleapis.com/oauth2/v3/certs"
	googleIssuer        = "https://accounts.google.com"
)

// GoogleProvider implements the authorization-code flow against Google's
// OAuth endpoints and verifies the returned identity token locally against
// Google's published key set.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	keys         *JWKSCache
}

func NewGoogleProvider(cfg config.GoogleOAuthConfig) *GoogleProvider {
	return &GoogleProvider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
		keys:         NewJWKSCache(googleJWKSEndpoint),
	}
}

func (p *GoogleProvider) Configured() bool {
	return p.clientID != "" && p.clientSecret != "" && p.redirectURL != ""
}

// AuthURL builds the consent-screen redirect target.
func (p *GoogleProvider) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", p.clientID)
	params.Set("redirect_uri", p.redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("access_type", "offline")
	params.Set("state", state)
	return googleAuthEndpoint + "?" + params.Encode()
}

type googleTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Exchange trades the authorization code for Google's token set.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*googleTokenResponse, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", p.redirectURL)
	form.Set("grant_type", "authorization_code")

	body, status, err := httpclient.DoWithRetry(ctx, httpclient.RequestConfig{
		Method:     "POST",
		URL:        googleTokenEndpoint,
		Form:       form,
		Timeout:    15 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if status != 200 {
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken,
			fmt.Errorf("google token endpoint returned status %d", status))
	}

	var tokens googleTokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if tokens.IDToken == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return &tokens, nil
}

// VerifyIDToken validates signature, issuer and audience of the identity
// token and returns its claims.
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, idToken string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, p.keys.Keyfunc(ctx),
		jwt.WithAudience(p.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	// Google issues tokens under two equivalent issuer spellings.
	iss, _ := claims["iss"].(string)
	if iss != googleIssuer && iss != "accounts.google.com" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
