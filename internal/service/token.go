package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wavelink/authcore/internal/constants"
)

// TokenService mints and verifies the two JWT classes. Each class has its
// own signing secret, so a structurally valid refresh token can never pass
// access verification even if the verification code is shared.
type TokenService struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// GenerateAccessToken creates a short-lived access token carrying subject,
// tenant, email, role and the literal type discriminator.
func (s *TokenService) GenerateAccessToken(userID, tenantID, email, role string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.accessTTL)

	// jti keeps same-second mints for one subject distinct, so every
	// session row hashes to a unique token.
	claims := jwt.MapClaims{
		"sub":       userID,
		"tenant_id": tenantID,
		"email":     email,
		"role":      role,
		"type":      constants.TokenTypeAccess,
		"jti":       uuid.NewString(),
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.accessSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// GenerateRefreshToken creates a long-lived refresh token carrying only the
// subject and the type discriminator.
func (s *TokenService) GenerateRefreshToken(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.refreshTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"type": constants.TokenTypeRefresh,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.refreshSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature, expiry and the type discriminator. A
// token signed with the right key but carrying the wrong type is rejected.
func (s *TokenService) VerifyAccessToken(tokenString string) (jwt.MapClaims, error) {
	return s.verify(tokenString, s.accessSecret, constants.TokenTypeAccess)
}

// VerifyRefreshToken is the refresh-class counterpart of VerifyAccessToken.
func (s *TokenService) VerifyRefreshToken(tokenString string) (jwt.MapClaims, error) {
	return s.verify(tokenString, s.refreshSecret, constants.TokenTypeRefresh)
}

func (s *TokenService) verify(tokenString, secret, expectedType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != expectedType {
		return nil, errors.New("unexpected token type")
	}

	return claims, nil
}

// DecodeUnverified parses claims without checking the signature. Exposed
// for diagnostics only; never an input to authorization decisions.
func (s *TokenService) DecodeUnverified(tokenString string) (jwt.MapClaims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IsExpired reports whether the decoded exp claim is in the past.
func IsExpired(claims jwt.MapClaims, now time.Time) bool {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return now.Unix() >= int64(exp)
}

// HashToken returns the SHA-256 hex digest of a raw token. Sessions store
// only these digests, never the tokens themselves, and the digest is the
// lookup key for the hybrid validation check.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
