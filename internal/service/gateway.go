package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"time"

	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/dto"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/internal/model"
	"github.com/wavelink/authcore/internal/repository"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
	"gorm.io/gorm"
)

// Dynamic gateway tokens are 32 random bytes hex encoded, so exactly 64
// lowercase hex characters on the wire.
var gatewayTokenShape = regexp.MustCompile(`^[0-9a-f]{64}$`)

// GatewayService issues and validates the opaque short-lived tokens that
// realtime infrastructure accepts in place of JWTs.
type GatewayService struct {
	repo         *repository.GatewayTokenRepository
	audit        *AuditService
	ttl          time.Duration
	staticSecret string
}

func NewGatewayService(repo *repository.GatewayTokenRepository, audit *AuditService, ttl time.Duration, staticSecret string) *GatewayService {
	return &GatewayService{
		repo:         repo,
		audit:        audit,
		ttl:          ttl,
		staticSecret: staticSecret,
	}
}

// Exchange trades an already-authorized session for a fresh opaque token.
// The caller's access token has passed the hybrid check before this runs.
func (s *GatewayService) Exchange(ctx context.Context, userID, tenantID, ip string) (*dto.GatewayTokenResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "GatewayExchange")

	raw, err := newOpaqueToken(32)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	row := &model.GatewayToken{
		Token:     raw,
		UserID:    userID,
		TenantID:  tenantID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store gateway token").
			String("user_id", userID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.audit.Record(ctx, &tenantID, &userID, constants.AuditActionGatewayExchange, constants.AuditStatusSuccess, ip, nil)

	return &dto.GatewayTokenResponse{
		Token:     raw,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// Validate runs the ordered chain. A token matching the dynamic shape is
// decided by the store alone: a lookup failure rejects rather than falling
// through, so an unreachable store can never be talked around with a
// well-formed token. Anything else is compared against the static secret in
// constant time, and an unset secret rejects.
func (s *GatewayService) Validate(ctx context.Context, token string) *dto.GatewayValidateResponse {
	ctx = ctxutil.WithOperation(ctx, "service", "GatewayValidate")

	if token == "" {
		return &dto.GatewayValidateResponse{Valid: false}
	}

	if gatewayTokenShape.MatchString(token) {
		row, err := s.repo.GetValid(ctx, token)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.ErrorWithContext(ctx, "Gateway token lookup failed, rejecting").
					Err(err).
					Log()
				return &dto.GatewayValidateResponse{Valid: false}
			}
			// Unknown, expired or revoked: fall through to the static
			// comparison, the shape alone proves nothing.
		} else {
			return &dto.GatewayValidateResponse{
				Valid:    true,
				UserID:   row.UserID,
				TenantID: row.TenantID,
			}
		}
	}

	if s.staticSecret == "" {
		return &dto.GatewayValidateResponse{Valid: false}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.staticSecret)) == 1 {
		return &dto.GatewayValidateResponse{Valid: true}
	}
	return &dto.GatewayValidateResponse{Valid: false}
}

// Revoke invalidates a single gateway token ahead of its expiry.
func (s *GatewayService) Revoke(ctx context.Context, token string) error {
	if err := s.repo.Revoke(ctx, token); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// RevokeAllForUser is called alongside session revocation so realtime
// access dies with the login.
func (s *GatewayService) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}
