package repository

import (
	"context"
	"time"

	"github.com/wavelink/authcore/internal/model"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetActiveByAccessHash finds the live session backing an access token.
// The row must be active and its access expiry in the future; this lookup
// is what makes revocation effective despite stateless JWTs.
func (r *SessionRepository) GetActiveByAccessHash(ctx context.Context, hash string) (*model.Session, error) {
	var session model.Session
	result := r.db.WithContext(ctx).
		Where("access_token_hash = ? AND is_active = ? AND access_expires_at > ?", hash, true, time.Now().UTC()).
		First(&session)
	if result.Error != nil {
		return nil, result.Error
	}
	return &session, nil
}

func (r *SessionRepository) GetActiveByRefreshHash(ctx context.Context, hash string) (*model.Session, error) {
	var session model.Session
	result := r.db.WithContext(ctx).
		Where("refresh_token_hash = ? AND is_active = ? AND refresh_expires_at > ?", hash, true, time.Now().UTC()).
		First(&session)
	if result.Error != nil {
		return nil, result.Error
	}
	return &session, nil
}

// RotateTokens overwrites the stored hashes and expiries in place. The old
// refresh hash is destroyed and becomes permanently unusable regardless of
// the old JWT's own exp claim.
func (r *SessionRepository) RotateTokens(ctx context.Context, id string, accessHash, refreshHash string, accessExpires, refreshExpires time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Session{}).Where("id = ?", id).
		Updates(map[string]any{
			"access_token_hash":  accessHash,
			"refresh_token_hash": refreshHash,
			"access_expires_at":  accessExpires,
			"refresh_expires_at": refreshExpires,
		}).Error
}

// Revoke flips the session inactive. Revoking an already revoked session is
// a no-op, which keeps logout idempotent.
func (r *SessionRepository) Revoke(ctx context.Context, id string, reason string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":     false,
			"revoked_at":    now,
			"revoke_reason": reason,
		}).Error
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, reason string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]any{
			"is_active":     false,
			"revoked_at":    now,
			"revoke_reason": reason,
		}).Error
}

func (r *SessionRepository) CountActiveForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("user_id = ? AND is_active = ? AND refresh_expires_at > ?", userID, true, time.Now().UTC()).
		Count(&count)
	return count, result.Error
}
