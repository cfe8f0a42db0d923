package repository

import (
	"context"
	"time"

	"github.com/wavelink/authcore/internal/model"
	"gorm.io/gorm"
)

type GatewayTokenRepository struct {
	db *gorm.DB
}

func NewGatewayTokenRepository(db *gorm.DB) *GatewayTokenRepository {
	return &GatewayTokenRepository{db: db}
}

func (r *GatewayTokenRepository) Create(ctx context.Context, token *model.GatewayToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetValid returns the row only while expires_at > now and revoked_at is
// null. A revoked or expired token is indistinguishable from an unknown
// one.
func (r *GatewayTokenRepository) GetValid(ctx context.Context, token string) (*model.GatewayToken, error) {
	var row model.GatewayToken
	result := r.db.WithContext(ctx).
		Where("token = ? AND expires_at > ? AND revoked_at IS NULL", token, time.Now().UTC()).
		First(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	return &row, nil
}

func (r *GatewayTokenRepository) Revoke(ctx context.Context, token string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.GatewayToken{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Update("revoked_at", now).Error
}

func (r *GatewayTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.GatewayToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}
