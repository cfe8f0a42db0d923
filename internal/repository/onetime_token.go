package repository

import (
	"context"
	"time"

	"github.com/wavelink/authcore/internal/model"
	"gorm.io/gorm"
)

// OneTimeTokenRepository persists email verification and password reset
// tokens. Both are single-use: used_at enforces one-time consumption.
type OneTimeTokenRepository struct {
	db *gorm.DB
}

func NewOneTimeTokenRepository(db *gorm.DB) *OneTimeTokenRepository {
	return &OneTimeTokenRepository{db: db}
}

func (r *OneTimeTokenRepository) CreateVerification(ctx context.Context, token *model.EmailVerificationToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *OneTimeTokenRepository) GetVerification(ctx context.Context, token string) (*model.EmailVerificationToken, error) {
	var row model.EmailVerificationToken
	result := r.db.WithContext(ctx).Where("token = ?", token).First(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	return &row, nil
}

func (r *OneTimeTokenRepository) MarkVerificationUsed(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.EmailVerificationToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now).Error
}

func (r *OneTimeTokenRepository) CreateReset(ctx context.Context, token *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *OneTimeTokenRepository) GetReset(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	var row model.PasswordResetToken
	result := r.db.WithContext(ctx).Where("token = ?", token).First(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	return &row, nil
}

func (r *OneTimeTokenRepository) MarkResetUsed(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now).Error
}
