package repository

import (
	"context"

	"github.com/wavelink/authcore/internal/model"
	"gorm.io/gorm"
)

type OAuthLinkRepository struct {
	db *gorm.DB
}

func NewOAuthLinkRepository(db *gorm.DB) *OAuthLinkRepository {
	return &OAuthLinkRepository{db: db}
}

func (r *OAuthLinkRepository) GetByProviderSubject(ctx context.Context, provider, providerUserID string) (*model.OAuthProviderLink, error) {
	var link model.OAuthProviderLink
	result := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&link)
	if result.Error != nil {
		return nil, result.Error
	}
	return &link, nil
}

func (r *OAuthLinkRepository) Create(ctx context.Context, link *model.OAuthProviderLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// UpdateProviderTokens refreshes the stored provider credential snapshot
// after a repeat sign-in.
func (r *OAuthLinkRepository) UpdateProviderTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	updates := map[string]any{"access_token": accessToken}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}
	return r.db.WithContext(ctx).Model(&model.OAuthProviderLink{}).
		Where("id = ?", id).Updates(updates).Error
}

func (r *OAuthLinkRepository) ListForUser(ctx context.Context, userID string) ([]model.OAuthProviderLink, error) {
	var links []model.OAuthProviderLink
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&links)
	return links, result.Error
}
