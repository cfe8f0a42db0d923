package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OAuthProviderLink maps a (provider, provider_user_id) pair to exactly one
// user. A user may hold one link per provider; a pair is never shared
// across users.
type OAuthProviderLink struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey"`
	UserID         string         `gorm:"column:user_id;type:uuid;not null;index"`
	Provider       string         `gorm:"column:provider;not null;uniqueIndex:idx_provider_subject"`
	ProviderUserID string         `gorm:"column:provider_user_id;not null;uniqueIndex:idx_provider_subject"`
	AccessToken    string         `gorm:"column:access_token"`
	RefreshToken   string         `gorm:"column:refresh_token"`
	Profile        datatypes.JSON `gorm:"column:profile"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (l *OAuthProviderLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
