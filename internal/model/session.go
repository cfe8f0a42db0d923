package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session represents one issued token pair. Only SHA-256 hashes of the
// access and refresh tokens are stored, each with its own expiry, so a
// stolen database row cannot be replayed as a credential. Multiple active
// sessions per user are valid (multi-device).
type Session struct {
	ID               string     `gorm:"column:id;type:uuid;primaryKey"`
	UserID           string     `gorm:"column:user_id;type:uuid;not null;index"`
	TenantID         string     `gorm:"column:tenant_id;type:uuid;not null;index"`
	AccessTokenHash  string     `gorm:"column:access_token_hash;not null;index"`
	RefreshTokenHash string     `gorm:"column:refresh_token_hash;not null;index"`
	AccessExpiresAt  time.Time  `gorm:"column:access_expires_at;not null"`
	RefreshExpiresAt time.Time  `gorm:"column:refresh_expires_at;not null"`
	IsActive         bool       `gorm:"column:is_active;not null;default:true"`
	RevokedAt        *time.Time `gorm:"column:revoked_at"`
	RevokeReason     string     `gorm:"column:revoke_reason"`
	DeviceType       string     `gorm:"column:device_type"`
	ClientName       string     `gorm:"column:client_name"`
	IPAddress        string     `gorm:"column:ip_address"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
