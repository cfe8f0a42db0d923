package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User belongs to exactly one tenant. PasswordHash is nullable for
// OAuth-only accounts and is write-only: it never leaves the service layer.
// Emails are stored lowercased so the unique index enforces
// case-insensitive uniqueness across all tenants.
type User struct {
	ID            string     `gorm:"column:id;type:uuid;primaryKey"`
	TenantID      string     `gorm:"column:tenant_id;type:uuid;not null;index"`
	Email         string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  *string    `gorm:"column:password_hash"`
	EmailVerified bool       `gorm:"column:email_verified;not null;default:false"`
	Role          string     `gorm:"column:role;not null;default:owner"`
	Status        string     `gorm:"column:status;not null;default:active"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`
	LastLoginIP   string     `gorm:"column:last_login_ip"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Tenant Tenant `gorm:"foreignKey:TenantID"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
