package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GatewayToken is an opaque random credential bound to (user, tenant) and
// consumed by the realtime connection authority. It is cryptographically
// unrelated to any JWT: possession of the JWT does not let a party derive
// or forge this value. Valid only while expires_at > now and revoked_at is
// null.
type GatewayToken struct {
	ID        string     `gorm:"column:id;type:uuid;primaryKey"`
	Token     string     `gorm:"column:token;uniqueIndex;not null"`
	UserID    string     `gorm:"column:user_id;type:uuid;not null;index"`
	TenantID  string     `gorm:"column:tenant_id;type:uuid;not null;index"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (t *GatewayToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
