package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLogEntry is append-only. Tenant and user linkage is nullable so
// pre-auth failures (unknown email, malformed token) can still be recorded.
type AuditLogEntry struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  *string        `gorm:"column:tenant_id;type:uuid;index"`
	UserID    *string        `gorm:"column:user_id;type:uuid;index"`
	Action    string         `gorm:"column:action;not null;index"`
	Status    string         `gorm:"column:status;not null"`
	IPAddress string         `gorm:"column:ip_address"`
	Metadata  datatypes.JSON `gorm:"column:metadata"`
	CreatedAt time.Time      `gorm:"index"`
}

func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
