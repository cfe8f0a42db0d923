package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant is the isolation boundary owning users and their data. Tenants are
// soft-deleted only.
type Tenant struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	PlanTier  string         `gorm:"column:plan_tier;not null;default:free"`
	Status    string         `gorm:"column:status;not null;default:active"`
	Limits    datatypes.JSON `gorm:"column:limits"`
	Settings  datatypes.JSON `gorm:"column:settings"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
