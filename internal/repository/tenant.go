package repository

import (
	"context"

	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/model"
	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant)
	if result.Error != nil {
		return nil, result.Error
	}
	return &tenant, nil
}

// SoftDelete marks the tenant deleted. Tenant rows are never hard-deleted.
func (r *TenantRepository) SoftDelete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", id).
		Update("status", constants.TenantStatusDeleted).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Tenant{}).Error
}
