package database

import (
	"github.com/wavelink/authcore/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.OAuthProviderLink{},
		&model.Session{},
		&model.EmailVerificationToken{},
		&model.PasswordResetToken{},
		&model.GatewayToken{},
		&model.AuditLogEntry{},
	)
}
