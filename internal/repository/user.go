package repository

import (
	"context"
	"strings"
	"time"

	"github.com/wavelink/authcore/internal/model"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

// GetByEmail looks a user up case-insensitively. Emails are stored
// lowercased, so normalizing the probe is sufficient.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	normalized := strings.ToLower(strings.TrimSpace(email))
	result := r.db.WithContext(ctx).Where("email = ?", normalized).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	normalized := strings.ToLower(strings.TrimSpace(email))
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", normalized).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// RegisterUser provisions a tenant, its first user and an email
// verification token in one transaction. Any failure rolls back all three
// rows.
func (r *UserRepository) RegisterUser(ctx context.Context, tenant *model.Tenant, user *model.User, verification *model.EmailVerificationToken) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "RegisterUser")

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		user.TenantID = tenant.ID
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if verification != nil {
			verification.UserID = user.ID
			if err := tx.Create(verification).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		logger.ErrorWithContext(ctx, "Registration transaction failed").
			String("email", user.Email).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return err
	}

	logger.DebugWithContext(ctx, "Registration transaction committed").
		String("tenant_id", tenant.ID).
		Duration(time.Since(start)).
		Log()
	return nil
}

// RegisterOAuthUser provisions tenant, user and provider link atomically
// for a first-time federated sign-in.
func (r *UserRepository) RegisterOAuthUser(ctx context.Context, tenant *model.Tenant, user *model.User, link *model.OAuthProviderLink) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "RegisterOAuthUser")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		user.TenantID = tenant.ID
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		link.UserID = user.ID
		return tx.Create(link).Error
	})
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ip string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"last_login_at": now,
			"last_login_ip": ip,
		}).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("email_verified", true).Error
}

// Delete removes the user; sessions, provider links and one-time tokens
// cascade with it.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.OAuthProviderLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.EmailVerificationToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.GatewayToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.User{}).Error
	})
}
