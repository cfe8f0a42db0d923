package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/dto"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/internal/model"
	"github.com/wavelink/authcore/internal/repository"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
	"github.com/wavelink/authcore/pkg/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService orchestrates registration, login, refresh, logout, email
// verification and password reset.
type AuthService struct {
	userRepo     *repository.UserRepository
	tenantRepo   *repository.TenantRepository
	sessionRepo  *repository.SessionRepository
	onetimeRepo  *repository.OneTimeTokenRepository
	gatewayRepo  *repository.GatewayTokenRepository
	tokenService *TokenService
	audit        *AuditService
	mailer       *MailerService

	verifyTTL time.Duration
	resetTTL  time.Duration
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tenantRepo *repository.TenantRepository,
	sessionRepo *repository.SessionRepository,
	onetimeRepo *repository.OneTimeTokenRepository,
	gatewayRepo *repository.GatewayTokenRepository,
	tokenService *TokenService,
	audit *AuditService,
	mailer *MailerService,
	verifyTTL, resetTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tenantRepo:   tenantRepo,
		sessionRepo:  sessionRepo,
		onetimeRepo:  onetimeRepo,
		gatewayRepo:  gatewayRepo,
		tokenService: tokenService,
		audit:        audit,
		mailer:       mailer,
		verifyTTL:    verifyTTL,
		resetTTL:     resetTTL,
	}
}

// InferDeviceType classifies the client-supplied string.
func InferDeviceType(clientName string) string {
	name := strings.ToLower(clientName)
	switch {
	case name == "":
		return constants.DeviceTypeUnknown
	case strings.Contains(name, "ipad") || strings.Contains(name, "tablet"):
		return constants.DeviceTypeTablet
	case strings.Contains(name, "iphone") || strings.Contains(name, "android") || strings.Contains(name, "mobile"):
		return constants.DeviceTypeMobile
	case strings.Contains(name, "windows") || strings.Contains(name, "macintosh") ||
		strings.Contains(name, "linux") || strings.Contains(name, "electron") ||
		strings.Contains(name, "mozilla"):
		return constants.DeviceTypeDesktop
	default:
		return constants.DeviceTypeUnknown
	}
}

// newOpaqueToken returns n random bytes hex encoded.
func newOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            user.ID,
		TenantID:      user.TenantID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Role:          user.Role,
		Status:        user.Status,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}
}

// Register provisions tenant, user and verification token in one
// transaction, then mints a session and queues the verification mail. The
// mail dispatch runs after commit and its failure never rolls registration
// back.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, ip string) (*dto.TokenPairResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Register")

	email := strings.ToLower(strings.TrimSpace(req.Email))

	logger.InfoWithContext(ctx, "Registering new account").
		String("email", email).
		Log()

	if !validation.StrongPassword(req.Password) {
		return nil, apperrors.ErrWeakPassword
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to check email availability").
			String("email", email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if exists {
		return nil, apperrors.ErrEmailExists
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to hash password").
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	verifyToken, err := newOpaqueToken(32)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	tenantName := strings.TrimSpace(req.TenantName)
	if tenantName == "" {
		tenantName = email
	}

	tenant := &model.Tenant{
		Name:     tenantName,
		PlanTier: constants.PlanTierFree,
		Status:   constants.TenantStatusActive,
	}
	user := &model.User{
		Email:        email,
		PasswordHash: &passwordHash,
		Role:         constants.RoleOwner,
		Status:       constants.UserStatusActive,
	}
	verification := &model.EmailVerificationToken{
		Token:     verifyToken,
		ExpiresAt: time.Now().UTC().Add(s.verifyTTL),
	}

	if err := s.userRepo.RegisterUser(ctx, tenant, user, verification); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.audit.Record(ctx, &tenant.ID, &user.ID, constants.AuditActionRegister, constants.AuditStatusSuccess, ip, map[string]any{
		"email": email,
	})

	// Fire and forget: the row is committed, mail delivery is best effort.
	go s.mailer.SendVerification(email, verifyToken, tenant.ID, user.ID)

	response, err := s.CreateSession(ctx, user, req.ClientName, ip)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "Account registered").
		String("email", email).
		String("tenant_id", tenant.ID).
		Log()

	return response, nil
}

// Login authenticates by email and password. Every failure path returns the
// same caller-facing error while the audit trail records the specific
// reason.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.TokenPairResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Login")

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.audit.Record(ctx, nil, nil, constants.AuditActionLogin, constants.AuditStatusFailure, ip, map[string]any{
				"email":  email,
				"reason": constants.AuditReasonUserNotFound,
			})
			return nil, apperrors.ErrInvalidCredentials
		}
		logger.ErrorWithContext(ctx, "Failed to look up user for login").
			String("email", email).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if user.Status != constants.UserStatusActive {
		s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionLogin, constants.AuditStatusFailure, ip, map[string]any{
			"reason": constants.AuditReasonAccountSuspended,
			"status": user.Status,
		})
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.PasswordHash == nil || !checkPassword(*user.PasswordHash, req.Password) {
		s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionLogin, constants.AuditStatusFailure, ip, map[string]any{
			"reason": constants.AuditReasonInvalidPassword,
		})
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, ip); err != nil {
		logger.WarnWithContext(ctx, "Failed to update last login metadata").
			String("user_id", user.ID).
			Err(err).
			Log()
		// Continue even if update fails
	}

	s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionLogin, constants.AuditStatusSuccess, ip, nil)

	response, err := s.CreateSession(ctx, user, req.ClientName, ip)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User logged in").
		String("user_id", user.ID).
		Log()

	return response, nil
}

// CreateSession mints an access+refresh pair, stores only their hashes and
// expiries with client metadata, and returns the raw tokens exactly once.
func (s *AuthService) CreateSession(ctx context.Context, user *model.User, clientName, ip string) (*dto.TokenPairResponse, error) {
	accessToken, accessExpires, err := s.tokenService.GenerateAccessToken(user.ID, user.TenantID, user.Email, user.Role)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to mint access token").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	refreshToken, refreshExpires, err := s.tokenService.GenerateRefreshToken(user.ID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to mint refresh token").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	session := &model.Session{
		UserID:           user.ID,
		TenantID:         user.TenantID,
		AccessTokenHash:  HashToken(accessToken),
		RefreshTokenHash: HashToken(refreshToken),
		AccessExpiresAt:  accessExpires,
		RefreshExpiresAt: refreshExpires,
		IsActive:         true,
		DeviceType:       InferDeviceType(clientName),
		ClientName:       clientName,
		IPAddress:        ip,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store session").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(time.Until(accessExpires).Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// Refresh rotates the token pair. The presented refresh token must hash to
// a live session; the stored hashes are overwritten so the old refresh
// token becomes permanently unusable even though its own exp claim may
// still be in the future.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Refresh")

	if _, err := s.tokenService.VerifyRefreshToken(refreshToken); err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	session, err := s.sessionRepo.GetActiveByRefreshHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.Status != constants.UserStatusActive {
		return nil, apperrors.ErrInvalidToken
	}

	newAccess, accessExpires, err := s.tokenService.GenerateAccessToken(user.ID, user.TenantID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	newRefresh, refreshExpires, err := s.tokenService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.sessionRepo.RotateTokens(ctx, session.ID, HashToken(newAccess), HashToken(newRefresh), accessExpires, refreshExpires); err != nil {
		logger.ErrorWithContext(ctx, "Failed to rotate session tokens").
			String("session_id", session.ID).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionRefresh, constants.AuditStatusSuccess, session.IPAddress, nil)

	logger.InfoWithContext(ctx, "Token pair rotated").
		String("session_id", session.ID).
		String("user_id", user.ID).
		Log()

	return &dto.TokenPairResponse{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		ExpiresIn:    int(time.Until(accessExpires).Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// ValidateAccessToken applies the hybrid check: a valid signature and
// unexpired exp claim are necessary but not sufficient. The token hash must
// also resolve to a session row that is active and unexpired, which makes
// logout and revocation effective despite stateless JWTs.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*model.User, jwt.MapClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidToken
	}

	session, err := s.sessionRepo.GetActiveByAccessHash(ctx, HashToken(accessToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrInvalidToken
		}
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.Status != constants.UserStatusActive {
		return nil, nil, apperrors.ErrInvalidToken
	}

	return user, claims, nil
}

// Logout revokes the session backing the presented access token. Revoking
// an already revoked session is a no-op.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "Logout")

	session, err := s.sessionRepo.GetActiveByAccessHash(ctx, HashToken(accessToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // already revoked or expired: idempotent
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.sessionRepo.Revoke(ctx, session.ID, constants.RevokeReasonLogout); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.audit.Record(ctx, &session.TenantID, &session.UserID, constants.AuditActionLogout, constants.AuditStatusSuccess, session.IPAddress, nil)
	return nil
}

// LogoutAll revokes every active session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "LogoutAll")

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	revoked, err := s.sessionRepo.CountActiveForUser(ctx, userID)
	if err != nil {
		revoked = 0
	}

	if err := s.sessionRepo.RevokeAllForUser(ctx, userID, constants.RevokeReasonLogoutAll); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	// Realtime access dies with the sessions.
	if err := s.gatewayRepo.RevokeAllForUser(ctx, userID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionLogoutAll, constants.AuditStatusSuccess, "", map[string]any{
		"sessions_revoked": revoked,
	})

	logger.InfoWithContext(ctx, "All sessions revoked").
		String("user_id", userID).
		Int64("session_count", revoked).
		Log()
	return nil
}

// VerifyEmail consumes a single-use verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "VerifyEmail")

	row, err := s.onetimeRepo.GetVerification(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if row.UsedAt != nil {
		return apperrors.ErrTokenUsed
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		return apperrors.ErrInvalidToken
	}

	if err := s.onetimeRepo.MarkVerificationUsed(ctx, row.ID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.userRepo.MarkEmailVerified(ctx, row.UserID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user, err := s.userRepo.GetByID(ctx, row.UserID)
	if err == nil {
		s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionVerifyEmail, constants.AuditStatusSuccess, "", nil)
	}
	return nil
}

// ResendVerification issues a fresh verification token for an unverified
// account. Like the reset request, it answers uniformly.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "ResendVerification")

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // uniform response, no enumeration
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user.EmailVerified {
		return nil
	}

	token, err := newOpaqueToken(32)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	verification := &model.EmailVerificationToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.verifyTTL),
	}
	if err := s.onetimeRepo.CreateVerification(ctx, verification); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	go s.mailer.SendVerification(user.Email, token, user.TenantID, user.ID)
	return nil
}

// RequestPasswordReset issues a reset token when the account exists. The
// response is identical either way; the uniform answer is a hard contract
// that prevents account enumeration, not an optimization.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "RequestPasswordReset")

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.ErrorWithContext(ctx, "Password reset lookup failed").
				Err(err).
				Log()
		}
		return nil
	}

	token, err := newOpaqueToken(32)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to mint reset token").
			Err(err).
			Log()
		return nil
	}

	reset := &model.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.resetTTL),
	}
	if err := s.onetimeRepo.CreateReset(ctx, reset); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store reset token").
			String("user_id", user.ID).
			Err(err).
			Log()
		return nil
	}

	go s.mailer.SendPasswordReset(user.Email, token, user.TenantID, user.ID)
	return nil
}

// ConfirmPasswordReset consumes the reset token, replaces the password and
// revokes every session of the user, forcing re-login everywhere.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "ConfirmPasswordReset")

	if !validation.StrongPassword(newPassword) {
		return apperrors.ErrWeakPassword
	}

	row, err := s.onetimeRepo.GetReset(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if row.UsedAt != nil {
		return apperrors.ErrTokenUsed
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		return apperrors.ErrInvalidToken
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.onetimeRepo.MarkResetUsed(ctx, row.ID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.userRepo.UpdatePassword(ctx, row.UserID, passwordHash); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.sessionRepo.RevokeAllForUser(ctx, row.UserID, constants.RevokeReasonPasswordReset); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.gatewayRepo.RevokeAllForUser(ctx, row.UserID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user, err := s.userRepo.GetByID(ctx, row.UserID)
	if err == nil {
		s.audit.Record(ctx, &user.TenantID, &user.ID, constants.AuditActionPasswordReset, constants.AuditStatusSuccess, "", nil)
	}

	logger.InfoWithContext(ctx, "Password reset completed, all sessions revoked").
		String("user_id", row.UserID).
		Log()
	return nil
}

// CheckUser is the existence probe used for UX routing.
func (s *AuthService) CheckUser(ctx context.Context, email string) (bool, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return exists, nil
}

// Profile returns the current user. The password hash never leaves the
// service layer.
func (s *AuthService) Profile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// DeleteAccount removes the user with every session, link and token behind
// it. When the owner leaves, the tenant is soft deleted with them.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "DeleteAccount")

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUnauthorized
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if user.Role == constants.RoleOwner {
		if err := s.tenantRepo.SoftDelete(ctx, user.TenantID); err != nil {
			return apperrors.WrapError(apperrors.ErrInternal, err)
		}
	}

	logger.InfoWithContext(ctx, "Account deleted").
		String("user_id", userID).
		String("tenant_id", user.TenantID).
		Log()
	return nil
}
