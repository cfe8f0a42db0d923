package constants

// Application metadata
const (
	AppVersion = "1.0.0"
)

// User roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User statuses
const (
	UserStatusActive      = "active"
	UserStatusSuspended   = "suspended"
	UserStatusDeactivated = "deactivated"
	UserStatusDeleted     = "deleted"
)

// Tenant statuses and plan tiers
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusDeleted   = "deleted"

	PlanTierFree = "free"
	PlanTierPro  = "pro"
)

// OAuth providers
const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

// Token type discriminators embedded in JWT claims
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Session revocation reasons
const (
	RevokeReasonLogout        = "logout"
	RevokeReasonLogoutAll     = "logout_all"
	RevokeReasonPasswordReset = "password_reset"
	RevokeReasonRotated       = "rotated"
)

// Audit actions
const (
	AuditActionRegister        = "register"
	AuditActionLogin           = "login"
	AuditActionLogout          = "logout"
	AuditActionLogoutAll       = "logout_all"
	AuditActionRefresh         = "token_refresh"
	AuditActionOAuthLogin      = "oauth_login"
	AuditActionVerifyEmail     = "verify_email"
	AuditActionPasswordReset   = "password_reset"
	AuditActionGatewayExchange = "gateway_exchange"
)

// Audit statuses
const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

// Audit failure reasons recorded server-side. Callers always receive a
// uniform authentication error so reasons are never leaked.
const (
	AuditReasonUserNotFound     = "user_not_found"
	AuditReasonAccountSuspended = "account_suspended"
	AuditReasonInvalidPassword  = "invalid_password"
)

// Device types inferred from the client-supplied string
const (
	DeviceTypeMobile  = "mobile"
	DeviceTypeTablet  = "tablet"
	DeviceTypeDesktop = "desktop"
	DeviceTypeUnknown = "unknown"
)
