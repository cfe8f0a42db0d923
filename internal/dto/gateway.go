package dto

import "time"

type GatewayTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GatewayValidateRequest is the contract consumed by the realtime
// connection authority.
type GatewayValidateRequest struct {
	Token string `json:"token" binding:"required"`
}

type GatewayValidateResponse struct {
	Valid    bool   `json:"valid"`
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}
