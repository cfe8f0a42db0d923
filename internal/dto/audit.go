package dto

import "time"

// AuditFilter narrows audit retrieval. Zero values mean no predicate.
type AuditFilter struct {
	TenantID string
	UserID   string
	Action   string
	From     *time.Time
	To       *time.Time
}

type AuditEntryResponse struct {
	ID        string         `json:"id"`
	TenantID  *string        `json:"tenant_id,omitempty"`
	UserID    *string        `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Status    string         `json:"status"`
	IPAddress string         `json:"ip_address,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
