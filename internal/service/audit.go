package service

import (
	"context"
	"encoding/json"
	"math"
	"sync/atomic"

	"github.com/wavelink/authcore/internal/dto"
	"github.com/wavelink/authcore/internal/model"
	"github.com/wavelink/authcore/internal/repository"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
	"gorm.io/datatypes"
)

// AuditService appends security events. Writes are best effort: a failed
// append is logged locally and counted, never surfaced to the caller whose
// primary operation triggered it.
type AuditService struct {
	repo *repository.AuditRepository

	written atomic.Int64
	dropped atomic.Int64
}

func NewAuditService(repo *repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record appends one audit entry. Tenant and user ids are optional so
// pre-auth failures can still be recorded.
func (s *AuditService) Record(ctx context.Context, tenantID, userID *string, action, status, ip string, metadata map[string]any) {
	entry := &model.AuditLogEntry{
		TenantID:  tenantID,
		UserID:    userID,
		Action:    action,
		Status:    status,
		IPAddress: ip,
	}

	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.dropped.Add(1)
		logger.WarnWithContext(ctx, "Audit write failed").
			String("action", action).
			String("status", status).
			Err(err).
			Log()
		return
	}
	s.written.Add(1)
}

// List returns filtered audit entries with pagination metadata.
func (s *AuditService) List(ctx context.Context, filter dto.AuditFilter, limit, offset int) ([]dto.AuditEntryResponse, int64, int, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "ListAudit")

	entries, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list audit entries").
			Err(err).
			Log()
		return nil, 0, 0, err
	}

	responses := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := dto.AuditEntryResponse{
			ID:        entry.ID,
			TenantID:  entry.TenantID,
			UserID:    entry.UserID,
			Action:    entry.Action,
			Status:    entry.Status,
			IPAddress: entry.IPAddress,
			CreatedAt: entry.CreatedAt,
		}
		if len(entry.Metadata) > 0 {
			var meta map[string]any
			if err := json.Unmarshal(entry.Metadata, &meta); err == nil {
				resp.Metadata = meta
			}
		}
		responses = append(responses, resp)
	}

	pageTotal := int(math.Ceil(float64(total) / float64(limit)))
	return responses, total, pageTotal, nil
}

// Counters reports process-wide written and dropped totals.
func (s *AuditService) Counters() (written, dropped int64) {
	return s.written.Load(), s.dropped.Load()
}
