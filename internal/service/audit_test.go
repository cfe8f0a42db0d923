package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/dto"
	"github.com/wavelink/authcore/internal/model"
	"github.com/wavelink/authcore/internal/repository"
)

func strptr(s string) *string { return &s }

func TestAuditRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	svc.Record(context.Background(), strptr("tenant-1"), strptr("user-1"),
		constants.AuditActionLogin, constants.AuditStatusSuccess, "127.0.0.1",
		map[string]any{"reason": "test"})

	var entry model.AuditLogEntry
	require.NoError(t, db.First(&entry, "action = ?", constants.AuditActionLogin).Error)
	assert.Equal(t, "tenant-1", *entry.TenantID)
	assert.Equal(t, constants.AuditStatusSuccess, entry.Status)

	written, dropped := svc.Counters()
	assert.EqualValues(t, 1, written)
	assert.EqualValues(t, 0, dropped)
}

func TestAuditRecordSwallowsStoreFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	// A broken audit store must never fail the operation being audited.
	require.NoError(t, db.Migrator().DropTable(&model.AuditLogEntry{}))

	svc.Record(context.Background(), nil, nil,
		constants.AuditActionLogin, constants.AuditStatusFailure, "127.0.0.1", nil)

	written, dropped := svc.Counters()
	assert.EqualValues(t, 0, written)
	assert.EqualValues(t, 1, dropped)
}

func TestAuditList(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	for i := 0; i < 3; i++ {
		svc.Record(context.Background(), strptr("tenant-1"), strptr("user-1"),
			constants.AuditActionLogin, constants.AuditStatusSuccess, "127.0.0.1", nil)
	}
	svc.Record(context.Background(), strptr("tenant-1"), strptr("user-1"),
		constants.AuditActionLogout, constants.AuditStatusSuccess, "127.0.0.1", nil)
	svc.Record(context.Background(), strptr("tenant-2"), strptr("user-2"),
		constants.AuditActionLogin, constants.AuditStatusSuccess, "127.0.0.1", nil)

	// Tenant scope plus action filter.
	entries, total, _, err := svc.List(context.Background(), dto.AuditFilter{
		TenantID: "tenant-1",
		Action:   constants.AuditActionLogin,
	}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, entries, 3)

	// Pagination caps the page while total reports all matches.
	entries, total, pageTotal, err := svc.List(context.Background(), dto.AuditFilter{
		TenantID: "tenant-1",
	}, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, pageTotal)
}
