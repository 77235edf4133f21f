package ledger

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditLogService reads the audit trail
type AuditLogService struct {
	logs ledger.AuditLogRepository
}

// NewAuditLogService creates a new AuditLogService
func NewAuditLogService(logs ledger.AuditLogRepository) *AuditLogService {
	return &AuditLogService{logs: logs}
}

// ListAuditLogs lists audit records, newest first
func (s *AuditLogService) ListAuditLogs(ctx context.Context, tenantID uuid.UUID, f AuditLogListFilter) (shared.Paginated[AuditLogResponse], error) {
	filter := ledger.AuditLogFilter{
		Filter:     pageFilter(f.Page, f.PageSize, "", "", ""),
		EntityName: f.EntityName,
		EntityID:   f.EntityID,
		UserID:     f.UserID,
	}
	if f.Action != "" {
		action := shared.AuditAction(f.Action)
		filter.Action = &action
	}

	logs, err := s.logs.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[AuditLogResponse]{}, err
	}
	total, err := s.logs.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[AuditLogResponse]{}, err
	}
	items := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		items[i] = ToAuditLogResponse(l)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}
