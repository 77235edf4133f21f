package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository reads the audit trail written by the unit of work
type GormAuditLogRepository struct {
	uow *GormUnitOfWork
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(uow *GormUnitOfWork) *GormAuditLogRepository {
	return &GormAuditLogRepository{uow: uow}
}

// FindAllForTenant lists audit records, newest first by default
func (r *GormAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.AuditLogFilter) ([]*ledger.AuditLog, error) {
	query := r.applyFilter(r.logs(ctx, tenantID), filter)
	query = applyPageAndOrder(query, filter.Filter, AuditLogSortFields, "created_at", "DESC")

	var logModels []models.AuditLogModel
	if err := query.Find(&logModels).Error; err != nil {
		return nil, err
	}
	logs := make([]*ledger.AuditLog, 0, len(logModels))
	for i := range logModels {
		log, err := logModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// CountForTenant counts audit records matching the filter
func (r *GormAuditLogRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.AuditLogFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.logs(ctx, tenantID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAuditLogRepository) logs(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.uow.DB(ctx).Model(&models.AuditLogModel{}).Scopes(tenant.Scope(tenantID))
}

func (r *GormAuditLogRepository) applyFilter(query *gorm.DB, filter ledger.AuditLogFilter) *gorm.DB {
	if filter.EntityName != "" {
		query = query.Where("entity_name = ?", filter.EntityName)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	return query
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ ledger.AuditLogRepository = (*GormAuditLogRepository)(nil)
