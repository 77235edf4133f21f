package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditLogModel is the persistence model for audit records. Rows are insert only.
type AuditLogModel struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID          `gorm:"type:uuid;not null;index:idx_audit_tenant_entity,priority:1"`
	UserID          *uuid.UUID         `gorm:"type:uuid;index"`
	EntityName      string             `gorm:"type:varchar(100);not null;index:idx_audit_tenant_entity,priority:2"`
	EntityID        uuid.UUID          `gorm:"type:uuid;not null;index:idx_audit_tenant_entity,priority:3"`
	Action          shared.AuditAction `gorm:"type:varchar(20);not null"`
	OldValues       []byte             `gorm:"type:jsonb"`
	NewValues       []byte             `gorm:"type:jsonb"`
	AffectedColumns string             `gorm:"type:text"`
	CreatedAt       time.Time          `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// AuditLogModelFromDomain creates a persistence model, encoding the value maps as JSON.
// Empty value maps are stored as NULL.
func AuditLogModelFromDomain(l *ledger.AuditLog) (*AuditLogModel, error) {
	oldValues, err := encodeSnapshot(l.OldValues)
	if err != nil {
		return nil, fmt.Errorf("failed to encode old values: %w", err)
	}
	newValues, err := encodeSnapshot(l.NewValues)
	if err != nil {
		return nil, fmt.Errorf("failed to encode new values: %w", err)
	}
	return &AuditLogModel{
		ID:              l.ID,
		TenantID:        l.TenantID,
		UserID:          l.UserID,
		EntityName:      l.EntityName,
		EntityID:        l.EntityID,
		Action:          l.Action,
		OldValues:       oldValues,
		NewValues:       newValues,
		AffectedColumns: l.AffectedColumnsString(),
		CreatedAt:       l.CreatedAt,
	}, nil
}

// ToDomain converts the persistence model to a domain AuditLog
func (m *AuditLogModel) ToDomain() (*ledger.AuditLog, error) {
	oldValues, err := decodeSnapshot(m.OldValues)
	if err != nil {
		return nil, fmt.Errorf("failed to decode old values of audit log %s: %w", m.ID, err)
	}
	newValues, err := decodeSnapshot(m.NewValues)
	if err != nil {
		return nil, fmt.Errorf("failed to decode new values of audit log %s: %w", m.ID, err)
	}
	return &ledger.AuditLog{
		ID:              m.ID,
		TenantID:        m.TenantID,
		UserID:          m.UserID,
		EntityName:      m.EntityName,
		EntityID:        m.EntityID,
		Action:          m.Action,
		OldValues:       oldValues,
		NewValues:       newValues,
		AffectedColumns: ledger.SplitAffectedColumns(m.AffectedColumns),
		CreatedAt:       m.CreatedAt,
	}, nil
}

func encodeSnapshot(s shared.AuditSnapshot) ([]byte, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal(s)
}

func decodeSnapshot(data []byte) (shared.AuditSnapshot, error) {
	s := shared.AuditSnapshot{}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}
