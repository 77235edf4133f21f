package ledger

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditLog is the append-only record of one entity mutation. It is written by
// the unit of work in the same transaction as the change it describes.
type AuditLog struct {
	ID              uuid.UUID            `json:"id"`
	TenantID        uuid.UUID            `json:"tenant_id"`
	UserID          *uuid.UUID           `json:"user_id,omitempty"`
	EntityName      string               `json:"entity_name"`
	EntityID        uuid.UUID            `json:"entity_id"`
	Action          shared.AuditAction   `json:"action"`
	OldValues       shared.AuditSnapshot `json:"old_values"`
	NewValues       shared.AuditSnapshot `json:"new_values"`
	AffectedColumns []string             `json:"affected_columns"`
	CreatedAt       time.Time            `json:"created_at"`
}

// NewAuditLog builds the record for one mutation
func NewAuditLog(tenantID uuid.UUID, userID *uuid.UUID, entity shared.Auditable, action shared.AuditAction,
	oldValues, newValues shared.AuditSnapshot, columns []string, at time.Time) *AuditLog {
	log := &AuditLog{
		ID:              uuid.New(),
		TenantID:        tenantID,
		EntityName:      entity.AuditEntityName(),
		EntityID:        entity.AuditEntityID(),
		Action:          action,
		OldValues:       oldValues,
		NewValues:       newValues,
		AffectedColumns: columns,
		CreatedAt:       at,
	}
	if userID != nil {
		id := *userID
		log.UserID = &id
	}
	return log
}

// AffectedColumnsString joins the affected columns with commas
func (l *AuditLog) AffectedColumnsString() string {
	return strings.Join(l.AffectedColumns, ",")
}

// SplitAffectedColumns parses the persisted comma-joined column list
func SplitAffectedColumns(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}
