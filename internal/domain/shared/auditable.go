package shared

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of mutation recorded in an audit log
type AuditAction string

const (
	AuditActionInsert     AuditAction = "Insert"
	AuditActionUpdate     AuditAction = "Update"
	AuditActionSoftDelete AuditAction = "SoftDelete"
	AuditActionHardDelete AuditAction = "HardDelete"
)

// String returns the string representation of AuditAction
func (a AuditAction) String() string {
	return string(a)
}

// IsValid checks if the audit action is valid
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionInsert, AuditActionUpdate, AuditActionSoftDelete, AuditActionHardDelete:
		return true
	}
	return false
}

// AuditSnapshot holds an entity's audited fields keyed by column name.
// Values are plain strings, numbers, bools or nil; decimals and times are
// rendered as strings. Key columns and the stamp columns maintained by the
// unit of work are left out.
type AuditSnapshot map[string]any

// Auditable is implemented by every entity persisted through the unit of work
type Auditable interface {
	AuditEntityName() string
	AuditEntityID() uuid.UUID
	AuditSnapshot() AuditSnapshot
}

// Stampable entities receive tenant and actor metadata on flush
type Stampable interface {
	StampCreated(tenantID uuid.UUID, actor *uuid.UUID, at time.Time)
	StampUpdated(actor *uuid.UUID, at time.Time)
}

// SoftDeletable entities are never physically removed; a delete flips the
// deleted flag and records who removed the row and when.
type SoftDeletable interface {
	SoftDelete(actor *uuid.UUID, at time.Time)
	IsDeleted() bool
}

// SoftDeleteFields is embedded by entities that opt into soft deletion
type SoftDeleteFields struct {
	DeletedAt *time.Time
	DeletedBy *uuid.UUID
}

// SoftDelete marks the entity deleted. Deleting twice keeps the first stamp.
func (s *SoftDeleteFields) SoftDelete(actor *uuid.UUID, at time.Time) {
	if s.DeletedAt != nil {
		return
	}
	t := at
	s.DeletedAt = &t
	if actor != nil {
		id := *actor
		s.DeletedBy = &id
	}
}

// IsDeleted reports whether the entity has been soft deleted
func (s *SoftDeleteFields) IsDeleted() bool {
	return s.DeletedAt != nil
}
