package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and timestamps shared by every persisted row.
// Timestamps are UTC.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Versioned is satisfied by aggregates guarded by optimistic locking. The
// unit of work bumps the version of a tracked aggregate that changed without
// going through a domain method.
type Versioned interface {
	GetVersion() int
	IncrementVersion()
}

// EventSource is implemented by anything that buffers domain events until
// the enclosing unit of work commits.
type EventSource interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now().UTC()
	return BaseAggregateRoot{
		BaseEntity:   BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// TenantAggregateRoot extends BaseAggregateRoot with multi-tenant support
// and actor stamps maintained by the unit of work.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
	UpdatedBy *uuid.UUID
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

// GetTenantID returns the owning tenant
func (t *TenantAggregateRoot) GetTenantID() uuid.UUID {
	return t.TenantID
}

// StampCreated fills tenant and creator metadata on insert.
// An already assigned tenant or creator is never overwritten.
func (t *TenantAggregateRoot) StampCreated(tenantID uuid.UUID, actor *uuid.UUID, at time.Time) {
	if t.TenantID == uuid.Nil {
		t.TenantID = tenantID
	}
	if t.CreatedBy == nil && actor != nil {
		id := *actor
		t.CreatedBy = &id
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = at
	}
	t.UpdatedAt = at
}

// StampUpdated records the updater and modification time
func (t *TenantAggregateRoot) StampUpdated(actor *uuid.UUID, at time.Time) {
	if actor != nil {
		id := *actor
		t.UpdatedBy = &id
	}
	t.UpdatedAt = at
}
