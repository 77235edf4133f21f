package ledger

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountFilter defines filtering options for account queries
type AccountFilter struct {
	shared.Filter
	Type       *AccountType
	IsHeader   *bool
	IsActive   *bool
	CodePrefix string
}

// AccountRepository defines the interface for chart of accounts persistence.
// Save and Delete register the change with the current unit of work.
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Account, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) ([]*Account, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter AccountFilter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, account *Account) error
	Delete(ctx context.Context, account *Account) error
}

// FiscalPeriodFilter defines filtering options for fiscal period queries
type FiscalPeriodFilter struct {
	shared.Filter
	FiscalYear *int
	Status     *PeriodStatus
}

// FiscalPeriodRepository defines the interface for fiscal period persistence
type FiscalPeriodRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FiscalPeriod, error)
	// FindByIDForUpdate loads a period for a status change. Inside a unit of
	// work the row stays locked against concurrent postings until commit.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*FiscalPeriod, error)
	// FindContaining returns the period whose range contains date, or shared.ErrNotFound.
	// Inside a unit of work the row is share-locked, so it cannot be closed
	// or locked before the posting commits.
	FindContaining(ctx context.Context, tenantID uuid.UUID, date time.Time) (*FiscalPeriod, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter FiscalPeriodFilter) ([]*FiscalPeriod, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter FiscalPeriodFilter) (int64, error)
	// ExistsOverlapping reports whether another live period shares a day with [start, end]
	ExistsOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
	Save(ctx context.Context, period *FiscalPeriod) error
	Delete(ctx context.Context, period *FiscalPeriod) error
}

// JournalEntryFilter defines filtering options for journal entry queries
type JournalEntryFilter struct {
	shared.Filter
	Status         *EntryStatus
	SourceType     *SourceType
	SourceID       *uuid.UUID
	FiscalPeriodID *uuid.UUID
	FromDate       *time.Time
	ToDate         *time.Time
}

// JournalEntryRepository defines the interface for journal entry persistence
type JournalEntryRepository interface {
	// FindByIDForTenant loads the entry with its lines and their account code and name
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalEntryFilter) ([]*JournalEntry, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalEntryFilter) (int64, error)
	// ExistsBySourceEvent reports whether an event has already been posted
	ExistsBySourceEvent(ctx context.Context, tenantID, eventID uuid.UUID) (bool, error)
	CountByPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (int64, error)
	Save(ctx context.Context, entry *JournalEntry) error
	Delete(ctx context.Context, entry *JournalEntry) error
}

// EntryNumberAllocator hands out JE-{year}-{seq:0000} numbers.
// NextEntryNumber consumes a number inside the caller's transaction;
// concurrent callers never receive the same value.
type EntryNumberAllocator interface {
	NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error)
	PeekEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error)
}

// AuditLogFilter defines filtering options for audit log queries
type AuditLogFilter struct {
	shared.Filter
	EntityName string
	EntityID   *uuid.UUID
	Action     *shared.AuditAction
	UserID     *uuid.UUID
}

// AuditLogRepository reads audit records. Records are only ever written by the unit of work.
type AuditLogRepository interface {
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AuditLogFilter) ([]*AuditLog, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter AuditLogFilter) (int64, error)
}
