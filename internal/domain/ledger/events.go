package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types raised by the ledger
const (
	EventTypeJournalEntryPosted        = "JournalEntryPosted"
	EventTypeFiscalPeriodStatusChanged = "FiscalPeriodStatusChanged"
)

// JournalEntryPostedEvent is raised when an entry reaches POSTED
type JournalEntryPostedEvent struct {
	shared.BaseDomainEvent
	JournalEntryID  uuid.UUID       `json:"journal_entry_id"`
	EntryNumber     string          `json:"entry_number"`
	FiscalPeriodID  uuid.UUID       `json:"fiscal_period_id"`
	EntryDate       time.Time       `json:"entry_date"`
	SourceType      SourceType      `json:"source_type"`
	SourceID        *uuid.UUID      `json:"source_id,omitempty"`
	SourceReference string          `json:"source_reference"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	LineCount       int             `json:"line_count"`
}

// EventType returns the event type name
func (e *JournalEntryPostedEvent) EventType() string {
	return EventTypeJournalEntryPosted
}

// NewJournalEntryPostedEvent creates a new JournalEntryPostedEvent
func NewJournalEntryPostedEvent(je *JournalEntry) *JournalEntryPostedEvent {
	return &JournalEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJournalEntryPosted, "JournalEntry", je.ID, je.TenantID),
		JournalEntryID:  je.ID,
		EntryNumber:     je.EntryNumber,
		FiscalPeriodID:  je.FiscalPeriodID,
		EntryDate:       je.EntryDate,
		SourceType:      je.SourceType,
		SourceID:        je.SourceID,
		SourceReference: je.SourceReference,
		TotalDebit:      je.TotalDebit,
		TotalCredit:     je.TotalCredit,
		LineCount:       len(je.Lines),
	}
}

// FiscalPeriodStatusChangedEvent is raised when a period is closed, reopened or locked
type FiscalPeriodStatusChangedEvent struct {
	shared.BaseDomainEvent
	FiscalPeriodID uuid.UUID    `json:"fiscal_period_id"`
	Code           string       `json:"code"`
	FromStatus     PeriodStatus `json:"from_status"`
	ToStatus       PeriodStatus `json:"to_status"`
}

// EventType returns the event type name
func (e *FiscalPeriodStatusChangedEvent) EventType() string {
	return EventTypeFiscalPeriodStatusChanged
}

// NewFiscalPeriodStatusChangedEvent creates a new FiscalPeriodStatusChangedEvent
func NewFiscalPeriodStatusChangedEvent(p *FiscalPeriod, from PeriodStatus) *FiscalPeriodStatusChangedEvent {
	return &FiscalPeriodStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFiscalPeriodStatusChanged, "FiscalPeriod", p.ID, p.TenantID),
		FiscalPeriodID:  p.ID,
		Code:            p.Code,
		FromStatus:      from,
		ToStatus:        p.Status,
	}
}
