package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// PeriodStatus represents the status of a fiscal period
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"   // Postings allowed
	PeriodStatusClosed PeriodStatus = "CLOSED" // Closed by an operator, can be reopened
	PeriodStatusLocked PeriodStatus = "LOCKED" // Permanently closed
)

// IsValid checks if the status is a valid PeriodStatus
func (s PeriodStatus) IsValid() bool {
	switch s {
	case PeriodStatusOpen, PeriodStatusClosed, PeriodStatusLocked:
		return true
	}
	return false
}

// String returns the string representation of PeriodStatus
func (s PeriodStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the period can no longer change status
func (s PeriodStatus) IsTerminal() bool {
	return s == PeriodStatusLocked
}

// FiscalPeriod is a date range gating postings. Periods of a tenant never overlap.
type FiscalPeriod struct {
	shared.TenantAggregateRoot
	shared.SoftDeleteFields
	Code         string       `json:"code"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"` // inclusive
	FiscalYear   int          `json:"fiscal_year"`
	PeriodNumber int          `json:"period_number"`
	Status       PeriodStatus `json:"status"`
	IsAdjustment bool         `json:"is_adjustment"`
	ClosedAt     *time.Time   `json:"closed_at,omitempty"`
}

// NewFiscalPeriod creates an open fiscal period
func NewFiscalPeriod(tenantID uuid.UUID, code string, startDate, endDate time.Time, fiscalYear, periodNumber int, isAdjustment bool) (*FiscalPeriod, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PERIOD_CODE", "Period code cannot be empty")
	}
	start := DateOnly(startDate)
	end := DateOnly(endDate)
	if end.Before(start) {
		return nil, shared.NewDomainError("INVALID_PERIOD_RANGE", "Period end date cannot be before its start date")
	}
	if fiscalYear <= 0 {
		return nil, shared.NewDomainError("INVALID_FISCAL_YEAR", "Fiscal year must be positive")
	}
	if periodNumber < 0 {
		return nil, shared.NewDomainError("INVALID_PERIOD_NUMBER", "Period number cannot be negative")
	}

	return &FiscalPeriod{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		StartDate:           start,
		EndDate:             end,
		FiscalYear:          fiscalYear,
		PeriodNumber:        periodNumber,
		Status:              PeriodStatusOpen,
		IsAdjustment:        isAdjustment,
	}, nil
}

// Contains reports whether date falls in [StartDate, EndDate]
func (p *FiscalPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// Overlaps reports whether two periods share at least one day
func (p *FiscalPeriod) Overlaps(start, end time.Time) bool {
	return !DateOnly(end).Before(p.StartDate) && !DateOnly(start).After(p.EndDate)
}

// IsOpen returns true if postings are allowed
func (p *FiscalPeriod) IsOpen() bool {
	return p.Status == PeriodStatusOpen && !p.IsDeleted()
}

// EnsureAcceptsPostingOn returns ErrNoOpenPeriod unless the period is open and
// contains the date
func (p *FiscalPeriod) EnsureAcceptsPostingOn(date time.Time) error {
	if !p.IsOpen() || !p.Contains(date) {
		return NewNoOpenPeriodError(date)
	}
	return nil
}

// Close closes an open period
func (p *FiscalPeriod) Close() error {
	if p.Status != PeriodStatusOpen {
		return p.transitionError(PeriodStatusClosed)
	}
	now := time.Now().UTC()
	p.changeStatus(PeriodStatusClosed)
	p.ClosedAt = &now
	return nil
}

// Reopen reopens a closed period
func (p *FiscalPeriod) Reopen() error {
	if p.Status != PeriodStatusClosed {
		return p.transitionError(PeriodStatusOpen)
	}
	p.changeStatus(PeriodStatusOpen)
	p.ClosedAt = nil
	return nil
}

// Lock permanently locks a closed period
func (p *FiscalPeriod) Lock() error {
	if p.Status != PeriodStatusClosed {
		return p.transitionError(PeriodStatusLocked)
	}
	p.changeStatus(PeriodStatusLocked)
	return nil
}

func (p *FiscalPeriod) changeStatus(to PeriodStatus) {
	from := p.Status
	p.Status = to
	p.IncrementVersion()
	p.AddDomainEvent(NewFiscalPeriodStatusChangedEvent(p, from))
}

func (p *FiscalPeriod) transitionError(to PeriodStatus) error {
	return shared.NewDomainError(CodeInvalidPeriodTransition,
		fmt.Sprintf("Cannot change period %s from %s to %s", p.Code, p.Status, to))
}

// AuditEntityName implements shared.Auditable
func (p *FiscalPeriod) AuditEntityName() string { return "FiscalPeriod" }

// AuditEntityID implements shared.Auditable
func (p *FiscalPeriod) AuditEntityID() uuid.UUID { return p.ID }

// AuditSnapshot implements shared.Auditable
func (p *FiscalPeriod) AuditSnapshot() shared.AuditSnapshot {
	return shared.AuditSnapshot{
		"code":          p.Code,
		"start_date":    shared.SnapshotTime(p.StartDate),
		"end_date":      shared.SnapshotTime(p.EndDate),
		"fiscal_year":   p.FiscalYear,
		"period_number": p.PeriodNumber,
		"status":        p.Status.String(),
		"is_adjustment": p.IsAdjustment,
		"closed_at":     shared.SnapshotTimePtr(p.ClosedAt),
		"deleted_at":    shared.SnapshotTimePtr(p.DeletedAt),
		"deleted_by":    shared.SnapshotUUIDPtr(p.DeletedBy),
	}
}

var (
	_ shared.Auditable     = (*FiscalPeriod)(nil)
	_ shared.SoftDeletable = (*FiscalPeriod)(nil)
)
