package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	TenantAggregateModel
	SoftDeleteModel
	Code            string             `gorm:"type:varchar(50);not null"`
	Name            string             `gorm:"type:varchar(200);not null"`
	Type            ledger.AccountType `gorm:"type:varchar(20);not null;index"`
	IsHeader        bool               `gorm:"not null;default:false"`
	ParentAccountID *uuid.UUID         `gorm:"type:uuid;index"`
	IsBankAccount   bool               `gorm:"not null;default:false"`
	IsActive        bool               `gorm:"not null;default:true"`
	Balance         decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account.
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeleteFields:    m.ToSoftDeleteFields(),
		Code:                m.Code,
		Name:                m.Name,
		Type:                m.Type,
		IsHeader:            m.IsHeader,
		ParentAccountID:     m.ParentAccountID,
		IsBankAccount:       m.IsBankAccount,
		IsActive:            m.IsActive,
		Balance:             m.Balance,
	}
}

// FromDomain populates the persistence model from a domain Account.
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.FromDomainSoftDelete(a.SoftDeleteFields)
	m.Code = a.Code
	m.Name = a.Name
	m.Type = a.Type
	m.IsHeader = a.IsHeader
	m.ParentAccountID = a.ParentAccountID
	m.IsBankAccount = a.IsBankAccount
	m.IsActive = a.IsActive
	m.Balance = a.Balance
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}

// FiscalPeriodModel is the persistence model for the FiscalPeriod aggregate root.
type FiscalPeriodModel struct {
	TenantAggregateModel
	SoftDeleteModel
	Code         string              `gorm:"type:varchar(30);not null;index"`
	StartDate    time.Time           `gorm:"type:date;not null"`
	EndDate      time.Time           `gorm:"type:date;not null"`
	FiscalYear   int                 `gorm:"not null;index"`
	PeriodNumber int                 `gorm:"not null"`
	Status       ledger.PeriodStatus `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	IsAdjustment bool                `gorm:"not null;default:false"`
	ClosedAt     *time.Time
}

// TableName returns the table name for GORM
func (FiscalPeriodModel) TableName() string {
	return "fiscal_periods"
}

// ToDomain converts the persistence model to a domain FiscalPeriod.
func (m *FiscalPeriodModel) ToDomain() *ledger.FiscalPeriod {
	return &ledger.FiscalPeriod{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SoftDeleteFields:    m.ToSoftDeleteFields(),
		Code:                m.Code,
		StartDate:           ledger.DateOnly(m.StartDate),
		EndDate:             ledger.DateOnly(m.EndDate),
		FiscalYear:          m.FiscalYear,
		PeriodNumber:        m.PeriodNumber,
		Status:              m.Status,
		IsAdjustment:        m.IsAdjustment,
		ClosedAt:            m.ClosedAt,
	}
}

// FromDomain populates the persistence model from a domain FiscalPeriod.
func (m *FiscalPeriodModel) FromDomain(p *ledger.FiscalPeriod) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.FromDomainSoftDelete(p.SoftDeleteFields)
	m.Code = p.Code
	m.StartDate = p.StartDate
	m.EndDate = p.EndDate
	m.FiscalYear = p.FiscalYear
	m.PeriodNumber = p.PeriodNumber
	m.Status = p.Status
	m.IsAdjustment = p.IsAdjustment
	m.ClosedAt = p.ClosedAt
}

// FiscalPeriodModelFromDomain creates a new persistence model from a domain FiscalPeriod.
func FiscalPeriodModelFromDomain(p *ledger.FiscalPeriod) *FiscalPeriodModel {
	m := &FiscalPeriodModel{}
	m.FromDomain(p)
	return m
}

// JournalEntryModel is the persistence model for the JournalEntry header.
// Lines are stored in journal_entry_lines and loaded separately.
type JournalEntryModel struct {
	TenantAggregateModel
	EntryNumber     string             `gorm:"type:varchar(30);not null"`
	FiscalPeriodID  uuid.UUID          `gorm:"type:uuid;not null;index"`
	EntryDate       time.Time          `gorm:"type:date;not null;index"`
	CreatedByUserID uuid.UUID          `gorm:"type:uuid"`
	SourceType      ledger.SourceType  `gorm:"type:varchar(30);not null;index:idx_journal_entry_source,priority:1"`
	SourceID        *uuid.UUID         `gorm:"type:uuid;index:idx_journal_entry_source,priority:2"`
	SourceReference string             `gorm:"type:varchar(100)"`
	SourceEventID   *uuid.UUID         `gorm:"type:uuid"`
	Description     string             `gorm:"type:varchar(500)"`
	Status          ledger.EntryStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	TotalDebit      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	TotalCredit     decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	PostedAt        *time.Time
	PostedBy        *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the header to a domain JournalEntry without lines.
func (m *JournalEntryModel) ToDomain() *ledger.JournalEntry {
	return &ledger.JournalEntry{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		EntryNumber:         m.EntryNumber,
		FiscalPeriodID:      m.FiscalPeriodID,
		EntryDate:           ledger.DateOnly(m.EntryDate),
		CreatedByUserID:     m.CreatedByUserID,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		SourceReference:     m.SourceReference,
		SourceEventID:       m.SourceEventID,
		Description:         m.Description,
		Status:              m.Status,
		TotalDebit:          m.TotalDebit,
		TotalCredit:         m.TotalCredit,
		PostedAt:            m.PostedAt,
		PostedBy:            m.PostedBy,
		Lines:               make([]ledger.JournalEntryLine, 0),
	}
}

// FromDomain populates the persistence model from a domain JournalEntry header.
func (m *JournalEntryModel) FromDomain(je *ledger.JournalEntry) {
	m.FromDomainTenantAggregateRoot(je.TenantAggregateRoot)
	m.EntryNumber = je.EntryNumber
	m.FiscalPeriodID = je.FiscalPeriodID
	m.EntryDate = je.EntryDate
	m.CreatedByUserID = je.CreatedByUserID
	m.SourceType = je.SourceType
	m.SourceID = je.SourceID
	m.SourceReference = je.SourceReference
	m.SourceEventID = je.SourceEventID
	m.Description = je.Description
	m.Status = je.Status
	m.TotalDebit = je.TotalDebit
	m.TotalCredit = je.TotalCredit
	m.PostedAt = je.PostedAt
	m.PostedBy = je.PostedBy
}

// JournalEntryModelFromDomain creates a new persistence model from a domain JournalEntry.
func JournalEntryModelFromDomain(je *ledger.JournalEntry) *JournalEntryModel {
	m := &JournalEntryModel{}
	m.FromDomain(je)
	return m
}

// JournalEntryLineModel is the persistence model for one journal entry line.
type JournalEntryLineModel struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	JournalEntryID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_journal_line_entry_number,priority:1"`
	LineNumber     int              `gorm:"not null;uniqueIndex:idx_journal_line_entry_number,priority:2"`
	AccountID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Description    string           `gorm:"type:varchar(500)"`
	Debit          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Credit         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	PartnerID      *uuid.UUID       `gorm:"type:uuid;index"`
	CurrencyCode   string           `gorm:"type:varchar(3)"`
	ExchangeRate   *decimal.Decimal `gorm:"type:decimal(18,6)"`
	OriginalAmount *decimal.Decimal `gorm:"type:decimal(18,4)"`
	CreatedAt      time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (JournalEntryLineModel) TableName() string {
	return "journal_entry_lines"
}

// ToDomain converts the persistence model to a domain JournalEntryLine.
func (m *JournalEntryLineModel) ToDomain() ledger.JournalEntryLine {
	return ledger.JournalEntryLine{
		ID:             m.ID,
		JournalEntryID: m.JournalEntryID,
		LineNumber:     m.LineNumber,
		AccountID:      m.AccountID,
		Description:    m.Description,
		Debit:          m.Debit,
		Credit:         m.Credit,
		PartnerID:      m.PartnerID,
		CurrencyCode:   m.CurrencyCode,
		ExchangeRate:   m.ExchangeRate,
		OriginalAmount: m.OriginalAmount,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain JournalEntryLine.
func (m *JournalEntryLineModel) FromDomain(l *ledger.JournalEntryLine) {
	m.ID = l.ID
	m.JournalEntryID = l.JournalEntryID
	m.LineNumber = l.LineNumber
	m.AccountID = l.AccountID
	m.Description = l.Description
	m.Debit = l.Debit
	m.Credit = l.Credit
	m.PartnerID = l.PartnerID
	m.CurrencyCode = l.CurrencyCode
	m.ExchangeRate = l.ExchangeRate
	m.OriginalAmount = l.OriginalAmount
	m.CreatedAt = l.CreatedAt
}

// JournalEntryLineModelFromDomain creates a new persistence model from a domain JournalEntryLine.
func JournalEntryLineModelFromDomain(l *ledger.JournalEntryLine) *JournalEntryLineModel {
	m := &JournalEntryLineModel{}
	m.FromDomain(l)
	return m
}

// JournalEntryLineRow is a line joined with its account for read queries
type JournalEntryLineRow struct {
	JournalEntryLineModel
	AccountCode string
	AccountName string
}

// ToDomain converts the row to a domain line carrying account code and name
func (r *JournalEntryLineRow) ToDomain() ledger.JournalEntryLine {
	line := r.JournalEntryLineModel.ToDomain()
	line.AccountCode = r.AccountCode
	line.AccountName = r.AccountName
	return line
}
