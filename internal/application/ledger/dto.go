package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents a request to add an account to the chart
type CreateAccountRequest struct {
	Code            string     `json:"code" binding:"required,min=1,max=50,ledger_code"`
	Name            string     `json:"name" binding:"required,min=1,max=200"`
	Type            string     `json:"type" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	IsHeader        bool       `json:"is_header"`
	ParentAccountID *uuid.UUID `json:"parent_account_id"`
	IsBankAccount   bool       `json:"is_bank_account"`
}

// AccountListFilter defines filtering options for account list queries
type AccountListFilter struct {
	Search     string `form:"search"`
	Type       string `form:"type" binding:"omitempty,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	IsHeader   *bool  `form:"is_header"`
	IsActive   *bool  `form:"is_active"`
	CodePrefix string `form:"code_prefix"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	IsHeader        bool            `json:"is_header"`
	ParentAccountID *uuid.UUID      `json:"parent_account_id,omitempty"`
	IsBankAccount   bool            `json:"is_bank_account"`
	IsActive        bool            `json:"is_active"`
	Balance         decimal.Decimal `json:"balance"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// ToAccountResponse converts the domain account
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		Code:            a.Code,
		Name:            a.Name,
		Type:            a.Type.String(),
		IsHeader:        a.IsHeader,
		ParentAccountID: a.ParentAccountID,
		IsBankAccount:   a.IsBankAccount,
		IsActive:        a.IsActive,
		Balance:         a.Balance,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Version:         a.Version,
	}
}

// CreateFiscalPeriodRequest represents a request to open a new fiscal period
type CreateFiscalPeriodRequest struct {
	Code         string    `json:"code" binding:"required,min=1,max=20,ledger_code"`
	StartDate    time.Time `json:"start_date" binding:"required"`
	EndDate      time.Time `json:"end_date" binding:"required"`
	FiscalYear   int       `json:"fiscal_year" binding:"required,min=1"`
	PeriodNumber int       `json:"period_number" binding:"min=0"`
	IsAdjustment bool      `json:"is_adjustment"`
}

// FiscalPeriodListFilter defines filtering options for fiscal period list queries
type FiscalPeriodListFilter struct {
	Search     string `form:"search"`
	FiscalYear *int   `form:"fiscal_year"`
	Status     string `form:"status" binding:"omitempty,oneof=OPEN CLOSED LOCKED"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// ResolvePeriodQuery asks for the open period covering a posting date
type ResolvePeriodQuery struct {
	Date time.Time `form:"date" time_format:"2006-01-02" time_utc:"1" binding:"required"`
}

// FiscalPeriodResponse represents a fiscal period in API responses
type FiscalPeriodResponse struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	FiscalYear   int        `json:"fiscal_year"`
	PeriodNumber int        `json:"period_number"`
	Status       string     `json:"status"`
	IsAdjustment bool       `json:"is_adjustment"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	Version      int        `json:"version"`
}

// ToFiscalPeriodResponse converts the domain period
func ToFiscalPeriodResponse(p *ledger.FiscalPeriod) FiscalPeriodResponse {
	return FiscalPeriodResponse{
		ID:           p.ID,
		Code:         p.Code,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		FiscalYear:   p.FiscalYear,
		PeriodNumber: p.PeriodNumber,
		Status:       p.Status.String(),
		IsAdjustment: p.IsAdjustment,
		ClosedAt:     p.ClosedAt,
		Version:      p.Version,
	}
}

// JournalLineRequest is one line of a manual entry
type JournalLineRequest struct {
	AccountID   uuid.UUID       `json:"account_id" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description" binding:"max=500"`
	PartnerID   *uuid.UUID      `json:"partner_id"`
	// CurrencyCode, ExchangeRate and OriginalAmount record a foreign currency
	// amount; they are given together or not at all
	CurrencyCode   string           `json:"currency_code" binding:"omitempty,len=3,alpha"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate"`
	OriginalAmount *decimal.Decimal `json:"original_amount"`
}

// CreateManualEntryRequest represents a request to draft a manual journal entry
type CreateManualEntryRequest struct {
	EntryDate       time.Time            `json:"entry_date" binding:"required"`
	SourceReference string               `json:"source_reference" binding:"max=100"`
	Description     string               `json:"description" binding:"max=500"`
	Lines           []JournalLineRequest `json:"lines" binding:"dive"`
	// Post posts the entry right after it is drafted
	Post bool `json:"post"`
}

// JournalEntryListFilter defines filtering options for journal entry list queries
type JournalEntryListFilter struct {
	Search         string     `form:"search"`
	Status         string     `form:"status" binding:"omitempty,oneof=DRAFT POSTED"`
	SourceType     string     `form:"source_type"`
	SourceID       *uuid.UUID `form:"source_id"`
	FiscalPeriodID *uuid.UUID `form:"fiscal_period_id"`
	FromDate       *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate         *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy        string     `form:"order_by"`
	OrderDir       string     `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// JournalLineResponse represents a journal line in API responses
type JournalLineResponse struct {
	ID             uuid.UUID        `json:"id"`
	LineNumber     int              `json:"line_number"`
	AccountID      uuid.UUID        `json:"account_id"`
	AccountCode    string           `json:"account_code"`
	AccountName    string           `json:"account_name"`
	Description    string           `json:"description"`
	Debit          decimal.Decimal  `json:"debit"`
	Credit         decimal.Decimal  `json:"credit"`
	PartnerID      *uuid.UUID       `json:"partner_id,omitempty"`
	CurrencyCode   string           `json:"currency_code,omitempty"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate,omitempty"`
	OriginalAmount *decimal.Decimal `json:"original_amount,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses.
// Lines are omitted from list results.
type JournalEntryResponse struct {
	ID              uuid.UUID             `json:"id"`
	EntryNumber     string                `json:"entry_number"`
	FiscalPeriodID  uuid.UUID             `json:"fiscal_period_id"`
	EntryDate       time.Time             `json:"entry_date"`
	SourceType      string                `json:"source_type"`
	SourceID        *uuid.UUID            `json:"source_id,omitempty"`
	SourceReference string                `json:"source_reference"`
	Description     string                `json:"description"`
	Status          string                `json:"status"`
	TotalDebit      decimal.Decimal       `json:"total_debit"`
	TotalCredit     decimal.Decimal       `json:"total_credit"`
	CreatedByUserID uuid.UUID             `json:"created_by_user_id"`
	PostedAt        *time.Time            `json:"posted_at,omitempty"`
	Lines           []JournalLineResponse `json:"lines,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	Version         int                   `json:"version"`
}

// ToJournalEntryResponse converts the domain entry with its loaded lines
func ToJournalEntryResponse(je *ledger.JournalEntry) JournalEntryResponse {
	resp := JournalEntryResponse{
		ID:              je.ID,
		EntryNumber:     je.EntryNumber,
		FiscalPeriodID:  je.FiscalPeriodID,
		EntryDate:       je.EntryDate,
		SourceType:      je.SourceType.String(),
		SourceID:        je.SourceID,
		SourceReference: je.SourceReference,
		Description:     je.Description,
		Status:          je.Status.String(),
		TotalDebit:      je.TotalDebit,
		TotalCredit:     je.TotalCredit,
		CreatedByUserID: je.CreatedByUserID,
		PostedAt:        je.PostedAt,
		CreatedAt:       je.CreatedAt,
		Version:         je.Version,
	}
	if je.IsDraft() {
		// drafts report their running totals
		resp.TotalDebit, resp.TotalCredit = je.Totals()
	}
	if len(je.Lines) > 0 {
		resp.Lines = make([]JournalLineResponse, len(je.Lines))
		for i := range je.Lines {
			l := &je.Lines[i]
			resp.Lines[i] = JournalLineResponse{
				ID:             l.ID,
				LineNumber:     l.LineNumber,
				AccountID:      l.AccountID,
				AccountCode:    l.AccountCode,
				AccountName:    l.AccountName,
				Description:    l.Description,
				Debit:          l.Debit,
				Credit:         l.Credit,
				PartnerID:      l.PartnerID,
				CurrencyCode:   l.CurrencyCode,
				ExchangeRate:   l.ExchangeRate,
				OriginalAmount: l.OriginalAmount,
			}
		}
	}
	return resp
}

// AuditLogListFilter defines filtering options for audit log queries
type AuditLogListFilter struct {
	EntityName string     `form:"entity_name"`
	EntityID   *uuid.UUID `form:"entity_id"`
	Action     string     `form:"action" binding:"omitempty,oneof=Insert Update SoftDelete HardDelete"`
	UserID     *uuid.UUID `form:"user_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// AuditLogResponse is the persisted audit record shape
type AuditLogResponse struct {
	ID              uuid.UUID            `json:"id"`
	UserID          *uuid.UUID           `json:"user_id,omitempty"`
	EntityName      string               `json:"entity_name"`
	EntityID        uuid.UUID            `json:"entity_id"`
	Action          string               `json:"action"`
	OldValues       shared.AuditSnapshot `json:"old_values,omitempty"`
	NewValues       shared.AuditSnapshot `json:"new_values,omitempty"`
	AffectedColumns string               `json:"affected_columns"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ToAuditLogResponse converts the domain record
func ToAuditLogResponse(l *ledger.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:              l.ID,
		UserID:          l.UserID,
		EntityName:      l.EntityName,
		EntityID:        l.EntityID,
		Action:          string(l.Action),
		OldValues:       l.OldValues,
		NewValues:       l.NewValues,
		AffectedColumns: l.AffectedColumnsString(),
		CreatedAt:       l.CreatedAt,
	}
}

// pageFilter builds the shared paging filter, defaulting to 20 rows per page
func pageFilter(page, pageSize int, search, orderBy, orderDir string) shared.Filter {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
		OrderBy:  orderBy,
		OrderDir: orderDir,
	}
}
