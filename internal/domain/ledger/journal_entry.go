package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle status of a journal entry
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
)

// IsValid checks if the status is a valid EntryStatus
func (s EntryStatus) IsValid() bool {
	return s == EntryStatusDraft || s == EntryStatusPosted
}

// String returns the string representation of EntryStatus
func (s EntryStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the entry can no longer change
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusPosted
}

// SourceType tags the business document an entry was generated from
type SourceType string

const (
	SourceTypeInvoice SourceType = "Invoice"
	SourceTypePayment SourceType = "Payment"
	SourceTypeCheque  SourceType = "Cheque"
	SourceTypeManual  SourceType = "Manual"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// entryNumberPrefix is followed by the year and a zero padded sequence
const entryNumberPrefix = "JE-"

// EntryNumberPrefix returns the prefix shared by all entry numbers of a year
func EntryNumberPrefix(year int) string {
	return fmt.Sprintf("%s%d-", entryNumberPrefix, year)
}

// FormatEntryNumber renders JE-{year}-{seq:0000}
func FormatEntryNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%04d", EntryNumberPrefix(year), seq)
}

// ParseEntryNumber splits an entry number into its year and sequence
func ParseEntryNumber(number string) (year int, seq int64, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0]+"-" != entryNumberPrefix {
		return 0, 0, fmt.Errorf("invalid entry number %q", number)
	}
	if year, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid entry number year %q: %w", number, err)
	}
	if seq, err = strconv.ParseInt(parts[2], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid entry number sequence %q: %w", number, err)
	}
	return year, seq, nil
}

// JournalEntryLine is one debit or credit of a journal entry
type JournalEntryLine struct {
	ID             uuid.UUID        `json:"id"`
	JournalEntryID uuid.UUID        `json:"journal_entry_id"`
	LineNumber     int              `json:"line_number"`
	AccountID      uuid.UUID        `json:"account_id"`
	Description    string           `json:"description"`
	Debit          decimal.Decimal  `json:"debit"`
	Credit         decimal.Decimal  `json:"credit"`
	PartnerID      *uuid.UUID       `json:"partner_id,omitempty"`
	CurrencyCode   string           `json:"currency_code,omitempty"`
	ExchangeRate   *decimal.Decimal `json:"exchange_rate,omitempty"`
	OriginalAmount *decimal.Decimal `json:"original_amount,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`

	// Read side only, filled by queries joining the account
	AccountCode string `json:"account_code,omitempty"`
	AccountName string `json:"account_name,omitempty"`
}

// IsDebit returns true for a debit line
func (l *JournalEntryLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// Amount returns the non-zero side of the line
func (l *JournalEntryLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}

// AuditEntityName implements shared.Auditable
func (l *JournalEntryLine) AuditEntityName() string { return "JournalEntryLine" }

// AuditEntityID implements shared.Auditable
func (l *JournalEntryLine) AuditEntityID() uuid.UUID { return l.ID }

// AuditSnapshot implements shared.Auditable
func (l *JournalEntryLine) AuditSnapshot() shared.AuditSnapshot {
	snap := shared.AuditSnapshot{
		"journal_entry_id": l.JournalEntryID.String(),
		"line_number":      l.LineNumber,
		"account_id":       l.AccountID.String(),
		"description":      l.Description,
		"debit":            shared.SnapshotDecimal(l.Debit),
		"credit":           shared.SnapshotDecimal(l.Credit),
		"partner_id":       shared.SnapshotUUIDPtr(l.PartnerID),
		"currency_code":    nil,
		"exchange_rate":    nil,
		"original_amount":  nil,
	}
	if l.CurrencyCode != "" {
		snap["currency_code"] = l.CurrencyCode
	}
	if l.ExchangeRate != nil {
		snap["exchange_rate"] = shared.SnapshotDecimal(*l.ExchangeRate)
	}
	if l.OriginalAmount != nil {
		snap["original_amount"] = shared.SnapshotDecimal(*l.OriginalAmount)
	}
	return snap
}

// LineOption customizes a line being added to an entry
type LineOption func(*JournalEntryLine)

// WithPartner attaches the business partner of the line
func WithPartner(partnerID uuid.UUID) LineOption {
	return func(l *JournalEntryLine) {
		id := partnerID
		l.PartnerID = &id
	}
}

// WithForeignCurrency captures the original currency amount and its rate.
// No revaluation is performed.
func WithForeignCurrency(currencyCode string, rate, originalAmount decimal.Decimal) LineOption {
	return func(l *JournalEntryLine) {
		l.CurrencyCode = strings.ToUpper(currencyCode)
		r, o := rate, originalAmount
		l.ExchangeRate = &r
		l.OriginalAmount = &o
	}
}

// JournalEntry is the double-entry aggregate: a header and its ordered lines.
// Lines are appended while the entry is a draft; Post validates the balance
// and freezes the entry.
type JournalEntry struct {
	shared.TenantAggregateRoot
	EntryNumber     string             `json:"entry_number"`
	FiscalPeriodID  uuid.UUID          `json:"fiscal_period_id"`
	EntryDate       time.Time          `json:"entry_date"`
	CreatedByUserID uuid.UUID          `json:"created_by_user_id"`
	SourceType      SourceType         `json:"source_type"`
	SourceID        *uuid.UUID         `json:"source_id,omitempty"`
	SourceReference string             `json:"source_reference"`
	SourceEventID   *uuid.UUID         `json:"source_event_id,omitempty"`
	Description     string             `json:"description"`
	Status          EntryStatus        `json:"status"`
	TotalDebit      decimal.Decimal    `json:"total_debit"`
	TotalCredit     decimal.Decimal    `json:"total_credit"`
	PostedAt        *time.Time         `json:"posted_at,omitempty"`
	PostedBy        *uuid.UUID         `json:"posted_by,omitempty"`
	Lines           []JournalEntryLine `json:"lines"`
}

// NewJournalEntry creates a draft journal entry
func NewJournalEntry(
	tenantID uuid.UUID,
	entryNumber string,
	periodID uuid.UUID,
	entryDate time.Time,
	actorID uuid.UUID,
	sourceType SourceType,
	sourceID *uuid.UUID,
	sourceReference string,
	description string,
) (*JournalEntry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if _, _, err := ParseEntryNumber(entryNumber); err != nil {
		return nil, shared.NewDomainError("INVALID_ENTRY_NUMBER", err.Error())
	}
	if periodID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Fiscal period ID cannot be empty")
	}
	if entryDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ENTRY_DATE", "Entry date cannot be empty")
	}
	if strings.TrimSpace(string(sourceType)) == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Source type cannot be empty")
	}

	je := &JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntryNumber:         entryNumber,
		FiscalPeriodID:      periodID,
		EntryDate:           DateOnly(entryDate),
		CreatedByUserID:     actorID,
		SourceType:          sourceType,
		SourceReference:     sourceReference,
		Description:         description,
		Status:              EntryStatusDraft,
		TotalDebit:          decimal.Zero,
		TotalCredit:         decimal.Zero,
		Lines:               make([]JournalEntryLine, 0, 2),
	}
	if sourceID != nil {
		id := *sourceID
		je.SourceID = &id
	}
	if actorID != uuid.Nil {
		je.CreatedBy = &actorID
	}
	return je, nil
}

// SetSourceEvent records the event the entry was generated from
func (je *JournalEntry) SetSourceEvent(eventID uuid.UUID) {
	id := eventID
	je.SourceEventID = &id
}

// AddLine appends a line to a draft entry.
// Exactly one of debit and credit must be positive, and the account must be
// a postable leaf of the same tenant.
func (je *JournalEntry) AddLine(account *Account, debit, credit decimal.Decimal, description string, opts ...LineOption) (*JournalEntryLine, error) {
	if je.Status != EntryStatusDraft {
		return nil, shared.NewDomainError(CodeEntryNotDraft,
			fmt.Sprintf("Cannot add lines to journal entry %s in %s status", je.EntryNumber, je.Status))
	}
	if account == nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account is required")
	}
	if account.TenantID != je.TenantID {
		return nil, shared.NewDomainError(CodeTenantMismatch, "Account belongs to another tenant")
	}
	if err := account.ensurePostable(); err != nil {
		return nil, err
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewDomainError(CodeInvalidLineAmount, "Line amounts cannot be negative")
	}
	if debit.IsZero() == credit.IsZero() {
		return nil, shared.NewDomainError(CodeInvalidLineAmount,
			"A line must carry either a debit or a credit amount, not both or neither")
	}

	line := JournalEntryLine{
		ID:             uuid.New(),
		JournalEntryID: je.ID,
		LineNumber:     len(je.Lines) + 1,
		AccountID:      account.ID,
		Description:    description,
		Debit:          debit,
		Credit:         credit,
		CreatedAt:      time.Now().UTC(),
		AccountCode:    account.Code,
		AccountName:    account.Name,
	}
	for _, opt := range opts {
		opt(&line)
	}

	je.Lines = append(je.Lines, line)
	je.IncrementVersion()
	return &line, nil
}

// Totals sums the debit and credit sides of all lines
func (je *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for i := range je.Lines {
		debit = debit.Add(je.Lines[i].Debit)
		credit = credit.Add(je.Lines[i].Credit)
	}
	return debit, credit
}

// IsBalanced reports whether total debit equals total credit exactly
func (je *JournalEntry) IsBalanced() bool {
	debit, credit := je.Totals()
	return debit.Equal(credit)
}

// Post validates and finalizes the entry. A posted entry is immutable.
func (je *JournalEntry) Post(actorID uuid.UUID) error {
	if je.Status != EntryStatusDraft {
		return shared.NewDomainError(CodeEntryNotDraft,
			fmt.Sprintf("Journal entry %s is already %s", je.EntryNumber, je.Status))
	}
	if len(je.Lines) == 0 {
		return shared.NewDomainError(CodeEmptyEntry,
			fmt.Sprintf("Journal entry %s has no lines", je.EntryNumber))
	}
	debit, credit := je.Totals()
	if !debit.Equal(credit) {
		return shared.NewDomainError(CodeUnbalancedEntry,
			fmt.Sprintf("unbalanced entry %s: total debit %s, total credit %s",
				je.EntryNumber, debit.String(), credit.String()))
	}

	now := time.Now().UTC()
	je.Status = EntryStatusPosted
	je.TotalDebit = debit
	je.TotalCredit = credit
	je.PostedAt = &now
	if actorID != uuid.Nil {
		je.PostedBy = &actorID
	}
	je.IncrementVersion()
	je.AddDomainEvent(NewJournalEntryPostedEvent(je))
	return nil
}

// IsDraft returns true if lines can still be added
func (je *JournalEntry) IsDraft() bool {
	return je.Status == EntryStatusDraft
}

// IsPosted returns true once the entry has been posted
func (je *JournalEntry) IsPosted() bool {
	return je.Status == EntryStatusPosted
}

// EnsureDeletable allows removing drafts only
func (je *JournalEntry) EnsureDeletable() error {
	if !je.IsDraft() {
		return shared.NewDomainError(CodeEntryNotDraft,
			fmt.Sprintf("Posted journal entry %s cannot be deleted", je.EntryNumber))
	}
	return nil
}

// AccountIDs returns the distinct accounts referenced by the lines, in line order
func (je *JournalEntry) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(je.Lines))
	ids := make([]uuid.UUID, 0, len(je.Lines))
	for i := range je.Lines {
		id := je.Lines[i].AccountID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// AuditEntityName implements shared.Auditable
func (je *JournalEntry) AuditEntityName() string { return "JournalEntry" }

// AuditEntityID implements shared.Auditable
func (je *JournalEntry) AuditEntityID() uuid.UUID { return je.ID }

// AuditSnapshot implements shared.Auditable
func (je *JournalEntry) AuditSnapshot() shared.AuditSnapshot {
	return shared.AuditSnapshot{
		"entry_number":       je.EntryNumber,
		"fiscal_period_id":   je.FiscalPeriodID.String(),
		"entry_date":         shared.SnapshotTime(je.EntryDate),
		"created_by_user_id": je.CreatedByUserID.String(),
		"source_type":        je.SourceType.String(),
		"source_id":          shared.SnapshotUUIDPtr(je.SourceID),
		"source_reference":   je.SourceReference,
		"source_event_id":    shared.SnapshotUUIDPtr(je.SourceEventID),
		"description":        je.Description,
		"status":             je.Status.String(),
		"total_debit":        shared.SnapshotDecimal(je.TotalDebit),
		"total_credit":       shared.SnapshotDecimal(je.TotalCredit),
		"posted_at":          shared.SnapshotTimePtr(je.PostedAt),
		"posted_by":          shared.SnapshotUUIDPtr(je.PostedBy),
	}
}

var (
	_ shared.Auditable = (*JournalEntry)(nil)
	_ shared.Auditable = (*JournalEntryLine)(nil)
)
