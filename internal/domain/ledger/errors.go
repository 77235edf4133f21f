package ledger

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// Error codes raised by the ledger aggregates
const (
	CodeNoOpenPeriod            = "NO_OPEN_PERIOD"
	CodeUnbalancedEntry         = "UNBALANCED_ENTRY"
	CodeEmptyEntry              = "EMPTY_ENTRY"
	CodeHeaderAccount           = "HEADER_ACCOUNT"
	CodeAccountInactive         = "ACCOUNT_INACTIVE"
	CodeInvalidLineAmount       = "INVALID_LINE_AMOUNT"
	CodeEntryNotDraft           = "ENTRY_NOT_DRAFT"
	CodeAccountMappingMissing   = "ACCOUNT_MAPPING_MISSING"
	CodePeriodOverlap           = "PERIOD_OVERLAP"
	CodePeriodInUse             = "PERIOD_IN_USE"
	CodeInvalidPeriodTransition = "INVALID_PERIOD_TRANSITION"
	CodeTenantMismatch          = "TENANT_MISMATCH"
	CodeInvalidForeignCurrency  = "INVALID_FOREIGN_CURRENCY"
)

// Sentinels for errors.Is; the returned errors carry more specific messages
var (
	ErrNoOpenPeriod           = shared.NewDomainError(CodeNoOpenPeriod, "no open period")
	ErrUnbalancedEntry        = shared.NewDomainError(CodeUnbalancedEntry, "unbalanced entry")
	ErrEmptyEntry             = shared.NewDomainError(CodeEmptyEntry, "entry has no lines")
	ErrHeaderAccount          = shared.NewDomainError(CodeHeaderAccount, "header accounts cannot receive postings")
	ErrAccountInactive        = shared.NewDomainError(CodeAccountInactive, "account is inactive")
	ErrInvalidLineAmount      = shared.NewDomainError(CodeInvalidLineAmount, "exactly one of debit or credit must be a positive amount")
	ErrEntryNotDraft          = shared.NewDomainError(CodeEntryNotDraft, "journal entry is not in draft status")
	ErrAccountMappingMissing  = shared.NewDomainError(CodeAccountMappingMissing, "required account mapping is missing")
	ErrPeriodOverlap          = shared.NewDomainError(CodePeriodOverlap, "fiscal period overlaps an existing period")
	ErrPeriodInUse            = shared.NewDomainError(CodePeriodInUse, "fiscal period has journal entries")
	ErrInvalidForeignCurrency = shared.NewDomainError(CodeInvalidForeignCurrency, "invalid foreign currency amount")
)

// NewNoOpenPeriodError reports that no open period covers the posting date
func NewNoOpenPeriodError(date time.Time) error {
	return shared.NewDomainError(CodeNoOpenPeriod, fmt.Sprintf("no open period for %s", date.Format("2006-01-02")))
}

// NewAccountMappingMissingError reports a role with no matching account
func NewAccountMappingMissingError(role AccountRole, prefix string) error {
	return shared.NewDomainError(CodeAccountMappingMissing,
		fmt.Sprintf("no postable account for role %s (code prefix %q)", role, prefix))
}
