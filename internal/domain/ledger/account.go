package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies an account in the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// IsDebitNormal reports whether debits increase the balance of this type
func (t AccountType) IsDebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account is a node of the tenant's chart of accounts.
// Header accounts only aggregate their children; postings go to leaves.
type Account struct {
	shared.TenantAggregateRoot
	shared.SoftDeleteFields
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Type            AccountType     `json:"type"`
	IsHeader        bool            `json:"is_header"`
	ParentAccountID *uuid.UUID      `json:"parent_account_id,omitempty"`
	IsBankAccount   bool            `json:"is_bank_account"`
	IsActive        bool            `json:"is_active"`
	Balance         decimal.Decimal `json:"balance"`
}

// NewAccount creates a new active account with a zero balance
func NewAccount(tenantID uuid.UUID, code, name string, accountType AccountType, isHeader bool, parent *Account) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", fmt.Sprintf("Account type %q is not valid", accountType))
	}

	a := &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Type:                accountType,
		IsHeader:            isHeader,
		IsActive:            true,
		Balance:             decimal.Zero,
	}

	if parent != nil {
		if parent.TenantID != tenantID {
			return nil, shared.NewDomainError(CodeTenantMismatch, "Parent account belongs to another tenant")
		}
		if !parent.IsHeader {
			return nil, shared.NewDomainError("INVALID_PARENT_ACCOUNT", "Parent account must be a header account")
		}
		parentID := parent.ID
		a.ParentAccountID = &parentID
	}

	return a, nil
}

// MarkAsBankAccount flags the account as a bank or cash account
func (a *Account) MarkAsBankAccount() {
	a.IsBankAccount = true
}

// CanReceivePostings reports whether journal lines may target this account
func (a *Account) CanReceivePostings() bool {
	return !a.IsHeader && a.IsActive && !a.IsDeleted()
}

// ensurePostable returns the domain error explaining why the account cannot
// receive postings, or nil
func (a *Account) ensurePostable() error {
	if a.IsHeader {
		return shared.NewDomainError(CodeHeaderAccount,
			fmt.Sprintf("account %s is a header account and cannot receive postings", a.Code))
	}
	if !a.IsActive || a.IsDeleted() {
		return shared.NewDomainError(CodeAccountInactive, fmt.Sprintf("account %s is inactive", a.Code))
	}
	return nil
}

// ApplyPostedLine moves the running balance by one line of a posted entry.
// Balances change only through posted journal lines.
func (a *Account) ApplyPostedLine(entry *JournalEntry, line *JournalEntryLine) error {
	if entry == nil || !entry.IsPosted() {
		return shared.NewDomainError("ENTRY_NOT_POSTED", "Only posted entries can change account balances")
	}
	if line.JournalEntryID != entry.ID {
		return shared.NewDomainError("INVALID_LINE", "Line does not belong to the entry")
	}
	if line.AccountID != a.ID {
		return shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Line targets another account than %s", a.Code))
	}
	if entry.TenantID != a.TenantID {
		return shared.NewDomainError(CodeTenantMismatch, "Entry and account belong to different tenants")
	}

	delta := line.Credit.Sub(line.Debit)
	if a.Type.IsDebitNormal() {
		delta = line.Debit.Sub(line.Credit)
	}
	a.Balance = a.Balance.Add(delta)
	a.IncrementVersion()
	return nil
}

// Rename changes the display name
func (a *Account) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	a.Name = strings.TrimSpace(name)
	a.IncrementVersion()
	return nil
}

// Deactivate stops the account from receiving new postings
func (a *Account) Deactivate() {
	if !a.IsActive {
		return
	}
	a.IsActive = false
	a.IncrementVersion()
}

// Activate re-enables postings
func (a *Account) Activate() {
	if a.IsActive {
		return
	}
	a.IsActive = true
	a.IncrementVersion()
}

// EnsureDeletable rejects removal of accounts that still carry a balance
func (a *Account) EnsureDeletable() error {
	if !a.Balance.IsZero() {
		return shared.NewDomainError("ACCOUNT_HAS_BALANCE",
			fmt.Sprintf("account %s has a non-zero balance of %s", a.Code, a.Balance.String()))
	}
	return nil
}

// AuditEntityName implements shared.Auditable
func (a *Account) AuditEntityName() string { return "Account" }

// AuditEntityID implements shared.Auditable
func (a *Account) AuditEntityID() uuid.UUID { return a.ID }

// AuditSnapshot implements shared.Auditable
func (a *Account) AuditSnapshot() shared.AuditSnapshot {
	return shared.AuditSnapshot{
		"code":              a.Code,
		"name":              a.Name,
		"type":              a.Type.String(),
		"is_header":         a.IsHeader,
		"parent_account_id": shared.SnapshotUUIDPtr(a.ParentAccountID),
		"is_bank_account":   a.IsBankAccount,
		"is_active":         a.IsActive,
		"balance":           shared.SnapshotDecimal(a.Balance),
		"deleted_at":        shared.SnapshotTimePtr(a.DeletedAt),
		"deleted_by":        shared.SnapshotUUIDPtr(a.DeletedBy),
	}
}

// SoftDelete implements shared.SoftDeletable; a deleted account is also deactivated
func (a *Account) SoftDelete(actor *uuid.UUID, at time.Time) {
	a.SoftDeleteFields.SoftDelete(actor, at)
	a.IsActive = false
}

var (
	_ shared.Auditable     = (*Account)(nil)
	_ shared.SoftDeletable = (*Account)(nil)
	_ shared.Stampable     = (*Account)(nil)
)
