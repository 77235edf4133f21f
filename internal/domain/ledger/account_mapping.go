package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// AccountRole names the part an account plays in an automatic posting
type AccountRole string

const (
	RoleExpense            AccountRole = "expense"
	RoleAccountsPayable    AccountRole = "accounts_payable"
	RoleAccountsReceivable AccountRole = "accounts_receivable"
	RoleChequePortfolio    AccountRole = "cheque_portfolio"
	RoleBankCollection     AccountRole = "bank_collection"
	RoleBank               AccountRole = "bank"
)

// AllAccountRoles lists every role a mapping must configure
func AllAccountRoles() []AccountRole {
	return []AccountRole{
		RoleExpense,
		RoleAccountsPayable,
		RoleAccountsReceivable,
		RoleChequePortfolio,
		RoleBankCollection,
		RoleBank,
	}
}

// AccountMapping maps each role to the account code prefix that fills it
type AccountMapping map[AccountRole]string

// DefaultAccountMapping returns the standard chart prefixes
func DefaultAccountMapping() AccountMapping {
	return AccountMapping{
		RoleExpense:            "770",
		RoleAccountsPayable:    "320",
		RoleAccountsReceivable: "120",
		RoleChequePortfolio:    "101",
		RoleBankCollection:     "101.02",
		RoleBank:               "102",
	}
}

// Validate checks that every role has a non-empty prefix
func (m AccountMapping) Validate() error {
	for _, role := range AllAccountRoles() {
		if strings.TrimSpace(m[role]) == "" {
			return fmt.Errorf("account mapping for role %q is not configured", role)
		}
	}
	for role := range m {
		known := false
		for _, r := range AllAccountRoles() {
			if r == role {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown account role %q", role)
		}
	}
	return nil
}

// Match picks the account filling role: the postable account with the
// lowest code starting with the role's prefix. Accounts that also start with
// a longer configured prefix belong to that more specific role, so the
// portfolio role ("101") never resolves to a bank collection account ("101.02").
func (m AccountMapping) Match(role AccountRole, accounts []*Account) *Account {
	prefix, ok := m[role]
	if !ok || prefix == "" {
		return nil
	}

	candidates := make([]*Account, 0)
	for _, a := range accounts {
		if a == nil || !a.CanReceivePostings() || !strings.HasPrefix(a.Code, prefix) {
			continue
		}
		if m.claimedByLongerPrefix(a.Code, prefix) {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Code < candidates[j].Code })
	return candidates[0]
}

func (m AccountMapping) claimedByLongerPrefix(code, prefix string) bool {
	for _, other := range m {
		if len(other) > len(prefix) && strings.HasPrefix(other, prefix) && strings.HasPrefix(code, other) {
			return true
		}
	}
	return false
}

// PostingRule describes the two lines of an automatic posting.
// DebitFallback, when set, is used if no account fills the Debit role.
type PostingRule struct {
	Debit         AccountRole
	DebitFallback AccountRole
	Credit        AccountRole
}

// Posting rules of the translators
var (
	InvoiceApprovedRule = PostingRule{Debit: RoleExpense, Credit: RoleAccountsPayable}
	// PaymentCreatedRule has no credit role: the payment names its bank account
	PaymentCreatedRule = PostingRule{Debit: RoleAccountsReceivable, DebitFallback: RoleAccountsPayable}
	ChequeCreatedRule  = PostingRule{Debit: RoleChequePortfolio, Credit: RoleAccountsReceivable}
)

type chequeTransition struct {
	from ChequeStatus
	to   ChequeStatus
}

var chequeTransitionRules = map[chequeTransition]PostingRule{
	{ChequeStatusPortfolio, ChequeStatusBankCollection}: {Debit: RoleBankCollection, DebitFallback: RoleChequePortfolio, Credit: RoleChequePortfolio},
	{ChequeStatusBankCollection, ChequeStatusPaid}:      {Debit: RoleBank, Credit: RoleBankCollection},
}

// ChequeTransitionRule returns the posting for a cheque status change.
// Transitions without a rule post nothing.
func ChequeTransitionRule(from, to ChequeStatus) (PostingRule, bool) {
	rule, ok := chequeTransitionRules[chequeTransition{from: from, to: to}]
	return rule, ok
}
