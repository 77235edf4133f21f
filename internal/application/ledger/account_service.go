package ledger

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountService maintains the chart of accounts. Every change drops the
// tenant's resolved account mapping.
type AccountService struct {
	uow      shared.UnitOfWork
	accounts ledger.AccountRepository
	resolver *AccountResolver
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(uow shared.UnitOfWork, accounts ledger.AccountRepository, resolver *AccountResolver, logger *zap.Logger) *AccountService {
	return &AccountService{uow: uow, accounts: accounts, resolver: resolver, logger: logger}
}

// CreateAccount adds an account under an optional header parent
func (s *AccountService) CreateAccount(ctx context.Context, tenantID uuid.UUID, req CreateAccountRequest) (*AccountResponse, error) {
	var account *ledger.Account
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		exists, err := s.accounts.ExistsByCode(ctx, tenantID, req.Code)
		if err != nil {
			return fmt.Errorf("failed to check account code: %w", err)
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Account code %s already exists", req.Code))
		}

		var parent *ledger.Account
		if req.ParentAccountID != nil {
			if parent, err = s.accounts.FindByIDForTenant(ctx, tenantID, *req.ParentAccountID); err != nil {
				return err
			}
		}

		account, err = ledger.NewAccount(tenantID, req.Code, req.Name, ledger.AccountType(req.Type), req.IsHeader, parent)
		if err != nil {
			return err
		}
		if req.IsBankAccount {
			account.MarkAsBankAccount()
		}
		return s.accounts.Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.resolver.Invalidate(tenantID)
	s.logger.Info("account created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("code", account.Code),
		zap.String("type", account.Type.String()),
	)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// GetAccount returns one account
func (s *AccountService) GetAccount(ctx context.Context, tenantID, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.accounts.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// ListAccounts lists accounts ordered by code
func (s *AccountService) ListAccounts(ctx context.Context, tenantID uuid.UUID, f AccountListFilter) (shared.Paginated[AccountResponse], error) {
	filter := ledger.AccountFilter{
		Filter:     pageFilter(f.Page, f.PageSize, f.Search, f.OrderBy, f.OrderDir),
		IsHeader:   f.IsHeader,
		IsActive:   f.IsActive,
		CodePrefix: f.CodePrefix,
	}
	if f.Type != "" {
		t := ledger.AccountType(f.Type)
		filter.Type = &t
	}

	accounts, err := s.accounts.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[AccountResponse]{}, err
	}
	total, err := s.accounts.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[AccountResponse]{}, err
	}
	items := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		items[i] = ToAccountResponse(a)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// DeactivateAccount stops an account from receiving postings
func (s *AccountService) DeactivateAccount(ctx context.Context, tenantID, id uuid.UUID) (*AccountResponse, error) {
	var account *ledger.Account
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		if account, err = s.accounts.FindByIDForTenant(ctx, tenantID, id); err != nil {
			return err
		}
		account.Deactivate()
		return s.accounts.Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	s.resolver.Invalidate(tenantID)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// DeleteAccount soft deletes an account with a zero balance
func (s *AccountService) DeleteAccount(ctx context.Context, tenantID, id uuid.UUID) error {
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		account, err := s.accounts.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := account.EnsureDeletable(); err != nil {
			return err
		}
		return s.accounts.Delete(ctx, account)
	})
	if err != nil {
		return err
	}
	s.resolver.Invalidate(tenantID)
	s.logger.Info("account deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("account_id", id.String()),
	)
	return nil
}
