package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountRepository implements ledger.AccountRepository using GORM.
// Soft-deleted accounts are invisible to every query except ExistsByCode.
type GormAccountRepository struct {
	uow *GormUnitOfWork
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(uow *GormUnitOfWork) *GormAccountRepository {
	return &GormAccountRepository{uow: uow}
}

func (r *GormAccountRepository) live(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.uow.DB(ctx).Model(&models.AccountModel{}).
		Scopes(tenant.Live(tenantID))
}

// FindByIDForTenant finds an account by ID for a specific tenant
func (r *GormAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.live(ctx, tenantID).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.track(ctx, &model), nil
}

// FindByIDsForTenant finds the accounts with the given IDs; missing IDs are skipped
func (r *GormAccountRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*ledger.Account, error) {
	if len(ids) == 0 {
		return []*ledger.Account{}, nil
	}
	var accountModels []models.AccountModel
	if err := r.live(ctx, tenantID).Where("id IN ?", ids).Order("code ASC").Find(&accountModels).Error; err != nil {
		return nil, err
	}
	return r.trackAll(ctx, accountModels), nil
}

// FindByCode finds an account by its code
func (r *GormAccountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.live(ctx, tenantID).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.track(ctx, &model), nil
}

// FindAllForTenant finds accounts for a tenant with filtering, ordered by code by default
func (r *GormAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) ([]*ledger.Account, error) {
	query := r.applyFilter(r.live(ctx, tenantID), filter)
	query = applyPageAndOrder(query, filter.Filter, AccountSortFields, "code", "ASC")

	var accountModels []models.AccountModel
	if err := query.Find(&accountModels).Error; err != nil {
		return nil, err
	}
	return r.trackAll(ctx, accountModels), nil
}

// CountForTenant counts accounts matching the filter
func (r *GormAccountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.live(ctx, tenantID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks the code against every account of the tenant, deleted ones included,
// since the unique index covers them too
func (r *GormAccountRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.uow.DB(ctx).Model(&models.AccountModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save registers the account with the unit of work
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	return r.uow.Execute(ctx, func(ctx context.Context) error {
		SessionFromContext(ctx).Save(accountChange(account))
		return nil
	})
}

// Delete registers the removal of the account; accounts are soft deleted
func (r *GormAccountRepository) Delete(ctx context.Context, account *ledger.Account) error {
	return r.uow.Execute(ctx, func(ctx context.Context) error {
		SessionFromContext(ctx).Delete(accountChange(account))
		return nil
	})
}

func accountChange(account *ledger.Account) Change {
	return Change{
		Entity:   account,
		TenantID: account.TenantID,
		Writer: Writer{
			Model:     func() any { return models.AccountModelFromDomain(account) },
			Versioned: true,
		},
	}
}

func (r *GormAccountRepository) track(ctx context.Context, model *models.AccountModel) *ledger.Account {
	account := model.ToDomain()
	if s := SessionFromContext(ctx); s != nil {
		return s.Track(account).(*ledger.Account)
	}
	return account
}

func (r *GormAccountRepository) trackAll(ctx context.Context, accountModels []models.AccountModel) []*ledger.Account {
	accounts := make([]*ledger.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = r.track(ctx, &accountModels[i])
	}
	return accounts
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter ledger.AccountFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.IsHeader != nil {
		query = query.Where("is_header = ?", *filter.IsHeader)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CodePrefix != "" {
		query = query.Where("code LIKE ?", filter.CodePrefix+"%")
	}
	return query
}

// Ensure GormAccountRepository implements AccountRepository
var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
