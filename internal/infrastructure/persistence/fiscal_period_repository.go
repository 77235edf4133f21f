package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFiscalPeriodRepository implements ledger.FiscalPeriodRepository using GORM
type GormFiscalPeriodRepository struct {
	uow *GormUnitOfWork
}

// NewGormFiscalPeriodRepository creates a new GormFiscalPeriodRepository
func NewGormFiscalPeriodRepository(uow *GormUnitOfWork) *GormFiscalPeriodRepository {
	return &GormFiscalPeriodRepository{uow: uow}
}

func (r *GormFiscalPeriodRepository) live(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.uow.DB(ctx).Model(&models.FiscalPeriodModel{}).
		Scopes(tenant.Live(tenantID))
}

// locked adds a row lock of strength to the live query when ctx carries a
// unit of work. SQLite has no row locks; its writers are serialized anyway.
func (r *GormFiscalPeriodRepository) locked(ctx context.Context, tenantID uuid.UUID, strength string) *gorm.DB {
	query := r.live(ctx, tenantID)
	if SessionFromContext(ctx) != nil && query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: strength})
	}
	return query
}

// FindByIDForTenant finds a fiscal period by ID for a specific tenant
func (r *GormFiscalPeriodRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FiscalPeriod, error) {
	return r.findByID(ctx, r.live(ctx, tenantID), id)
}

// FindByIDForUpdate finds a period and locks its row FOR UPDATE
func (r *GormFiscalPeriodRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.FiscalPeriod, error) {
	return r.findByID(ctx, r.locked(ctx, tenantID, clause.LockingStrengthUpdate), id)
}

func (r *GormFiscalPeriodRepository) findByID(ctx context.Context, query *gorm.DB, id uuid.UUID) (*ledger.FiscalPeriod, error) {
	var model models.FiscalPeriodModel
	if err := query.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.track(ctx, &model), nil
}

// FindContaining finds the period whose inclusive date range contains date.
// Periods never overlap, so at most one row matches.
func (r *GormFiscalPeriodRepository) FindContaining(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.FiscalPeriod, error) {
	day := ledger.DateOnly(date)
	var model models.FiscalPeriodModel
	if err := r.locked(ctx, tenantID, clause.LockingStrengthShare).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Order("start_date ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.track(ctx, &model), nil
}

// FindAllForTenant finds periods for a tenant, ordered by start date by default
func (r *GormFiscalPeriodRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FiscalPeriodFilter) ([]*ledger.FiscalPeriod, error) {
	query := r.applyFilter(r.live(ctx, tenantID), filter)
	query = applyPageAndOrder(query, filter.Filter, FiscalPeriodSortFields, "start_date", "ASC")

	var periodModels []models.FiscalPeriodModel
	if err := query.Find(&periodModels).Error; err != nil {
		return nil, err
	}
	periods := make([]*ledger.FiscalPeriod, len(periodModels))
	for i := range periodModels {
		periods[i] = r.track(ctx, &periodModels[i])
	}
	return periods, nil
}

// CountForTenant counts periods matching the filter
func (r *GormFiscalPeriodRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.FiscalPeriodFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.live(ctx, tenantID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsOverlapping reports whether a live period other than excludeID shares a day with [start, end]
func (r *GormFiscalPeriodRepository) ExistsOverlapping(ctx context.Context, tenantID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.live(ctx, tenantID).
		Where("start_date <= ? AND end_date >= ?", ledger.DateOnly(end), ledger.DateOnly(start))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save registers the period with the unit of work
func (r *GormFiscalPeriodRepository) Save(ctx context.Context, period *ledger.FiscalPeriod) error {
	return r.uow.Execute(ctx, func(ctx context.Context) error {
		SessionFromContext(ctx).Save(fiscalPeriodChange(period))
		return nil
	})
}

// Delete registers the removal of the period; periods are soft deleted
func (r *GormFiscalPeriodRepository) Delete(ctx context.Context, period *ledger.FiscalPeriod) error {
	return r.uow.Execute(ctx, func(ctx context.Context) error {
		SessionFromContext(ctx).Delete(fiscalPeriodChange(period))
		return nil
	})
}

func fiscalPeriodChange(period *ledger.FiscalPeriod) Change {
	return Change{
		Entity:   period,
		TenantID: period.TenantID,
		Writer: Writer{
			Model:     func() any { return models.FiscalPeriodModelFromDomain(period) },
			Versioned: true,
		},
	}
}

func (r *GormFiscalPeriodRepository) track(ctx context.Context, model *models.FiscalPeriodModel) *ledger.FiscalPeriod {
	period := model.ToDomain()
	if s := SessionFromContext(ctx); s != nil {
		return s.Track(period).(*ledger.FiscalPeriod)
	}
	return period
}

func (r *GormFiscalPeriodRepository) applyFilter(query *gorm.DB, filter ledger.FiscalPeriodFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(code) LIKE ?", likePattern(filter.Search))
	}
	if filter.FiscalYear != nil {
		query = query.Where("fiscal_year = ?", *filter.FiscalYear)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormFiscalPeriodRepository implements FiscalPeriodRepository
var _ ledger.FiscalPeriodRepository = (*GormFiscalPeriodRepository)(nil)
