package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEntryNumberAllocator hands out journal entry numbers from the
// entry_number_sequences counter row of each tenant and year.
//
// The increment is a single UPDATE ... SET last_value = last_value + 1, so the
// row lock serializes concurrent callers until their transactions end. The
// first allocation of a year seeds the row from the entries already numbered
// with that year's prefix.
type GormEntryNumberAllocator struct {
	uow *GormUnitOfWork
}

// NewGormEntryNumberAllocator creates a new GormEntryNumberAllocator
func NewGormEntryNumberAllocator(uow *GormUnitOfWork) *GormEntryNumberAllocator {
	return &GormEntryNumberAllocator{uow: uow}
}

// NextEntryNumber consumes and returns the next number, inside the caller's
// transaction when ctx carries one
func (a *GormEntryNumberAllocator) NextEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error) {
	var number string
	err := a.uow.Execute(ctx, func(ctx context.Context) error {
		tx := a.uow.DB(ctx)

		affected, err := a.increment(tx, tenantID, year)
		if err != nil {
			return err
		}
		if affected == 0 {
			if err := a.seed(tx, tenantID, year); err != nil {
				return err
			}
			if affected, err = a.increment(tx, tenantID, year); err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("entry number sequence for %d is missing after seeding", year)
			}
		}

		var seq models.EntryNumberSequenceModel
		if err := tx.Scopes(tenant.Scope(tenantID)).Where("year = ?", year).First(&seq).Error; err != nil {
			return fmt.Errorf("failed to read entry number sequence: %w", err)
		}
		number = ledger.FormatEntryNumber(year, seq.LastValue)
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// PeekEntryNumber returns the number the next allocation would produce
// without consuming it
func (a *GormEntryNumberAllocator) PeekEntryNumber(ctx context.Context, tenantID uuid.UUID, year int) (string, error) {
	tx := a.uow.DB(ctx)

	var seq models.EntryNumberSequenceModel
	err := tx.Scopes(tenant.Scope(tenantID)).Where("year = ?", year).First(&seq).Error
	switch {
	case err == nil:
		return ledger.FormatEntryNumber(year, seq.LastValue+1), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		last, err := a.highestIssued(tx, tenantID, year)
		if err != nil {
			return "", err
		}
		return ledger.FormatEntryNumber(year, last+1), nil
	default:
		return "", fmt.Errorf("failed to read entry number sequence: %w", err)
	}
}

func (a *GormEntryNumberAllocator) increment(tx *gorm.DB, tenantID uuid.UUID, year int) (int64, error) {
	result := tx.Model(&models.EntryNumberSequenceModel{}).
		Scopes(tenant.Scope(tenantID)).Where("year = ?", year).
		UpdateColumns(map[string]any{
			"last_value": gorm.Expr("last_value + ?", 1),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment entry number sequence: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// seed creates the counter row. A concurrent seeder wins silently; the
// caller's next increment then waits on its row lock.
func (a *GormEntryNumberAllocator) seed(tx *gorm.DB, tenantID uuid.UUID, year int) error {
	last, err := a.highestIssued(tx, tenantID, year)
	if err != nil {
		return err
	}
	seq := models.EntryNumberSequenceModel{
		TenantID:  tenantID,
		Year:      year,
		LastValue: last,
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "year"}},
		DoNothing: true,
	}).Create(&seq).Error; err != nil {
		return fmt.Errorf("failed to seed entry number sequence: %w", err)
	}
	return nil
}

// highestIssued returns the count of entries already numbered in the year,
// or the highest sequence among them if numbering has gaps
func (a *GormEntryNumberAllocator) highestIssued(tx *gorm.DB, tenantID uuid.UUID, year int) (int64, error) {
	var numbers []string
	if err := tx.Model(&models.JournalEntryModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("entry_number LIKE ?", ledger.EntryNumberPrefix(year)+"%").
		Pluck("entry_number", &numbers).Error; err != nil {
		return 0, fmt.Errorf("failed to count existing entry numbers: %w", err)
	}

	highest := int64(len(numbers))
	for _, n := range numbers {
		if _, seq, err := ledger.ParseEntryNumber(n); err == nil && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

// Ensure GormEntryNumberAllocator implements EntryNumberAllocator
var _ ledger.EntryNumberAllocator = (*GormEntryNumberAllocator)(nil)
