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

// GormJournalEntryRepository implements ledger.JournalEntryRepository using GORM.
// Headers and lines live in separate tables; lines are registered with the
// unit of work as their own entities so each gets its own audit record.
type GormJournalEntryRepository struct {
	uow *GormUnitOfWork
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(uow *GormUnitOfWork) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{uow: uow}
}

func (r *GormJournalEntryRepository) entries(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.uow.DB(ctx).Model(&models.JournalEntryModel{}).Scopes(tenant.Scope(tenantID))
}

// FindByIDForTenant loads an entry with its lines in line order
func (r *GormJournalEntryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.entries(ctx, tenantID).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	entry := model.ToDomain()
	s := SessionFromContext(ctx)
	if s != nil && s.IsTracked(entry) {
		return s.Track(entry).(*ledger.JournalEntry), nil
	}

	lines, err := r.loadLines(ctx, []uuid.UUID{entry.ID})
	if err != nil {
		return nil, err
	}
	entry.Lines = lines[entry.ID]
	if entry.Lines == nil {
		entry.Lines = make([]ledger.JournalEntryLine, 0)
	}

	if s != nil {
		s.Track(entry)
		for i := range entry.Lines {
			s.Track(&entry.Lines[i])
		}
	}
	return entry, nil
}

// FindAllForTenant lists entry headers; lines are not loaded
func (r *GormJournalEntryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalEntryFilter) ([]*ledger.JournalEntry, error) {
	query := r.applyFilter(r.entries(ctx, tenantID), filter)
	query = applyPageAndOrder(query, filter.Filter, JournalEntrySortFields, "entry_number", "DESC")

	var entryModels []models.JournalEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, err
	}
	entries := make([]*ledger.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// CountForTenant counts entries matching the filter
func (r *GormJournalEntryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalEntryFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.entries(ctx, tenantID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsBySourceEvent reports whether an entry was already generated from the event
// Entries registered but not yet flushed by the enclosing unit of work count too.
func (r *GormJournalEntryRepository) ExistsBySourceEvent(ctx context.Context, tenantID, eventID uuid.UUID) (bool, error) {
	if s := SessionFromContext(ctx); s != nil {
		for _, e := range s.PendingSaves() {
			entry, ok := e.(*ledger.JournalEntry)
			if ok && entry.TenantID == tenantID && entry.SourceEventID != nil && *entry.SourceEventID == eventID {
				return true, nil
			}
		}
	}

	var count int64
	if err := r.entries(ctx, tenantID).Where("source_event_id = ?", eventID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByPeriod counts entries booked in a fiscal period
func (r *GormJournalEntryRepository) CountByPeriod(ctx context.Context, tenantID, periodID uuid.UUID) (int64, error) {
	var count int64
	if err := r.entries(ctx, tenantID).Where("fiscal_period_id = ?", periodID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save registers the header and every line. Lines loaded with the entry are
// updates (and skipped when unchanged); appended lines are inserts.
func (r *GormJournalEntryRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	return r.uow.Execute(ctx, func(ctx context.Context) error {
		s := SessionFromContext(ctx)
		s.Save(journalEntryChange(entry))
		for i := range entry.Lines {
			s.Save(journalEntryLineChange(entry, &entry.Lines[i]))
		}
		return nil
	})
}

// Delete physically removes a draft entry and its lines
func (r *GormJournalEntryRepository) Delete(ctx context.Context, entry *ledger.JournalEntry) error {
	if err := entry.EnsureDeletable(); err != nil {
		return err
	}
	return r.uow.Execute(ctx, func(ctx context.Context) error {
		s := SessionFromContext(ctx)
		for i := range entry.Lines {
			s.Delete(journalEntryLineChange(entry, &entry.Lines[i]))
		}
		s.Delete(journalEntryChange(entry))
		return nil
	})
}

func journalEntryChange(entry *ledger.JournalEntry) Change {
	return Change{
		Entity:   entry,
		TenantID: entry.TenantID,
		Writer: Writer{
			Model:     func() any { return models.JournalEntryModelFromDomain(entry) },
			Versioned: true,
		},
	}
}

func journalEntryLineChange(entry *ledger.JournalEntry, line *ledger.JournalEntryLine) Change {
	return Change{
		Entity:   line,
		TenantID: entry.TenantID,
		Writer: Writer{
			Model: func() any { return models.JournalEntryLineModelFromDomain(line) },
		},
	}
}

// loadLines reads the lines of the given entries joined with their accounts
func (r *GormJournalEntryRepository) loadLines(ctx context.Context, entryIDs []uuid.UUID) (map[uuid.UUID][]ledger.JournalEntryLine, error) {
	var rows []models.JournalEntryLineRow
	if err := r.uow.DB(ctx).
		Table("journal_entry_lines AS l").
		Select("l.*, a.code AS account_code, a.name AS account_name").
		Joins("LEFT JOIN accounts AS a ON a.id = l.account_id").
		Where("l.journal_entry_id IN ?", entryIDs).
		Order("l.journal_entry_id, l.line_number ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	lines := make(map[uuid.UUID][]ledger.JournalEntryLine, len(entryIDs))
	for i := range rows {
		line := rows[i].ToDomain()
		lines[line.JournalEntryID] = append(lines[line.JournalEntryID], line)
	}
	return lines, nil
}

func (r *GormJournalEntryRepository) applyFilter(query *gorm.DB, filter ledger.JournalEntryFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(entry_number) LIKE ? OR LOWER(description) LIKE ? OR LOWER(source_reference) LIKE ?",
			pattern, pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.FiscalPeriodID != nil {
		query = query.Where("fiscal_period_id = ?", *filter.FiscalPeriodID)
	}
	if filter.FromDate != nil {
		query = query.Where("entry_date >= ?", ledger.DateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("entry_date <= ?", ledger.DateOnly(*filter.ToDate))
	}
	return query
}

// Ensure GormJournalEntryRepository implements JournalEntryRepository
var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
