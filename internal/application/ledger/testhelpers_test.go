package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// recordingMetrics collects posting outcomes
type recordingMetrics struct {
	mu      sync.Mutex
	posted  []string
	skipped []string
	periods []string
}

func (m *recordingMetrics) RecordEntryPosted(_ context.Context, _ uuid.UUID, sourceType string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, sourceType)
}

func (m *recordingMetrics) RecordPostingSkipped(_ context.Context, eventType, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped = append(m.skipped, eventType+":"+role)
}

func (m *recordingMetrics) RecordPeriodStatusChange(_ context.Context, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods = append(m.periods, from+"->"+to)
}

// ledgerFixture wires the services over an in-memory sqlite ledger
type ledgerFixture struct {
	db        *gorm.DB
	uow       *persistence.GormUnitOfWork
	accounts  *persistence.GormAccountRepository
	periods   *persistence.GormFiscalPeriodRepository
	entries   *persistence.GormJournalEntryRepository
	audits    *persistence.GormAuditLogRepository
	allocator *persistence.GormEntryNumberAllocator
	metrics   *recordingMetrics

	periodSvc  *FiscalPeriodService
	resolver   *AccountResolver
	posting    *PostingService
	journal    *JournalEntryService
	accountSvc *AccountService

	tenantID uuid.UUID
	userID   uuid.UUID
	ctx      context.Context
}

func newLedgerFixture(t *testing.T, opts ...PostingServiceOption) *ledgerFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	log := zap.NewNop()
	uow := persistence.NewGormUnitOfWork(db)
	f := &ledgerFixture{
		db:        db,
		uow:       uow,
		accounts:  persistence.NewGormAccountRepository(uow),
		periods:   persistence.NewGormFiscalPeriodRepository(uow),
		entries:   persistence.NewGormJournalEntryRepository(uow),
		audits:    persistence.NewGormAuditLogRepository(uow),
		allocator: persistence.NewGormEntryNumberAllocator(uow),
		metrics:   &recordingMetrics{},
		tenantID:  uuid.New(),
		userID:    uuid.New(),
	}
	f.ctx = logger.WithUserID(logger.WithTenantID(context.Background(), f.tenantID), f.userID)

	f.resolver, err = NewAccountResolver(f.accounts, ledger.DefaultAccountMapping())
	require.NoError(t, err)
	f.periodSvc = NewFiscalPeriodService(uow, f.periods, f.entries, f.metrics, log)
	opts = append([]PostingServiceOption{WithPostingMetrics(f.metrics)}, opts...)
	f.posting = NewPostingService(uow, f.accounts, f.entries, f.allocator, f.periodSvc, f.resolver, log, opts...)
	f.journal = NewJournalEntryService(uow, f.accounts, f.entries, f.allocator, f.periodSvc, f.metrics, log)
	f.accountSvc = NewAccountService(uow, f.accounts, f.resolver, log)
	return f
}

func (f *ledgerFixture) addAccount(t *testing.T, code string, accountType ledger.AccountType) *ledger.Account {
	t.Helper()
	resp, err := f.accountSvc.CreateAccount(f.ctx, f.tenantID, CreateAccountRequest{
		Code: code,
		Name: "Account " + code,
		Type: string(accountType),
	})
	require.NoError(t, err)
	account, err := f.accounts.FindByIDForTenant(f.ctx, f.tenantID, resp.ID)
	require.NoError(t, err)
	return account
}

func (f *ledgerFixture) addPeriod(t *testing.T, code string, start, end time.Time) *FiscalPeriodResponse {
	t.Helper()
	resp, err := f.periodSvc.CreatePeriod(f.ctx, f.tenantID, CreateFiscalPeriodRequest{
		Code:         code,
		StartDate:    start,
		EndDate:      end,
		FiscalYear:   start.Year(),
		PeriodNumber: int(start.Month()),
	})
	require.NoError(t, err)
	return resp
}

// addJanuary opens January 2026
func (f *ledgerFixture) addJanuary(t *testing.T) *FiscalPeriodResponse {
	return f.addPeriod(t, "2026-01", day(2026, time.January, 1), day(2026, time.January, 31))
}

func (f *ledgerFixture) entryCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.JournalEntryModel{}).Where("tenant_id = ?", f.tenantID).Count(&count).Error)
	return count
}

func (f *ledgerFixture) onlyEntry(t *testing.T) *ledger.JournalEntry {
	t.Helper()
	entries, err := f.entries.FindAllForTenant(f.ctx, f.tenantID, ledger.JournalEntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry, err := f.entries.FindByIDForTenant(f.ctx, f.tenantID, entries[0].ID)
	require.NoError(t, err)
	return entry
}

func (f *ledgerFixture) assertBalance(t *testing.T, id uuid.UUID, want int64) {
	t.Helper()
	account, err := f.accounts.FindByIDForTenant(f.ctx, f.tenantID, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(want).Equal(account.Balance),
		"balance of %s: want %d, got %s", account.Code, want, account.Balance)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
