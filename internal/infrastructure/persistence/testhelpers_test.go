package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupLedgerTestDB opens a private in-memory sqlite database with the ledger schema.
// One connection keeps every statement on the same in-memory database.
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

// recordingOutbox captures the events handed to the outbox
type recordingOutbox struct {
	events []shared.DomainEvent
	err    error
}

func (o *recordingOutbox) SaveEvents(_ context.Context, _ interface{}, events ...shared.DomainEvent) error {
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, events...)
	return nil
}

type ledgerFixture struct {
	db       *gorm.DB
	uow      *GormUnitOfWork
	outbox   *recordingOutbox
	accounts *GormAccountRepository
	periods  *GormFiscalPeriodRepository
	entries  *GormJournalEntryRepository
	audits   *GormAuditLogRepository
	numbers  *GormEntryNumberAllocator
	tenantID uuid.UUID
	userID   uuid.UUID
	ctx      context.Context
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	return newLedgerFixtureOn(t, setupLedgerTestDB(t))
}

// newLedgerFixtureOn builds the repositories of a fresh tenant over db
func newLedgerFixtureOn(t *testing.T, db *gorm.DB) *ledgerFixture {
	t.Helper()
	outbox := &recordingOutbox{}
	clock := &stepClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	uow := NewGormUnitOfWork(db, WithOutboxSaver(outbox), WithClock(clock.Now))
	tenantID, userID := uuid.New(), uuid.New()

	ctx := logger.WithTenantID(context.Background(), tenantID)
	ctx = logger.WithUserID(ctx, userID)

	return &ledgerFixture{
		db:       db,
		uow:      uow,
		outbox:   outbox,
		accounts: NewGormAccountRepository(uow),
		periods:  NewGormFiscalPeriodRepository(uow),
		entries:  NewGormJournalEntryRepository(uow),
		audits:   NewGormAuditLogRepository(uow),
		numbers:  NewGormEntryNumberAllocator(uow),
		tenantID: tenantID,
		userID:   userID,
		ctx:      ctx,
	}
}

func (f *ledgerFixture) createAccount(t *testing.T, code string, accountType ledger.AccountType) *ledger.Account {
	t.Helper()
	account, err := ledger.NewAccount(f.tenantID, code, "Account "+code, accountType, false, nil)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Save(f.ctx, account))
	return account
}

func (f *ledgerFixture) createPeriod(t *testing.T, code string, start, end time.Time) *ledger.FiscalPeriod {
	t.Helper()
	period, err := ledger.NewFiscalPeriod(f.tenantID, code, start, end, start.Year(), int(start.Month()), false)
	require.NoError(t, err)
	require.NoError(t, f.periods.Save(f.ctx, period))
	return period
}

// createPostedEntry books amount from debit to credit in its own unit of work
func (f *ledgerFixture) createPostedEntry(t *testing.T, number string, period *ledger.FiscalPeriod, date time.Time,
	debit, credit *ledger.Account, amount decimal.Decimal) *ledger.JournalEntry {
	t.Helper()
	entry, err := ledger.NewJournalEntry(f.tenantID, number, period.ID, date, f.userID,
		ledger.SourceTypeManual, nil, "", "test entry")
	require.NoError(t, err)
	_, err = entry.AddLine(debit, amount, decimal.Zero, "debit")
	require.NoError(t, err)
	_, err = entry.AddLine(credit, decimal.Zero, amount, "credit")
	require.NoError(t, err)
	require.NoError(t, entry.Post(f.userID))
	require.NoError(t, f.entries.Save(f.ctx, entry))
	return entry
}

func (f *ledgerFixture) auditLogsFor(t *testing.T, entityID uuid.UUID) []*ledger.AuditLog {
	t.Helper()
	filter := ledger.AuditLogFilter{EntityID: &entityID}
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"
	logs, err := f.audits.FindAllForTenant(f.ctx, f.tenantID, filter)
	require.NoError(t, err)
	return logs
}

// stepClock advances one second per reading so audit records sort by flush order
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
