package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryNumberAllocator_FirstNumberOfYear(t *testing.T) {
	f := newLedgerFixture(t)

	number, err := f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0001", number)

	number, err = f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0002", number)
}

func TestEntryNumberAllocator_ContinuesAfterExistingEntries(t *testing.T) {
	f := newLedgerFixture(t)
	period := f.createPeriod(t, "2026-03", day(2026, 3, 1), day(2026, 3, 31))
	debit := f.createAccount(t, "770.01", ledger.AccountTypeExpense)
	credit := f.createAccount(t, "320.01", ledger.AccountTypeLiability)

	for i := 1; i <= 4; i++ {
		f.createPostedEntry(t, ledger.FormatEntryNumber(2026, int64(i)), period, day(2026, 3, i),
			debit, credit, decimal.NewFromInt(10))
	}

	number, err := f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0005", number)
}

func TestEntryNumberAllocator_SeedsPastGaps(t *testing.T) {
	f := newLedgerFixture(t)
	period := f.createPeriod(t, "2026-03", day(2026, 3, 1), day(2026, 3, 31))
	debit := f.createAccount(t, "770.01", ledger.AccountTypeExpense)
	credit := f.createAccount(t, "320.01", ledger.AccountTypeLiability)
	f.createPostedEntry(t, "JE-2026-0007", period, day(2026, 3, 2), debit, credit, decimal.NewFromInt(10))

	number, err := f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0008", number)
}

func TestEntryNumberAllocator_TenantsAndYearsAreIndependent(t *testing.T) {
	f := newLedgerFixture(t)
	other := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
		require.NoError(t, err)
	}

	number, err := f.numbers.NextEntryNumber(f.ctx, other, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0001", number)

	number, err = f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2027)
	require.NoError(t, err)
	assert.Equal(t, "JE-2027-0001", number)

	number, err = f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0004", number)
}

func TestEntryNumberAllocator_PeekDoesNotConsume(t *testing.T) {
	f := newLedgerFixture(t)

	peeked, err := f.numbers.PeekEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0001", peeked)

	_, err = f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		peeked, err = f.numbers.PeekEntryNumber(f.ctx, f.tenantID, 2026)
		require.NoError(t, err)
		assert.Equal(t, "JE-2026-0002", peeked)
	}

	next, err := f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, peeked, next)
}

func TestEntryNumberAllocator_RolledBackAllocationIsReused(t *testing.T) {
	f := newLedgerFixture(t)

	err := f.uow.Execute(f.ctx, func(ctx context.Context) error {
		number, err := f.numbers.NextEntryNumber(ctx, f.tenantID, 2026)
		require.NoError(t, err)
		assert.Equal(t, "JE-2026-0001", number)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	number, err := f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0001", number)
}

func TestEntryNumberAllocator_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	f := newLedgerFixture(t)
	const workers = 12

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, workers)
		errs    = make([]error, 0)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := f.numbers.NextEntryNumber(f.ctx, f.tenantID, 2026)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[number] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, workers)
	for i := 1; i <= workers; i++ {
		assert.Contains(t, numbers, fmt.Sprintf("JE-2026-%04d", i))
	}
}

func TestEntryNumberAllocator_IncrementsExistingSequenceRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	allocator := NewGormEntryNumberAllocator(NewGormUnitOfWork(db.DB))

	mock.ExpectBegin()
	// scopes are applied after chained conditions, so the tenant filter may come last
	mock.ExpectExec(`UPDATE "entry_number_sequences" SET .*last_value \+ .* WHERE (year = \$\d+ AND tenant_id = \$\d+|tenant_id = \$\d+ AND year = \$\d+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "entry_number_sequences" WHERE (year = \$1 AND tenant_id = \$2|tenant_id = \$1 AND year = \$2)`).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "year", "last_value", "updated_at"}).
			AddRow(tenantID, 2026, 42, time.Now()))
	mock.ExpectCommit()

	number, err := allocator.NextEntryNumber(context.Background(), tenantID, 2026)
	require.NoError(t, err)
	assert.Equal(t, "JE-2026-0042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}
