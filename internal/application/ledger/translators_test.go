package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInvoiceApproved_PostsBalancedEntry(t *testing.T) {
	f := newLedgerFixture(t)
	period := f.addJanuary(t)
	expense := f.addAccount(t, "770001", ledger.AccountTypeExpense)
	payable := f.addAccount(t, "320001", ledger.AccountTypeLiability)

	invoiceID := uuid.New()
	event := ledger.NewInvoiceApprovedEvent(f.tenantID, invoiceID, "INV-001", "Acme Supplies",
		decimal.NewFromInt(1000), day(2026, time.January, 15))

	handler := NewInvoiceApprovedHandler(f.posting, zap.NewNop())
	require.NoError(t, handler.Handle(f.ctx, event))

	entry := f.onlyEntry(t)
	assert.Equal(t, ledger.EntryStatusPosted, entry.Status)
	assert.Equal(t, "JE-2026-0001", entry.EntryNumber)
	assert.Equal(t, period.ID, entry.FiscalPeriodID)
	assert.Equal(t, ledger.SourceTypeInvoice, entry.SourceType)
	assert.Equal(t, "INV-001", entry.SourceReference)
	require.NotNil(t, entry.SourceID)
	assert.Equal(t, invoiceID, *entry.SourceID)
	assert.True(t, decimal.NewFromInt(1000).Equal(entry.TotalDebit))
	assert.True(t, decimal.NewFromInt(1000).Equal(entry.TotalCredit))

	require.Len(t, entry.Lines, 2)
	assert.Equal(t, expense.ID, entry.Lines[0].AccountID)
	assert.Equal(t, "770001", entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].IsDebit())
	assert.Equal(t, payable.ID, entry.Lines[1].AccountID)
	assert.False(t, entry.Lines[1].IsDebit())

	f.assertBalance(t, expense.ID, 1000)
	f.assertBalance(t, payable.ID, 1000)
	assert.Equal(t, []string{"Invoice"}, f.metrics.posted)
}

func TestInvoiceApproved_ClosedPeriodFailsWithoutEntry(t *testing.T) {
	f := newLedgerFixture(t)
	period := f.addJanuary(t)
	expense := f.addAccount(t, "770001", ledger.AccountTypeExpense)
	f.addAccount(t, "320001", ledger.AccountTypeLiability)

	_, err := f.periodSvc.ClosePeriod(f.ctx, f.tenantID, period.ID)
	require.NoError(t, err)

	event := ledger.NewInvoiceApprovedEvent(f.tenantID, uuid.New(), "INV-002", "Acme Supplies",
		decimal.NewFromInt(1000), day(2026, time.January, 15))
	err = NewInvoiceApprovedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrNoOpenPeriod))
	assert.Zero(t, f.entryCount(t))
	f.assertBalance(t, expense.ID, 0)
}

func TestInvoiceApproved_NoPeriodForDate(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	f.addAccount(t, "770001", ledger.AccountTypeExpense)
	f.addAccount(t, "320001", ledger.AccountTypeLiability)

	event := ledger.NewInvoiceApprovedEvent(f.tenantID, uuid.New(), "INV-003", "Acme",
		decimal.NewFromInt(50), day(2026, time.March, 2))
	err := NewInvoiceApprovedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event)

	assert.True(t, errors.Is(err, ledger.ErrNoOpenPeriod))
	assert.Zero(t, f.entryCount(t))
}

func TestInvoiceApproved_MissingAccountIsFatalEvenWhenLenient(t *testing.T) {
	f := newLedgerFixture(t, WithStrictAccountMapping(false))
	f.addJanuary(t)
	f.addAccount(t, "770001", ledger.AccountTypeExpense)

	event := ledger.NewInvoiceApprovedEvent(f.tenantID, uuid.New(), "INV-004", "Acme",
		decimal.NewFromInt(10), day(2026, time.January, 3))
	err := NewInvoiceApprovedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event)

	assert.True(t, errors.Is(err, ledger.ErrAccountMappingMissing))
	assert.Contains(t, err.Error(), "320")
	assert.Zero(t, f.entryCount(t))
}

func TestInvoiceApproved_RedeliveryPostsOnce(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	expense := f.addAccount(t, "770001", ledger.AccountTypeExpense)
	f.addAccount(t, "320001", ledger.AccountTypeLiability)

	event := ledger.NewInvoiceApprovedEvent(f.tenantID, uuid.New(), "INV-005", "Acme",
		decimal.NewFromInt(300), day(2026, time.January, 9))
	handler := NewInvoiceApprovedHandler(f.posting, zap.NewNop())
	require.NoError(t, handler.Handle(f.ctx, event))
	require.NoError(t, handler.Handle(f.ctx, event))

	assert.Equal(t, int64(1), f.entryCount(t))
	f.assertBalance(t, expense.ID, 300)
}

func TestPaymentCreated_FallsBackToPayable(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	payable := f.addAccount(t, "320001", ledger.AccountTypeLiability)
	bank := f.addAccount(t, "102001", ledger.AccountTypeAsset)

	event := ledger.NewPaymentCreatedEvent(f.tenantID, uuid.New(), "PAY-001", bank.ID,
		decimal.NewFromInt(200), day(2026, time.January, 20))
	require.NoError(t, NewPaymentCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event))

	entry := f.onlyEntry(t)
	assert.Equal(t, ledger.SourceTypePayment, entry.SourceType)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, payable.ID, entry.Lines[0].AccountID)
	assert.Equal(t, bank.ID, entry.Lines[1].AccountID)
	f.assertBalance(t, payable.ID, -200)
	f.assertBalance(t, bank.ID, -200)
}

func TestPaymentCreated_PrefersReceivable(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	receivable := f.addAccount(t, "120001", ledger.AccountTypeAsset)
	f.addAccount(t, "320001", ledger.AccountTypeLiability)
	bank := f.addAccount(t, "102001", ledger.AccountTypeAsset)

	event := ledger.NewPaymentCreatedEvent(f.tenantID, uuid.New(), "PAY-002", bank.ID,
		decimal.NewFromInt(75), day(2026, time.January, 21))
	require.NoError(t, NewPaymentCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event))

	entry := f.onlyEntry(t)
	assert.Equal(t, receivable.ID, entry.Lines[0].AccountID)
}

func TestPaymentCreated_UnknownBankAccount(t *testing.T) {
	t.Run("strict fails", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.addJanuary(t)
		f.addAccount(t, "120001", ledger.AccountTypeAsset)

		event := ledger.NewPaymentCreatedEvent(f.tenantID, uuid.New(), "PAY-003", uuid.New(),
			decimal.NewFromInt(75), day(2026, time.January, 21))
		err := NewPaymentCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event)
		assert.True(t, errors.Is(err, ledger.ErrAccountMappingMissing))
		assert.Zero(t, f.entryCount(t))
	})

	t.Run("lenient skips", func(t *testing.T) {
		f := newLedgerFixture(t, WithStrictAccountMapping(false))
		f.addJanuary(t)
		f.addAccount(t, "120001", ledger.AccountTypeAsset)

		event := ledger.NewPaymentCreatedEvent(f.tenantID, uuid.New(), "PAY-004", uuid.New(),
			decimal.NewFromInt(75), day(2026, time.January, 21))
		require.NoError(t, NewPaymentCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event))
		assert.Zero(t, f.entryCount(t))
		assert.Equal(t, []string{"PaymentCreated:source_account"}, f.metrics.skipped)
	})
}

func TestChequeCreated_PostsToPortfolio(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	portfolio := f.addAccount(t, "101001", ledger.AccountTypeAsset)
	f.addAccount(t, "101.02001", ledger.AccountTypeAsset)
	receivable := f.addAccount(t, "120001", ledger.AccountTypeAsset)

	event := ledger.NewChequeCreatedEvent(f.tenantID, uuid.New(), "CHQ-001",
		decimal.NewFromInt(500), day(2026, time.January, 5))
	require.NoError(t, NewChequeCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event))

	entry := f.onlyEntry(t)
	assert.Equal(t, ledger.SourceTypeCheque, entry.SourceType)
	// "101" must not resolve to the bank collection account
	assert.Equal(t, portfolio.ID, entry.Lines[0].AccountID)
	assert.Equal(t, receivable.ID, entry.Lines[1].AccountID)
	f.assertBalance(t, portfolio.ID, 500)
	f.assertBalance(t, receivable.ID, -500)
}

func TestChequeCreated_MissingAccounts(t *testing.T) {
	t.Run("strict fails", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.addJanuary(t)

		event := ledger.NewChequeCreatedEvent(f.tenantID, uuid.New(), "CHQ-002",
			decimal.NewFromInt(500), day(2026, time.January, 5))
		err := NewChequeCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event)
		assert.True(t, errors.Is(err, ledger.ErrAccountMappingMissing))
	})

	t.Run("lenient skips and counts", func(t *testing.T) {
		f := newLedgerFixture(t, WithStrictAccountMapping(false))
		f.addJanuary(t)

		event := ledger.NewChequeCreatedEvent(f.tenantID, uuid.New(), "CHQ-003",
			decimal.NewFromInt(500), day(2026, time.January, 5))
		require.NoError(t, NewChequeCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event))
		assert.Zero(t, f.entryCount(t))
		assert.Equal(t, []string{"ChequeCreated:cheque_portfolio"}, f.metrics.skipped)
	})

	t.Run("no open period is fatal even when lenient", func(t *testing.T) {
		f := newLedgerFixture(t, WithStrictAccountMapping(false))

		event := ledger.NewChequeCreatedEvent(f.tenantID, uuid.New(), "CHQ-004",
			decimal.NewFromInt(500), day(2026, time.January, 5))
		err := NewChequeCreatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event)
		assert.True(t, errors.Is(err, ledger.ErrNoOpenPeriod))
	})
}

func TestChequeStatusUpdated_Transitions(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	portfolio := f.addAccount(t, "101001", ledger.AccountTypeAsset)
	collection := f.addAccount(t, "101.02001", ledger.AccountTypeAsset)
	bank := f.addAccount(t, "102001", ledger.AccountTypeAsset)
	handler := NewChequeStatusUpdatedHandler(f.posting, zap.NewNop())

	chequeID := uuid.New()
	toCollection := ledger.NewChequeStatusUpdatedEvent(f.tenantID, chequeID, "CHQ-010", decimal.NewFromInt(400),
		ledger.ChequeStatusPortfolio, ledger.ChequeStatusBankCollection, day(2026, time.January, 10))
	require.NoError(t, handler.Handle(f.ctx, toCollection))

	toPaid := ledger.NewChequeStatusUpdatedEvent(f.tenantID, chequeID, "CHQ-010", decimal.NewFromInt(400),
		ledger.ChequeStatusBankCollection, ledger.ChequeStatusPaid, day(2026, time.January, 12))
	require.NoError(t, handler.Handle(f.ctx, toPaid))

	assert.Equal(t, int64(2), f.entryCount(t))
	f.assertBalance(t, portfolio.ID, -400)
	f.assertBalance(t, collection.ID, 0)
	f.assertBalance(t, bank.ID, 400)
}

func TestChequeStatusUpdated_CollectionFallsBackToPortfolio(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	portfolio := f.addAccount(t, "101001", ledger.AccountTypeAsset)

	event := ledger.NewChequeStatusUpdatedEvent(f.tenantID, uuid.New(), "CHQ-011", decimal.NewFromInt(90),
		ledger.ChequeStatusPortfolio, ledger.ChequeStatusBankCollection, day(2026, time.January, 10))
	require.NoError(t, NewChequeStatusUpdatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event))

	entry := f.onlyEntry(t)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, portfolio.ID, entry.Lines[0].AccountID)
	assert.Equal(t, portfolio.ID, entry.Lines[1].AccountID)
	f.assertBalance(t, portfolio.ID, 0)
}

func TestChequeStatusUpdated_UnmappedTransitionIsNoOp(t *testing.T) {
	f := newLedgerFixture(t)
	f.addJanuary(t)
	f.addAccount(t, "101001", ledger.AccountTypeAsset)
	f.addAccount(t, "102001", ledger.AccountTypeAsset)

	// portfolio straight to paid skips bank collection and has no posting rule
	event := ledger.NewChequeStatusUpdatedEvent(f.tenantID, uuid.New(), "CHQ-012", decimal.NewFromInt(90),
		ledger.ChequeStatusPortfolio, ledger.ChequeStatusPaid, day(2026, time.January, 10))
	require.NoError(t, NewChequeStatusUpdatedHandler(f.posting, zap.NewNop()).Handle(f.ctx, event))

	assert.Zero(t, f.entryCount(t))
}

func TestTranslators_RejectWrongEventType(t *testing.T) {
	f := newLedgerFixture(t)
	wrong := ledger.NewChequeCreatedEvent(f.tenantID, uuid.New(), "CHQ-X", decimal.NewFromInt(1), time.Now())

	for _, h := range []shared.EventHandler{
		NewInvoiceApprovedHandler(f.posting, zap.NewNop()),
		NewPaymentCreatedHandler(f.posting, zap.NewNop()),
		NewChequeStatusUpdatedHandler(f.posting, zap.NewNop()),
	} {
		err := h.Handle(context.Background(), wrong)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected event type")
	}
}

func TestTranslators_SubscribeToDistinctTypes(t *testing.T) {
	f := newLedgerFixture(t)
	seen := map[string]string{}
	for _, h := range Translators(f.posting, zap.NewNop()) {
		require.Len(t, h.EventTypes(), 1)
		named, ok := h.(interface{ Name() string })
		require.True(t, ok)
		seen[h.EventTypes()[0]] = named.Name()
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, "ledger.InvoiceApprovedHandler", seen[ledger.EventTypeInvoiceApproved])
}
