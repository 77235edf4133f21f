package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   EntryStatus
		expected bool
	}{
		{EntryStatusDraft, false},
		{EntryStatusPosted, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.True(t, tc.status.IsValid())
			assert.Equal(t, tc.expected, tc.status.IsTerminal())
		})
	}
	assert.False(t, EntryStatus("VOID").IsValid())
}

func TestFormatEntryNumber(t *testing.T) {
	assert.Equal(t, "JE-2026-0005", FormatEntryNumber(2026, 5))
	assert.Equal(t, "JE-2026-0001", FormatEntryNumber(2026, 1))
	assert.Equal(t, "JE-2026-12345", FormatEntryNumber(2026, 12345))
	assert.Equal(t, "JE-2026-", EntryNumberPrefix(2026))
}

func TestParseEntryNumber(t *testing.T) {
	year, seq, err := ParseEntryNumber("JE-2026-0042")
	require.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, int64(42), seq)

	for _, bad := range []string{"", "JE-2026", "AP-2026-0001", "JE-abcd-0001", "JE-2026-x"} {
		_, _, err := ParseEntryNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewJournalEntry(t *testing.T) {
	tenantID := uuid.New()
	actor := uuid.New()

	t.Run("creates draft with normalized date", func(t *testing.T) {
		je, err := NewJournalEntry(tenantID, "JE-2026-0001", uuid.New(),
			time.Date(2026, 3, 15, 17, 30, 0, 0, time.UTC), actor, SourceTypeManual, nil, "", "manual")
		require.NoError(t, err)

		assert.Equal(t, EntryStatusDraft, je.Status)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), je.EntryDate)
		assert.True(t, je.TotalDebit.IsZero())
		assert.Empty(t, je.Lines)
		assert.Equal(t, actor, *je.CreatedBy)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name   string
			number string
			period uuid.UUID
			date   time.Time
			code   string
		}{
			{"bad number", "42", uuid.New(), time.Now(), "INVALID_ENTRY_NUMBER"},
			{"missing period", "JE-2026-0001", uuid.Nil, time.Now(), "INVALID_PERIOD"},
			{"missing date", "JE-2026-0001", uuid.New(), time.Time{}, "INVALID_ENTRY_DATE"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewJournalEntry(tenantID, tc.number, tc.period, tc.date, actor, SourceTypeManual, nil, "", "")
				var domainErr *shared.DomainError
				require.True(t, errors.As(err, &domainErr))
				assert.Equal(t, tc.code, domainErr.Code)
			})
		}
	})
}

func TestJournalEntry_AddLine(t *testing.T) {
	tenantID := uuid.New()
	expense := newTestAccount(t, tenantID, "770001", AccountTypeExpense)

	t.Run("appends numbered lines", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		payable := newTestAccount(t, tenantID, "320001", AccountTypeLiability)

		first, err := je.AddLine(expense, decimal.NewFromInt(1000), decimal.Zero, "expense")
		require.NoError(t, err)
		second, err := je.AddLine(payable, decimal.Zero, decimal.NewFromInt(1000), "payable", WithPartner(uuid.New()))
		require.NoError(t, err)

		assert.Equal(t, 1, first.LineNumber)
		assert.Equal(t, 2, second.LineNumber)
		assert.Equal(t, je.ID, second.JournalEntryID)
		assert.NotNil(t, je.Lines[1].PartnerID)
		assert.Equal(t, "770001", je.Lines[0].AccountCode)
	})

	t.Run("rejects header accounts", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		header, err := NewAccount(tenantID, "770", "Expenses", AccountTypeExpense, true, nil)
		require.NoError(t, err)

		_, err = je.AddLine(header, decimal.NewFromInt(10), decimal.Zero, "")
		assert.True(t, errors.Is(err, ErrHeaderAccount))
		assert.Empty(t, je.Lines)
	})

	t.Run("rejects inactive accounts", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		inactive := newTestAccount(t, tenantID, "770002", AccountTypeExpense)
		inactive.Deactivate()

		_, err := je.AddLine(inactive, decimal.NewFromInt(10), decimal.Zero, "")
		assert.True(t, errors.Is(err, ErrAccountInactive))
	})

	t.Run("rejects accounts of another tenant", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		foreign := newTestAccount(t, uuid.New(), "770001", AccountTypeExpense)

		_, err := je.AddLine(foreign, decimal.NewFromInt(10), decimal.Zero, "")
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, CodeTenantMismatch, domainErr.Code)
	})

	t.Run("rejects invalid amounts", func(t *testing.T) {
		tests := []struct {
			name   string
			debit  decimal.Decimal
			credit decimal.Decimal
		}{
			{"both set", decimal.NewFromInt(1), decimal.NewFromInt(1)},
			{"neither set", decimal.Zero, decimal.Zero},
			{"negative debit", decimal.NewFromInt(-5), decimal.Zero},
			{"negative credit", decimal.Zero, decimal.NewFromInt(-5)},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				je := newTestEntry(t, tenantID)
				_, err := je.AddLine(expense, tc.debit, tc.credit, "")
				assert.True(t, errors.Is(err, ErrInvalidLineAmount))
			})
		}
	})

	t.Run("captures foreign currency", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		_, err := je.AddLine(expense, decimal.NewFromInt(3200), decimal.Zero, "",
			WithForeignCurrency("usd", decimal.RequireFromString("32"), decimal.NewFromInt(100)))
		require.NoError(t, err)

		line := je.Lines[0]
		assert.Equal(t, "USD", line.CurrencyCode)
		assert.True(t, line.ExchangeRate.Equal(decimal.NewFromInt(32)))
		assert.True(t, line.OriginalAmount.Equal(decimal.NewFromInt(100)))
	})
}

func TestJournalEntry_Post(t *testing.T) {
	tenantID := uuid.New()
	expense := newTestAccount(t, tenantID, "770001", AccountTypeExpense)
	payable := newTestAccount(t, tenantID, "320001", AccountTypeLiability)
	actor := uuid.New()

	t.Run("posts balanced entry", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		_, err := je.AddLine(expense, decimal.NewFromInt(1000), decimal.Zero, "")
		require.NoError(t, err)
		_, err = je.AddLine(payable, decimal.Zero, decimal.NewFromInt(1000), "")
		require.NoError(t, err)

		require.NoError(t, je.Post(actor))

		assert.True(t, je.IsPosted())
		assert.True(t, je.TotalDebit.Equal(decimal.NewFromInt(1000)))
		assert.True(t, je.TotalCredit.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, actor, *je.PostedBy)
		assert.NotNil(t, je.PostedAt)

		events := je.GetDomainEvents()
		require.Len(t, events, 1)
		posted, ok := events[0].(*JournalEntryPostedEvent)
		require.True(t, ok)
		assert.Equal(t, je.EntryNumber, posted.EntryNumber)
		assert.Equal(t, 2, posted.LineCount)
	})

	t.Run("rejects unbalanced entry", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		_, _ = je.AddLine(expense, decimal.RequireFromString("1000.01"), decimal.Zero, "")
		_, _ = je.AddLine(payable, decimal.Zero, decimal.NewFromInt(1000), "")

		err := je.Post(actor)

		assert.True(t, errors.Is(err, ErrUnbalancedEntry))
		assert.Contains(t, err.Error(), "unbalanced entry")
		assert.True(t, je.IsDraft())
		assert.Empty(t, je.GetDomainEvents())
	})

	t.Run("uses exact decimal equality", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		_, _ = je.AddLine(expense, decimal.RequireFromString("0.1"), decimal.Zero, "")
		_, _ = je.AddLine(expense, decimal.RequireFromString("0.2"), decimal.Zero, "")
		_, _ = je.AddLine(payable, decimal.Zero, decimal.RequireFromString("0.3"), "")

		require.NoError(t, je.Post(actor))
		assert.True(t, je.IsBalanced())
	})

	t.Run("rejects entry without lines", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		assert.True(t, errors.Is(je.Post(actor), ErrEmptyEntry))
	})

	t.Run("posted entry is immutable", func(t *testing.T) {
		je := newTestEntry(t, tenantID)
		_, _ = je.AddLine(expense, decimal.NewFromInt(5), decimal.Zero, "")
		_, _ = je.AddLine(payable, decimal.Zero, decimal.NewFromInt(5), "")
		require.NoError(t, je.Post(actor))

		_, err := je.AddLine(expense, decimal.NewFromInt(1), decimal.Zero, "")
		assert.True(t, errors.Is(err, ErrEntryNotDraft))
		assert.True(t, errors.Is(je.Post(actor), ErrEntryNotDraft))
		assert.True(t, errors.Is(je.EnsureDeletable(), ErrEntryNotDraft))
		assert.Len(t, je.Lines, 2)
	})
}

func TestJournalEntry_AccountIDs(t *testing.T) {
	tenantID := uuid.New()
	expense := newTestAccount(t, tenantID, "770001", AccountTypeExpense)
	payable := newTestAccount(t, tenantID, "320001", AccountTypeLiability)
	je := newTestEntry(t, tenantID)
	_, _ = je.AddLine(expense, decimal.NewFromInt(5), decimal.Zero, "")
	_, _ = je.AddLine(expense, decimal.NewFromInt(5), decimal.Zero, "")
	_, _ = je.AddLine(payable, decimal.Zero, decimal.NewFromInt(10), "")

	assert.Equal(t, []uuid.UUID{expense.ID, payable.ID}, je.AccountIDs())
}

func TestJournalEntry_AuditSnapshotExcludesKeys(t *testing.T) {
	je := newTestEntry(t, uuid.New())
	snap := je.AuditSnapshot()

	assert.NotContains(t, snap, "id")
	assert.NotContains(t, snap, "tenant_id")
	assert.NotContains(t, snap, "version")
	assert.Equal(t, "JE-2026-0001", snap["entry_number"])
	assert.Equal(t, "DRAFT", snap["status"])
}
