package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, tenantID uuid.UUID, code string, accountType AccountType) *Account {
	t.Helper()
	a, err := NewAccount(tenantID, code, "Account "+code, accountType, false, nil)
	require.NoError(t, err)
	return a
}

func newTestEntry(t *testing.T, tenantID uuid.UUID) *JournalEntry {
	t.Helper()
	sourceID := uuid.New()
	je, err := NewJournalEntry(tenantID, "JE-2026-0001", uuid.New(),
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), uuid.New(),
		SourceTypeInvoice, &sourceID, "INV-001", "Invoice INV-001 approved")
	require.NoError(t, err)
	return je
}
