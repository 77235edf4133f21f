package persistence

import (
	"fmt"

	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// LedgerModels lists every persistence model of the ledger schema
func LedgerModels() []any {
	return []any{
		&models.AccountModel{},
		&models.FiscalPeriodModel{},
		&models.JournalEntryModel{},
		&models.JournalEntryLineModel{},
		&models.EntryNumberSequenceModel{},
		&models.AuditLogModel{},
		&models.OutboxEntryModel{},
	}
}

// tenantUniqueIndexes are the composite keys GORM tags cannot express on
// fields inherited from TenantAggregateModel
var tenantUniqueIndexes = []struct {
	name   string
	table  string
	column string
}{
	{"idx_account_tenant_code", "accounts", "code"},
	{"idx_journal_entry_tenant_number", "journal_entries", "entry_number"},
	{"idx_journal_entry_tenant_source_event", "journal_entries", "source_event_id"},
}

// AutoMigrate creates the ledger schema from the models. Production databases
// are migrated with the SQL files under migrations/; AutoMigrate serves sqlite
// deployments and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(LedgerModels()...); err != nil {
		return fmt.Errorf("failed to auto-migrate ledger schema: %w", err)
	}
	for _, idx := range tenantUniqueIndexes {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (tenant_id, %s)", idx.name, idx.table, idx.column)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
