package persistence

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// AccountSortFields contains allowed sort fields for accounts
var AccountSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
	"balance":    true,
}

// FiscalPeriodSortFields contains allowed sort fields for fiscal periods
var FiscalPeriodSortFields = map[string]bool{
	"created_at":    true,
	"code":          true,
	"start_date":    true,
	"end_date":      true,
	"fiscal_year":   true,
	"period_number": true,
	"status":        true,
}

// JournalEntrySortFields contains allowed sort fields for journal entries
var JournalEntrySortFields = map[string]bool{
	"created_at":   true,
	"entry_number": true,
	"entry_date":   true,
	"status":       true,
	"total_debit":  true,
	"posted_at":    true,
}

// AuditLogSortFields contains allowed sort fields for audit logs
var AuditLogSortFields = map[string]bool{
	"created_at":  true,
	"entity_name": true,
	"action":      true,
}

// applyPageAndOrder applies the whitelisted ordering and pagination of a filter.
// defaultOrder is used when the filter names no allowed field.
func applyPageAndOrder(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "")
	if field == "" {
		query = query.Order(defaultField + " " + defaultDir)
	} else {
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	}
	// stable paging when the sort column has ties
	query = query.Order("id ASC")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive contains pattern for LOWER(col) LIKE ?
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
