// Package tenant scopes ledger queries to one tenant.
//
// Every tenant-owned table carries a tenant_id column. Repositories never
// write the condition by hand; they apply Scope, which also refuses to run a
// query without a tenant so that a missing ID cannot widen a read to every
// tenant:
//
//	db.Model(&models.AccountModel{}).Scopes(tenant.Live(tenantID)).Find(&accounts)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant discriminator of every tenant-owned table
const Column = "tenant_id"

// ErrTenantIDRequired is added to a query scoped to the nil tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Scope restricts a query to tenantID
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(Column+" = ?", tenantID)
	}
}

// Live restricts a query to the rows of tenantID that are not soft deleted
func Live(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return Scope(tenantID)(db).Where("deleted_at IS NULL")
	}
}
