// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities are free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: shared persistence fields (BaseModel, TenantAggregateModel, SoftDeleteModel)
// - ledger.go: chart of accounts, fiscal periods, journal entries and lines
// - sequence.go: per tenant and year entry number counters
// - audit_log.go: audit records written by the unit of work
// - outbox.go: outbox pattern model for event delivery
package models
