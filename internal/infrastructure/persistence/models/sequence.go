package models

import (
	"time"

	"github.com/google/uuid"
)

// EntryNumberSequenceModel is the per tenant and year counter behind journal entry numbers.
// LastValue is the sequence of the most recently issued number.
type EntryNumberSequenceModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EntryNumberSequenceModel) TableName() string {
	return "entry_number_sequences"
}
