package models

import (
	"time"

	"github.com/webtrainer-in/ExpenseTracker/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for mutable tables
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All returns every model managed by the schema, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Expense{},
		&WalletBalance{},
		&WalletTransaction{},
		&ReserveBalance{},
		&ReserveTransaction{},
		&AuditLog{},
	}
}
