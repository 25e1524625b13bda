package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/webtrainer-in/ExpenseTracker/internal/uuid"
)

// ReserveID is the primary key of the single reserve balance row.
const ReserveID = "reserve"

// ReserveBalance is the household reserve fund.
type ReserveBalance struct {
	ID             string          `gorm:"primaryKey" json:"id"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"current_balance"`
	Version        int64           `gorm:"not null" json:"version"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName pins the singleton table name.
func (ReserveBalance) TableName() string {
	return "reserve_wallet"
}

// ReserveTransaction is an immutable entry in the reserve log.
type ReserveTransaction struct {
	ID                         string          `gorm:"type:uuid;primaryKey" json:"id"`
	Sequence                   int64           `gorm:"not null;uniqueIndex" json:"sequence"`
	Type                       TransactionType `gorm:"not null" json:"type"`
	Amount                     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Description                string          `gorm:"not null" json:"description"`
	PerformedByUserID          string          `gorm:"type:uuid;not null;index" json:"performed_by_user_id"`
	RelatedWalletTransactionID *string         `gorm:"type:uuid;index" json:"related_wallet_transaction_id,omitempty"`
	BalanceAfter               decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"balance_after"`
	Date                       time.Time       `gorm:"not null" json:"date"`
	CreatedAt                  time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new entries
func (r *ReserveTransaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	return nil
}
