package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/webtrainer-in/ExpenseTracker/internal/uuid"
)

// WalletBalance is the materialized cash balance of one user. It may be
// negative. Version is the sequence of the last entry applied to it.
type WalletBalance struct {
	UserID         string          `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"current_balance"`
	Version        int64           `gorm:"not null" json:"version"`
	UpdatedAt      time.Time       `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// WalletTransaction is an immutable entry in a user's wallet log.
type WalletTransaction struct {
	ID               string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string          `gorm:"type:uuid;not null;uniqueIndex:idx_wallet_tx_user_seq,priority:1" json:"user_id"`
	Sequence         int64           `gorm:"not null;uniqueIndex:idx_wallet_tx_user_seq,priority:2" json:"sequence"`
	Type             TransactionType `gorm:"not null" json:"type"`
	Amount           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Description      string          `gorm:"not null" json:"description"`
	RelatedExpenseID *string         `gorm:"type:uuid;index" json:"related_expense_id,omitempty"`
	BalanceAfter     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"balance_after"`
	Date             time.Time       `gorm:"not null" json:"date"`
	CreatedAt        time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new entries
func (w *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New()
	}
	return nil
}
