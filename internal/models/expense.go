package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how an expense was paid
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "UPI"
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

// IsCash reports whether the payment draws on the payer's wallet.
func (p PaymentMethod) IsCash() bool {
	return p == PaymentMethodCash
}

// Expense represents a single household expense
type Expense struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Category      string          `gorm:"not null;index" json:"category"`
	Description   string          `gorm:"not null" json:"description"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	PaymentMethod PaymentMethod   `gorm:"not null;default:'UPI'" json:"payment_method"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
