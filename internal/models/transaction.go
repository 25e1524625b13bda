package models

import "github.com/shopspring/decimal"

// TransactionType represents the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// IsValid reports whether t is a known entry type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

// Signed returns amount with the sign the entry applies to a balance.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == TransactionTypeWithdrawal {
		return amount.Neg()
	}
	return amount
}

// Opposite returns the compensating entry type.
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionTypeWithdrawal {
		return TransactionTypeDeposit
	}
	return TransactionTypeWithdrawal
}
