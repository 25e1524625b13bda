package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// Balance is a snapshot of an owner's materialized balance. Version is the
// sequence number of the last entry applied to it.
type Balance struct {
	Owner     Owner           `json:"-"`
	Amount    decimal.Decimal `json:"current_balance"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsNegative reports whether the balance is below zero.
func (b *Balance) IsNegative() bool {
	return b.Amount.IsNegative()
}

// Entry is the projection of one ledger row used for reconciliation.
type Entry struct {
	ID           string
	Sequence     int64
	Type         models.TransactionType
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
}

// Filter narrows a transaction listing. Zero Limit means no limit.
type Filter struct {
	Type   *models.TransactionType
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}

// Store persists balances and their append-only transaction logs.
//
// Writes that must land together run inside Atomic; the Store passed to fn
// is bound to that unit and must be used for every call within it.
type Store interface {
	Atomic(ctx context.Context, fn func(Store) error) error

	EnsureBalance(ctx context.Context, owner Owner) error
	ReadBalance(ctx context.Context, owner Owner, forUpdate bool) (*Balance, error)
	// WriteBalance stores amount and nextVersion if the row is still at
	// expectedVersion. Otherwise it fails with ErrConcurrentUpdate.
	WriteBalance(ctx context.Context, owner Owner, amount decimal.Decimal, expectedVersion, nextVersion int64) error

	AppendWalletTransaction(ctx context.Context, rec *models.WalletTransaction) error
	AppendReserveTransaction(ctx context.Context, rec *models.ReserveTransaction) error

	FindTransactionByRelatedExpense(ctx context.Context, expenseID string) (*models.WalletTransaction, error)
	ListTransactionsByRelatedExpense(ctx context.Context, expenseID string) ([]models.WalletTransaction, error)
	ListWalletTransactions(ctx context.Context, userID string, f Filter) ([]models.WalletTransaction, int64, error)
	ListReserveTransactions(ctx context.Context, f Filter) ([]models.ReserveTransaction, int64, error)

	Entries(ctx context.Context, owner Owner) ([]Entry, error)
	WalletOwners(ctx context.Context) ([]string, error)
	ListWalletBalances(ctx context.Context) ([]models.WalletBalance, error)
}
