package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/testutil"
	"github.com/webtrainer-in/ExpenseTracker/internal/uuid"
)

func init() {
	logger.Init("test")
}

// clock is the fixed "now" of every test ledger.
var clock = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return New(NewGormStore(db), WithClock(func() time.Time { return clock })), db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *string {
	return &s
}

func newUserID() string {
	return uuid.New()
}

func walletBalance(t *testing.T, l *Ledger, userID string) decimal.Decimal {
	t.Helper()
	b, err := l.Wallet().GetBalance(context.Background(), userID)
	require.NoError(t, err)
	return b.Amount
}

func reserveBalance(t *testing.T, l *Ledger) decimal.Decimal {
	t.Helper()
	b, err := l.Reserve().GetBalance(context.Background())
	require.NoError(t, err)
	return b.Amount
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// faultyStore fails every balance write, inside or outside Atomic.
type faultyStore struct {
	Store
	err error
}

func (f *faultyStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return f.Store.Atomic(ctx, func(inner Store) error {
		return fn(&faultyStore{Store: inner, err: f.err})
	})
}

func (f *faultyStore) WriteBalance(context.Context, Owner, decimal.Decimal, int64, int64) error {
	return f.err
}

var errDiskFull = errors.New("disk full")

func cashExpense(userID, amount, description string, date time.Time) *models.Expense {
	return &models.Expense{
		Base:          models.Base{ID: uuid.New()},
		UserID:        userID,
		Amount:        dec(amount),
		Category:      "dining",
		Description:   description,
		Date:          date,
		PaymentMethod: models.PaymentMethodCash,
	}
}

func withMethod(e *models.Expense, method models.PaymentMethod) *models.Expense {
	c := *e
	c.PaymentMethod = method
	return &c
}

func withAmount(e *models.Expense, amount string) *models.Expense {
	c := *e
	c.Amount = dec(amount)
	return &c
}
