package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/testutil"
)

func init() {
	logger.Init("test")
}

// testNow is the fixed "now" of ledgers and stats built by these tests.
var testNow = time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*gorm.DB, *ledger.Ledger) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	l := ledger.New(ledger.NewGormStore(db), ledger.WithClock(func() time.Time { return testNow }))
	return db, l
}

func actorOf(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func walletOf(t *testing.T, l *ledger.Ledger, userID string) decimal.Decimal {
	t.Helper()
	b, err := l.Wallet().GetBalance(t.Context(), userID)
	testutil.AssertNoError(t, err)
	return b.Amount
}

func reserveOf(t *testing.T, l *ledger.Ledger) decimal.Decimal {
	t.Helper()
	b, err := l.Reserve().GetBalance(t.Context())
	testutil.AssertNoError(t, err)
	return b.Amount
}
