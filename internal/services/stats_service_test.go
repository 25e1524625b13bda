package services

import (
	"testing"
	"time"

	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/testutil"
)

func TestGetStats(t *testing.T) {
	db, _ := setup(t)
	svc := &statsService{db: db, now: func() time.Time { return testNow }}
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	admin := testutil.CreateTestAdmin(t, db)

	testutil.CreateTestExpense(t, db, alice.ID, "Groceries", "100.00", models.PaymentMethodUPI, testutil.Date(2024, 3, 2))
	testutil.CreateTestExpense(t, db, alice.ID, "Groceries", "50.00", models.PaymentMethodCash, testutil.Date(2024, 2, 15))
	testutil.CreateTestExpense(t, db, alice.ID, "Travel", "30.00", models.PaymentMethodCard, testutil.Date(2024, 1, 10))
	testutil.CreateTestExpense(t, db, alice.ID, "Bills", "20.00", models.PaymentMethodUPI, testutil.Date(2023, 12, 20))
	deleted := testutil.CreateTestExpense(t, db, alice.ID, "Bills", "999.00", models.PaymentMethodUPI, testutil.Date(2024, 3, 3))
	testutil.CreateTestExpense(t, db, bob.ID, "Dining", "40.00", models.PaymentMethodUPI, testutil.Date(2024, 3, 1))
	if err := db.Delete(deleted).Error; err != nil {
		t.Fatalf("failed to delete expense: %v", err)
	}

	t.Run("member_sees_own_totals", func(t *testing.T) {
		stats, err := svc.GetStats(t.Context(), actorOf(alice))
		testutil.AssertNoError(t, err)

		testutil.AssertAmount(t, stats.Total, "200")
		testutil.AssertAmount(t, stats.ThisMonth, "100")
		testutil.AssertAmount(t, stats.LastMonth, "50")
		// December, January and February are complete: 100 / 3.
		testutil.AssertAmount(t, stats.AverageMonthly, "33.33")
		if stats.ByUser != nil {
			t.Error("expected no per-user breakdown for a member")
		}
	})

	t.Run("admin_sees_household", func(t *testing.T) {
		stats, err := svc.GetStats(t.Context(), actorOf(admin))
		testutil.AssertNoError(t, err)

		testutil.AssertAmount(t, stats.Total, "240")
		testutil.AssertAmount(t, stats.ThisMonth, "140")
		if len(stats.ByUser) != 2 {
			t.Fatalf("expected 2 users in breakdown, got %d", len(stats.ByUser))
		}
		if stats.ByUser[0].User.ID != alice.ID {
			t.Error("expected largest spender first")
		}
		testutil.AssertAmount(t, stats.ByUser[1].Total, "40")
	})

	t.Run("no_expenses", func(t *testing.T) {
		stats, err := svc.GetStats(t.Context(), actorOf(testutil.CreateTestUser(t, db)))
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, stats.Total, "0")
		testutil.AssertAmount(t, stats.AverageMonthly, "0")
	})
}

func TestCompletedMonths(t *testing.T) {
	now := testNow
	tests := []struct {
		first time.Time
		want  int
	}{
		{testutil.Date(2024, 3, 1), 0},
		{testutil.Date(2024, 2, 28), 1},
		{testutil.Date(2023, 3, 31), 12},
		{testutil.Date(2020, 1, 1), 12},
	}
	for _, tt := range tests {
		if got := completedMonths(tt.first, now); got != tt.want {
			t.Errorf("completedMonths(%s) = %d, want %d", tt.first.Format("2006-01-02"), got, tt.want)
		}
	}
}
