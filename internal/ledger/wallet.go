package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// ReversalPrefix starts the description of every compensating entry.
const ReversalPrefix = "Reversed: "

// WalletLedger maintains per-user cash balances. Withdrawals may drive a
// wallet below zero.
type WalletLedger struct {
	l *Ledger
}

// Deposit credits userID's wallet.
func (w *WalletLedger) Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string, date time.Time) (*models.WalletTransaction, error) {
	return w.post(ctx, userID, models.TransactionTypeDeposit, amount, description, date, nil)
}

// Withdraw debits userID's wallet, optionally linking the entry to the
// expense that caused it. The balance is allowed to go negative.
func (w *WalletLedger) Withdraw(ctx context.Context, userID string, amount decimal.Decimal, description string, date time.Time, relatedExpenseID *string) (*models.WalletTransaction, error) {
	return w.post(ctx, userID, models.TransactionTypeWithdrawal, amount, description, date, relatedExpenseID)
}

func (w *WalletLedger) post(ctx context.Context, userID string, typ models.TransactionType, amount decimal.Decimal, description string, date time.Time, relatedExpenseID *string) (*models.WalletTransaction, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	description, err = requireDescription(description)
	if err != nil {
		return nil, err
	}

	p := posting{
		owner:            WalletOwner(userID),
		typ:              typ,
		amount:           amount,
		description:      description,
		date:             w.l.dateOrToday(date),
		relatedExpenseID: relatedExpenseID,
	}

	var rec *models.WalletTransaction
	err = w.l.run(ctx, []Owner{p.owner}, func(ctx context.Context, st Store) error {
		var err error
		rec, err = w.l.postWallet(ctx, st, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ReverseByExpense appends one entry cancelling the net effect of every
// entry linked to expenseID. It returns nil without writing when nothing is
// linked or the linked entries already net to zero, so repeated calls are
// harmless.
func (w *WalletLedger) ReverseByExpense(ctx context.Context, expenseID string) (*models.WalletTransaction, error) {
	first, err := w.l.store.FindTransactionByRelatedExpense(ctx, expenseID)
	if err != nil {
		return nil, storageErr(err)
	}
	if first == nil {
		return nil, nil
	}

	var rec *models.WalletTransaction
	err = w.l.run(ctx, []Owner{WalletOwner(first.UserID)}, func(ctx context.Context, st Store) error {
		var err error
		rec, err = w.l.reverse(ctx, st, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// reverse must run under the wallet lock inside st's transaction.
func (l *Ledger) reverse(ctx context.Context, st Store, expenseID string) (*models.WalletTransaction, error) {
	linked, err := st.ListTransactionsByRelatedExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if len(linked) == 0 {
		return nil, nil
	}

	net := decimal.Zero
	for _, t := range linked {
		net = net.Add(t.Type.Signed(t.Amount))
	}
	if net.IsZero() {
		l.log.Debugw("nothing to reverse", "expense_id", expenseID, "entries", len(linked))
		return nil, nil
	}

	netType := models.TransactionTypeDeposit
	if net.IsNegative() {
		netType = models.TransactionTypeWithdrawal
	}
	related := expenseID
	return l.postWallet(ctx, st, posting{
		owner:            WalletOwner(linked[0].UserID),
		typ:              netType.Opposite(),
		amount:           net.Abs(),
		description:      ReversalPrefix + linked[0].Description,
		date:             l.today(),
		relatedExpenseID: &related,
	})
}

// GetBalance returns userID's balance, creating the wallet at zero.
func (w *WalletLedger) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	b, err := balanceOf(ctx, w.l.store, WalletOwner(userID), false)
	return b, storageErr(err)
}

// Transactions lists userID's entries newest first.
func (w *WalletLedger) Transactions(ctx context.Context, userID string, f Filter) ([]models.WalletTransaction, int64, error) {
	recs, total, err := w.l.store.ListWalletTransactions(ctx, userID, f)
	return recs, total, storageErr(err)
}

// LinkedTo lists the entries linked to expenseID in the order applied.
func (w *WalletLedger) LinkedTo(ctx context.Context, expenseID string) ([]models.WalletTransaction, error) {
	recs, err := w.l.store.ListTransactionsByRelatedExpense(ctx, expenseID)
	return recs, storageErr(err)
}

// Balances lists every wallet with its owner.
func (w *WalletLedger) Balances(ctx context.Context) ([]models.WalletBalance, error) {
	rows, err := w.l.store.ListWalletBalances(ctx)
	return rows, storageErr(err)
}
