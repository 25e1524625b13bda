package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// ActionKind is a wallet operation the binder issues for an expense change.
type ActionKind string

const (
	ActionWithdraw ActionKind = "withdraw"
	ActionDeposit  ActionKind = "deposit"
	ActionReverse  ActionKind = "reverse"
)

// Action is one planned wallet operation linked to an expense.
type Action struct {
	Kind        ActionKind
	UserID      string
	ExpenseID   string
	Amount      decimal.Decimal
	Description string
	// BusinessDate is true when the entry carries the expense date rather
	// than the current date.
	BusinessDate bool
	Date         time.Time
}

// Binder keeps the wallet in step with cash expenses.
type Binder struct {
	l *Ledger
}

// Plan returns the wallet operations that take an expense from old to updated.
// old is nil on create and updated is nil on delete.
//
//	create           CASH           withdraw amount, expense date
//	update CASH  ->  non-CASH       reverse linked entries
//	update other ->  CASH           withdraw new amount, expense date
//	update CASH  ->  CASH (delta)   withdraw or deposit |delta| as adjustment, today
//	delete CASH                     reverse linked entries
//
// Every other transition plans nothing.
func Plan(old, updated *models.Expense) []Action {
	switch {
	case old == nil && updated == nil:
		return nil

	case old == nil:
		if !updated.PaymentMethod.IsCash() {
			return nil
		}
		return []Action{cashWithdrawal(updated)}

	case updated == nil:
		if !old.PaymentMethod.IsCash() {
			return nil
		}
		return []Action{{Kind: ActionReverse, UserID: old.UserID, ExpenseID: old.ID}}
	}

	wasCash, isCash := old.PaymentMethod.IsCash(), updated.PaymentMethod.IsCash()
	switch {
	case wasCash && !isCash:
		return []Action{{Kind: ActionReverse, UserID: old.UserID, ExpenseID: old.ID}}

	case !wasCash && isCash:
		return []Action{cashWithdrawal(updated)}

	case wasCash && isCash:
		delta := updated.Amount.Round(2).Sub(old.Amount.Round(2))
		if delta.IsZero() {
			return nil
		}
		a := Action{
			Kind:        ActionWithdraw,
			UserID:      updated.UserID,
			ExpenseID:   updated.ID,
			Amount:      delta.Abs(),
			Description: adjustmentDescription(updated),
		}
		if delta.IsNegative() {
			a.Kind = ActionDeposit
		}
		return []Action{a}
	}
	return nil
}

func cashWithdrawal(e *models.Expense) Action {
	return Action{
		Kind:         ActionWithdraw,
		UserID:       e.UserID,
		ExpenseID:    e.ID,
		Amount:       e.Amount,
		Description:  cashDescription(e),
		BusinessDate: true,
		Date:         e.Date,
	}
}

func cashDescription(e *models.Expense) string {
	if e.Description == "" {
		return "Cash expense"
	}
	return "Cash expense: " + e.Description
}

func adjustmentDescription(e *models.Expense) string {
	if e.Description == "" {
		return "Cash expense adjustment"
	}
	return fmt.Sprintf("Cash expense adjustment: %s", e.Description)
}

// OnCreate applies the wallet effect of a newly created expense.
func (b *Binder) OnCreate(ctx context.Context, created *models.Expense) ([]models.WalletTransaction, error) {
	return b.Apply(ctx, Plan(nil, created))
}

// OnUpdate applies the wallet effect of changing old into updated. Both must
// carry the expense id.
func (b *Binder) OnUpdate(ctx context.Context, old, updated *models.Expense) ([]models.WalletTransaction, error) {
	return b.Apply(ctx, Plan(old, updated))
}

// OnDelete reverses the wallet effect of an expense before it is removed.
func (b *Binder) OnDelete(ctx context.Context, deleted *models.Expense) ([]models.WalletTransaction, error) {
	return b.Apply(ctx, Plan(deleted, nil))
}

// Apply executes actions in order under the affected wallets' locks, in a
// single store transaction.
func (b *Binder) Apply(ctx context.Context, actions []Action) ([]models.WalletTransaction, error) {
	if len(actions) == 0 {
		return nil, nil
	}

	owners := make([]Owner, 0, len(actions))
	for _, a := range actions {
		owners = append(owners, WalletOwner(a.UserID))
	}

	var out []models.WalletTransaction
	err := b.l.run(ctx, owners, func(ctx context.Context, st Store) error {
		for _, a := range actions {
			rec, err := b.apply(ctx, st, a)
			if err != nil {
				return err
			}
			if rec != nil {
				out = append(out, *rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Binder) apply(ctx context.Context, st Store, a Action) (*models.WalletTransaction, error) {
	if a.Kind == ActionReverse {
		return b.l.reverse(ctx, st, a.ExpenseID)
	}

	amount, err := NormalizeAmount(a.Amount)
	if err != nil {
		return nil, err
	}
	date := b.l.today()
	if a.BusinessDate {
		date = b.l.dateOrToday(a.Date)
	}
	typ := models.TransactionTypeWithdrawal
	if a.Kind == ActionDeposit {
		typ = models.TransactionTypeDeposit
	}
	expenseID := a.ExpenseID

	b.l.log.Debugw("binding expense to wallet", "expense_id", a.ExpenseID, "action", a.Kind, "amount", amount.StringFixed(2))
	return b.l.postWallet(ctx, st, posting{
		owner:            WalletOwner(a.UserID),
		typ:              typ,
		amount:           amount,
		description:      a.Description,
		date:             date,
		relatedExpenseID: &expenseID,
	})
}
