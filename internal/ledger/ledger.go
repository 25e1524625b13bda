// Package ledger maintains per-user wallet balances and the shared reserve
// fund as append-only transaction logs with materialized running balances.
//
// Every mutation of an owner's balance holds that owner's lock for the whole
// read-modify-write span and writes the log entry and the new balance in one
// store transaction, so the balance always equals the signed sum of its log.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// Ledger is the entry point to the wallet and reserve ledgers.
type Ledger struct {
	store Store
	locks *KeyedMutex
	now   func() time.Time
	log   *zap.SugaredLogger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for adjustment and reversal dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocks shares an existing lock table, for ledgers over different
// stores that guard the same balances.
func WithLocks(locks *KeyedMutex) Option {
	return func(l *Ledger) { l.locks = locks }
}

// New returns a Ledger over store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		locks: NewKeyedMutex(),
		now:   time.Now,
		log:   logger.Named("ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithStore returns a Ledger writing through store and sharing l's locks and
// clock. Callers use it to join a transaction they already opened.
func (l *Ledger) WithStore(store Store) *Ledger {
	c := *l
	c.store = store
	return &c
}

// Wallet returns the per-user wallet ledger.
func (l *Ledger) Wallet() *WalletLedger { return &WalletLedger{l: l} }

// Reserve returns the reserve fund ledger.
func (l *Ledger) Reserve() *ReserveLedger { return &ReserveLedger{l: l} }

// Binder returns the expense binder.
func (l *Ledger) Binder() *Binder { return &Binder{l: l} }

// Exclusive runs fn holding the locks of owners. Ledger calls made with the
// ctx passed to fn skip locks already held, so callers can wrap their own
// writes and ledger writes in a single critical section.
func (l *Ledger) Exclusive(ctx context.Context, fn func(ctx context.Context) error, owners ...Owner) error {
	keys := make([]string, len(owners))
	for i, o := range owners {
		keys[i] = o.String()
	}
	return l.locks.Exclusive(ctx, fn, keys...)
}

// run locks owners and executes fn inside one store transaction.
func (l *Ledger) run(ctx context.Context, owners []Owner, fn func(ctx context.Context, st Store) error) error {
	err := l.Exclusive(ctx, func(ctx context.Context) error {
		return l.store.Atomic(ctx, func(st Store) error {
			return fn(ctx, st)
		})
	}, owners...)
	return storageErr(err)
}

func (l *Ledger) today() time.Time {
	return l.now()
}

// posting is one entry to append to an owner's log.
type posting struct {
	owner             Owner
	typ               models.TransactionType
	amount            decimal.Decimal
	description       string
	date              time.Time
	relatedExpenseID  *string
	performedBy       string
	relatedWalletTxID *string
}

// advance reads owner's balance under the caller's lock and returns the
// balance the posting will produce. The returned Version is the sequence the
// new entry must carry.
func (l *Ledger) advance(ctx context.Context, st Store, p posting) (*Balance, error) {
	cur, err := balanceOf(ctx, st, p.owner, true)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Owner:   p.owner,
		Amount:  cur.Amount.Add(p.typ.Signed(p.amount)),
		Version: cur.Version + 1,
	}, nil
}

func (l *Ledger) postWallet(ctx context.Context, st Store, p posting) (*models.WalletTransaction, error) {
	next, err := l.advance(ctx, st, p)
	if err != nil {
		return nil, err
	}

	rec := &models.WalletTransaction{
		UserID:           p.owner.UserID,
		Sequence:         next.Version,
		Type:             p.typ,
		Amount:           p.amount,
		Description:      p.description,
		RelatedExpenseID: p.relatedExpenseID,
		BalanceAfter:     next.Amount,
		Date:             p.date,
	}
	if err := st.AppendWalletTransaction(ctx, rec); err != nil {
		return nil, err
	}
	if err := st.WriteBalance(ctx, p.owner, next.Amount, next.Version-1, next.Version); err != nil {
		return nil, err
	}

	l.log.Debugw("wallet entry appended",
		"user_id", p.owner.UserID,
		"type", p.typ,
		"amount", p.amount.StringFixed(2),
		"balance_after", next.Amount.StringFixed(2),
		"sequence", next.Version,
	)
	if next.Amount.IsNegative() && p.typ == models.TransactionTypeWithdrawal {
		l.log.Warnw("wallet balance negative", "user_id", p.owner.UserID, "balance", next.Amount.StringFixed(2))
	}
	return rec, nil
}

func (l *Ledger) postReserve(ctx context.Context, st Store, p posting) (*models.ReserveTransaction, error) {
	next, err := l.advance(ctx, st, p)
	if err != nil {
		return nil, err
	}

	rec := &models.ReserveTransaction{
		Sequence:                   next.Version,
		Type:                       p.typ,
		Amount:                     p.amount,
		Description:                p.description,
		PerformedByUserID:          p.performedBy,
		RelatedWalletTransactionID: p.relatedWalletTxID,
		BalanceAfter:               next.Amount,
		Date:                       p.date,
	}
	if err := st.AppendReserveTransaction(ctx, rec); err != nil {
		return nil, err
	}
	if err := st.WriteBalance(ctx, p.owner, next.Amount, next.Version-1, next.Version); err != nil {
		return nil, err
	}

	l.log.Debugw("reserve entry appended",
		"performed_by", p.performedBy,
		"type", p.typ,
		"amount", p.amount.StringFixed(2),
		"balance_after", next.Amount.StringFixed(2),
		"sequence", next.Version,
	)
	return rec, nil
}

// balanceOf returns owner's current balance within st, creating it at zero.
func balanceOf(ctx context.Context, st Store, owner Owner, forUpdate bool) (*Balance, error) {
	if err := st.EnsureBalance(ctx, owner); err != nil {
		return nil, err
	}
	b, err := st.ReadBalance(ctx, owner, forUpdate)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &Balance{Owner: owner, Amount: decimal.Zero}, nil
	}
	return b, nil
}

// NormalizeAmount rounds to cents and rejects non-positive amounts.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.InvalidField("amount", "amount must be greater than zero")
	}
	return amount, nil
}

func requireDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", apperrors.InvalidField("description", "description is required")
	}
	return description, nil
}

func (l *Ledger) dateOrToday(date time.Time) time.Time {
	if date.IsZero() {
		return l.today()
	}
	return date
}

// storageErr passes AppErrors through and wraps anything else as an
// internal error.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
