package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

const (
	toReservePrefix = "Transferred to reserve: "
	toWalletPrefix  = "Transferred to wallet: "
)

// ReserveLedger maintains the shared household reserve. Transfers between
// the reserve and a wallet never let the paying side go below zero.
type ReserveLedger struct {
	l *Ledger
}

// Transfer is the pair of entries written by a cross-ledger transfer.
type Transfer struct {
	Wallet  *models.WalletTransaction  `json:"wallet_transaction"`
	Reserve *models.ReserveTransaction `json:"reserve_transaction"`
}

// Deposit credits the reserve.
func (r *ReserveLedger) Deposit(ctx context.Context, amount decimal.Decimal, description, performedBy string, date time.Time, relatedWalletTxID *string) (*models.ReserveTransaction, error) {
	return r.post(ctx, models.TransactionTypeDeposit, amount, description, performedBy, date, relatedWalletTxID)
}

// Withdraw debits the reserve.
func (r *ReserveLedger) Withdraw(ctx context.Context, amount decimal.Decimal, description, performedBy string, date time.Time, relatedWalletTxID *string) (*models.ReserveTransaction, error) {
	return r.post(ctx, models.TransactionTypeWithdrawal, amount, description, performedBy, date, relatedWalletTxID)
}

func (r *ReserveLedger) post(ctx context.Context, typ models.TransactionType, amount decimal.Decimal, description, performedBy string, date time.Time, relatedWalletTxID *string) (*models.ReserveTransaction, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	description, err = requireDescription(description)
	if err != nil {
		return nil, err
	}

	p := posting{
		owner:             ReserveOwner(),
		typ:               typ,
		amount:            amount,
		description:       description,
		date:              r.l.dateOrToday(date),
		performedBy:       performedBy,
		relatedWalletTxID: relatedWalletTxID,
	}

	var rec *models.ReserveTransaction
	err = r.l.run(ctx, []Owner{p.owner}, func(ctx context.Context, st Store) error {
		var err error
		rec, err = r.l.postReserve(ctx, st, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DepositFromWallet moves amount from sourceUserID's wallet into the
// reserve. The wallet must hold at least amount; otherwise nothing is
// written and an insufficient balance error quotes both figures.
func (r *ReserveLedger) DepositFromWallet(ctx context.Context, sourceUserID, performedBy string, amount decimal.Decimal, description string, date time.Time) (*Transfer, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	description, err = requireDescription(description)
	if err != nil {
		return nil, err
	}
	date = r.l.dateOrToday(date)
	wallet := WalletOwner(sourceUserID)

	out := &Transfer{}
	err = r.l.run(ctx, []Owner{wallet, ReserveOwner()}, func(ctx context.Context, st Store) error {
		available, err := balanceOf(ctx, st, wallet, true)
		if err != nil {
			return err
		}
		if available.Amount.LessThan(amount) {
			r.l.log.Warnw("wallet to reserve transfer rejected",
				"user_id", sourceUserID,
				"required", amount.StringFixed(2),
				"available", available.Amount.StringFixed(2),
			)
			return apperrors.InsufficientBalance(amount, available.Amount)
		}

		out.Wallet, err = r.l.postWallet(ctx, st, posting{
			owner:       wallet,
			typ:         models.TransactionTypeWithdrawal,
			amount:      amount,
			description: toReservePrefix + description,
			date:        date,
		})
		if err != nil {
			return err
		}
		out.Reserve, err = r.l.postReserve(ctx, st, posting{
			owner:             ReserveOwner(),
			typ:               models.TransactionTypeDeposit,
			amount:            amount,
			description:       description,
			date:              date,
			performedBy:       performedBy,
			relatedWalletTxID: &out.Wallet.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransferToWallet moves amount from the reserve into userID's wallet. The
// reserve must hold at least amount. The wallet deposit is written first and
// the reserve withdrawal records its id.
func (r *ReserveLedger) TransferToWallet(ctx context.Context, userID, performedBy string, amount decimal.Decimal, description string, date time.Time) (*Transfer, error) {
	amount, err := NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	description, err = requireDescription(description)
	if err != nil {
		return nil, err
	}
	date = r.l.dateOrToday(date)
	wallet := WalletOwner(userID)

	out := &Transfer{}
	err = r.l.run(ctx, []Owner{wallet, ReserveOwner()}, func(ctx context.Context, st Store) error {
		available, err := balanceOf(ctx, st, ReserveOwner(), true)
		if err != nil {
			return err
		}
		if available.Amount.LessThan(amount) {
			r.l.log.Warnw("reserve to wallet transfer rejected",
				"user_id", userID,
				"required", amount.StringFixed(2),
				"available", available.Amount.StringFixed(2),
			)
			return apperrors.InsufficientBalance(amount, available.Amount)
		}

		out.Wallet, err = r.l.postWallet(ctx, st, posting{
			owner:       wallet,
			typ:         models.TransactionTypeDeposit,
			amount:      amount,
			description: description,
			date:        date,
		})
		if err != nil {
			return err
		}
		out.Reserve, err = r.l.postReserve(ctx, st, posting{
			owner:             ReserveOwner(),
			typ:               models.TransactionTypeWithdrawal,
			amount:            amount,
			description:       toWalletPrefix + description,
			date:              date,
			performedBy:       performedBy,
			relatedWalletTxID: &out.Wallet.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBalance returns the reserve balance, creating it at zero.
func (r *ReserveLedger) GetBalance(ctx context.Context) (*Balance, error) {
	b, err := balanceOf(ctx, r.l.store, ReserveOwner(), false)
	return b, storageErr(err)
}

// Transactions lists reserve entries newest first.
func (r *ReserveLedger) Transactions(ctx context.Context, f Filter) ([]models.ReserveTransaction, int64, error) {
	recs, total, err := r.l.store.ListReserveTransactions(ctx, f)
	return recs, total, storageErr(err)
}
