package services

import (
	"context"
	"strings"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
)

// walletService exposes the per-user cash wallets.
type walletService struct {
	ledger *ledger.Ledger
	users  UserServicer
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(l *ledger.Ledger, users UserServicer) WalletServicer {
	return &walletService{ledger: l, users: users}
}

// Deposit adds cash to the actor's wallet. "Added from Reserve" moves the
// amount out of the shared reserve and is limited to admins.
func (s *walletService) Deposit(ctx context.Context, actor Actor, in DepositInput) (*WalletResult, error) {
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = models.SourceATM
	}
	if !models.IsWalletSource(source) {
		return nil, apperrors.ErrInvalidSource
	}
	if source == models.SourceFromReserve && !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	description, err := depositDescription(source, in.Description)
	if err != nil {
		return nil, err
	}

	if source == models.SourceFromReserve {
		t, err := s.ledger.Reserve().TransferToWallet(ctx, actor.UserID, actor.UserID, in.Amount, description, in.Date)
		if err != nil {
			return nil, err
		}
		return &WalletResult{
			Transaction:        t.Wallet,
			ReserveTransaction: t.Reserve,
			Balance:            t.Wallet.BalanceAfter,
			NegativeBalance:    t.Wallet.BalanceAfter.IsNegative(),
		}, nil
	}

	tx, err := s.ledger.Wallet().Deposit(ctx, actor.UserID, in.Amount, description, in.Date)
	if err != nil {
		return nil, err
	}
	return walletResult(tx), nil
}

// Withdraw takes cash out of the actor's wallet. The balance may go negative.
func (s *walletService) Withdraw(ctx context.Context, actor Actor, in WithdrawInput) (*WalletResult, error) {
	tx, err := s.ledger.Wallet().Withdraw(ctx, actor.UserID, in.Amount, in.Description, in.Date, nil)
	if err != nil {
		return nil, err
	}
	return walletResult(tx), nil
}

// GetBalance returns a wallet balance. Reading another user's wallet needs admin.
func (s *walletService) GetBalance(ctx context.Context, actor Actor, userID string) (*ledger.Balance, error) {
	target, err := s.target(actor, userID)
	if err != nil {
		return nil, err
	}
	return s.ledger.Wallet().GetBalance(ctx, target)
}

// ListTransactions pages through a wallet's entries, newest first.
func (s *walletService) ListTransactions(ctx context.Context, actor Actor, userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.WalletTransaction], error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	target, err := s.target(actor, userID)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	rows, total, err := s.ledger.Wallet().Transactions(ctx, target, ledgerFilter(filter, page))
	if err != nil {
		return nil, err
	}
	return pagination.NewPageResponse(rows, page, total), nil
}

// ListBalances returns every wallet balance. Admin only.
func (s *walletService) ListBalances(ctx context.Context, actor Actor) ([]models.WalletBalance, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return s.ledger.Wallet().Balances(ctx)
}

// target resolves whose wallet a read addresses.
func (s *walletService) target(actor Actor, userID string) (string, error) {
	if userID == "" || userID == actor.UserID {
		return actor.UserID, nil
	}
	if !actor.IsAdmin() {
		return "", apperrors.ErrForbidden
	}
	if _, err := s.users.GetUserByID(userID); err != nil {
		return "", err
	}
	return userID, nil
}

func walletResult(tx *models.WalletTransaction) *WalletResult {
	return &WalletResult{
		Transaction:     tx,
		Balance:         tx.BalanceAfter,
		NegativeBalance: tx.BalanceAfter.IsNegative(),
	}
}

func ledgerFilter(f TransactionFilter, page pagination.PageRequest) ledger.Filter {
	return ledger.Filter{
		Type:   f.Type,
		From:   f.FromDate,
		To:     f.ToDate,
		Offset: page.Offset(),
		Limit:  page.Limit(),
	}
}

// depositDescription builds the stored description from a source and an
// optional note. "Others" requires the note.
func depositDescription(source, note string) (string, error) {
	note = strings.TrimSpace(note)
	switch {
	case source == models.SourceOthers && note == "":
		return "", apperrors.InvalidField("description", "description is required when source is Others")
	case source == models.SourceOthers:
		return "Others: " + note, nil
	case note == "":
		return source, nil
	}
	return source + " - " + note, nil
}
