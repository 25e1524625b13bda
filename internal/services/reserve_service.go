package services

import (
	"context"
	"strings"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
)

// reserveService exposes the shared household reserve. Every operation is admin only.
type reserveService struct {
	ledger *ledger.Ledger
	users  UserServicer
}

// NewReserveService creates a new ReserveServicer.
func NewReserveService(l *ledger.Ledger, users UserServicer) ReserveServicer {
	return &reserveService{ledger: l, users: users}
}

// Deposit adds money to the reserve. "Added from Wallet" draws the amount
// from the selected user's wallet, or the actor's when none is selected,
// and fails if that wallet cannot cover it.
func (s *reserveService) Deposit(ctx context.Context, actor Actor, in DepositInput) (*ReserveResult, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	source := strings.TrimSpace(in.Source)
	if !models.IsReserveSource(source) {
		return nil, apperrors.ErrInvalidSource
	}
	description, err := depositDescription(source, in.Description)
	if err != nil {
		return nil, err
	}
	if _, err := ledger.NormalizeAmount(in.Amount); err != nil {
		return nil, err
	}

	if source == models.SourceFromWallet {
		sourceUserID := in.SelectedUserID
		if sourceUserID == "" {
			sourceUserID = actor.UserID
		}
		if _, err := s.users.GetUserByID(sourceUserID); err != nil {
			return nil, err
		}

		t, err := s.ledger.Reserve().DepositFromWallet(ctx, sourceUserID, actor.UserID, in.Amount, description, in.Date)
		if err != nil {
			return nil, err
		}
		return &ReserveResult{
			Transaction:       t.Reserve,
			WalletTransaction: t.Wallet,
			Balance:           t.Reserve.BalanceAfter,
		}, nil
	}

	tx, err := s.ledger.Reserve().Deposit(ctx, in.Amount, description, actor.UserID, in.Date, nil)
	if err != nil {
		return nil, err
	}
	return &ReserveResult{Transaction: tx, Balance: tx.BalanceAfter}, nil
}

// GetBalance returns the reserve balance.
func (s *reserveService) GetBalance(ctx context.Context, actor Actor) (*ledger.Balance, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return s.ledger.Reserve().GetBalance(ctx)
}

// ListTransactions pages through the reserve log, newest first.
func (s *reserveService) ListTransactions(ctx context.Context, actor Actor, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ReserveTransaction], error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	page.Defaults()

	rows, total, err := s.ledger.Reserve().Transactions(ctx, ledgerFilter(filter, page))
	if err != nil {
		return nil, err
	}
	return pagination.NewPageResponse(rows, page, total), nil
}
