package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
)

// expenseService handles expense CRUD and keeps cash expenses mirrored in
// the payer's wallet.
type expenseService struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, l *ledger.Ledger) ExpenseServicer {
	return &expenseService{db: db, ledger: l}
}

// CreateExpense records an expense for the actor. A CASH expense withdraws
// its amount from the actor's wallet in the same transaction.
func (s *expenseService) CreateExpense(ctx context.Context, actor Actor, in ExpenseInput) (*ExpenseResult, error) {
	amount, err := expenseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	method, err := paymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperrors.InvalidField("description", "description is required")
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		return nil, apperrors.InvalidField("category", "category is required")
	}
	if in.Date.IsZero() {
		return nil, apperrors.InvalidField("date", "date is required")
	}

	if err := s.requireCategory(s.db.WithContext(ctx), category); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:        actor.UserID,
		Amount:        amount,
		Category:      category,
		Description:   description,
		Date:          in.Date,
		PaymentMethod: method,
	}

	var entries []models.WalletTransaction
	err = s.ledger.Exclusive(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			var err error
			entries, err = s.binder(tx).OnCreate(ctx, expense)
			return err
		})
	}, ledger.WalletOwner(actor.UserID))
	if err != nil {
		return nil, internalErr(err)
	}

	return newExpenseResult(expense, entries), nil
}

// GetExpense returns an expense visible to the actor.
func (s *expenseService) GetExpense(ctx context.Context, actor Actor, id string) (*models.Expense, error) {
	expense, err := s.load(s.db.WithContext(ctx).Preload("User"), id)
	if err != nil {
		return nil, err
	}
	if err := authorizeExpense(actor, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns the actor's expenses, or everyone's for an admin,
// newest first.
func (s *expenseService) ListExpenses(ctx context.Context, actor Actor, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	query := s.db.WithContext(ctx).Model(&models.Expense{})
	switch {
	case !actor.IsAdmin():
		query = query.Where("user_id = ?", actor.UserID)
	case filter.UserID != "":
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", strings.ToLower(filter.Category))
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *filter.PaymentMethod)
	}
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := query.Preload("User").
		Order("date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(expenses, page, total), nil
}

// UpdateExpense applies in to an expense and brings the owner's wallet in
// line with the new amount and payment method.
func (s *expenseService) UpdateExpense(ctx context.Context, actor Actor, id string, in ExpenseUpdate) (*ExpenseResult, error) {
	if err := validateUpdate(&in); err != nil {
		return nil, err
	}

	current, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := authorizeExpense(actor, current); err != nil {
		return nil, err
	}
	if in.Category != nil {
		if err := s.requireCategory(s.db.WithContext(ctx), *in.Category); err != nil {
			return nil, err
		}
	}

	var (
		updated models.Expense
		entries []models.WalletTransaction
	)
	err = s.ledger.Exclusive(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			old, err := s.load(tx, id)
			if err != nil {
				return err
			}
			updated = *old
			in.applyTo(&updated)

			if err := tx.Save(&updated).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			entries, err = s.binder(tx).OnUpdate(ctx, old, &updated)
			return err
		})
	}, ledger.WalletOwner(current.UserID))
	if err != nil {
		return nil, internalErr(err)
	}

	return newExpenseResult(&updated, entries), nil
}

// DeleteExpense soft-deletes an expense after reversing its wallet entries.
func (s *expenseService) DeleteExpense(ctx context.Context, actor Actor, id string) error {
	current, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	if err := authorizeExpense(actor, current); err != nil {
		return err
	}

	err = s.ledger.Exclusive(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			old, err := s.load(tx, id)
			if err != nil {
				return err
			}
			if _, err := s.binder(tx).OnDelete(ctx, old); err != nil {
				return err
			}
			if err := tx.Delete(old).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
	}, ledger.WalletOwner(current.UserID))
	return internalErr(err)
}

// binder returns a binder whose ledger writes join tx.
func (s *expenseService) binder(tx *gorm.DB) *ledger.Binder {
	return s.ledger.WithStore(ledger.NewGormStore(tx)).Binder()
}

func (s *expenseService) load(db *gorm.DB, id string) (*models.Expense, error) {
	var expense models.Expense
	if err := db.Where("id = ?", id).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

func (s *expenseService) requireCategory(db *gorm.DB, name string) error {
	var count int64
	if err := db.Model(&models.Category{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

func authorizeExpense(actor Actor, expense *models.Expense) error {
	if expense.UserID != actor.UserID && !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}

func expenseAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.InvalidField("amount", "amount must be positive")
	}
	return amount, nil
}

func paymentMethod(m models.PaymentMethod) (models.PaymentMethod, error) {
	switch m {
	case "":
		return models.PaymentMethodUPI, nil
	case models.PaymentMethodUPI, models.PaymentMethodCash, models.PaymentMethodCard:
		return m, nil
	}
	return "", apperrors.ErrInvalidPaymentMethod
}

func validateUpdate(in *ExpenseUpdate) error {
	if in.Amount != nil {
		amount, err := expenseAmount(*in.Amount)
		if err != nil {
			return err
		}
		in.Amount = &amount
	}
	if in.PaymentMethod != nil {
		method, err := paymentMethod(*in.PaymentMethod)
		if err != nil {
			return err
		}
		in.PaymentMethod = &method
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			return apperrors.InvalidField("description", "description must not be empty")
		}
		in.Description = &d
	}
	if in.Category != nil {
		c := strings.ToLower(strings.TrimSpace(*in.Category))
		if c == "" {
			return apperrors.InvalidField("category", "category must not be empty")
		}
		in.Category = &c
	}
	if in.Date != nil && in.Date.IsZero() {
		return apperrors.InvalidField("date", "date must not be empty")
	}
	return nil
}

func (in ExpenseUpdate) applyTo(e *models.Expense) {
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Category != nil {
		e.Category = *in.Category
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.PaymentMethod != nil {
		e.PaymentMethod = *in.PaymentMethod
	}
}

func newExpenseResult(expense *models.Expense, entries []models.WalletTransaction) *ExpenseResult {
	if entries == nil {
		entries = []models.WalletTransaction{}
	}
	result := &ExpenseResult{Expense: expense, WalletTransactions: entries}
	if n := len(entries); n > 0 {
		balance := entries[n-1].BalanceAfter
		result.WalletBalance = &balance
		result.NegativeBalance = balance.IsNegative()
	}
	return result
}

// internalErr passes AppErrors through and wraps anything else.
func internalErr(err error) error {
	var appErr *apperrors.AppError
	if err == nil || errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
