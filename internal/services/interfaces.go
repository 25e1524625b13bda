package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	ListUsers(actor Actor) ([]models.User, error)
	UpdateRole(actor Actor, userID string, role models.Role) (*models.User, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(actor Actor, name, icon string) (*models.Category, error)
	ListCategories() ([]models.Category, error)
	GetCategoryByID(id string) (*models.Category, error)
	UpdateCategory(actor Actor, id, name, icon string) (*models.Category, error)
	DeleteCategory(actor Actor, id string) error
	SeedDefaults() error
}

// ExpenseInput carries the fields of a new expense.
type ExpenseInput struct {
	Amount        decimal.Decimal
	Category      string
	Description   string
	Date          time.Time
	PaymentMethod models.PaymentMethod
}

// ExpenseUpdate carries the fields to change on an expense. Nil fields are left untouched.
type ExpenseUpdate struct {
	Amount        *decimal.Decimal
	Category      *string
	Description   *string
	Date          *time.Time
	PaymentMethod *models.PaymentMethod
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	UserID        string
	Category      string
	PaymentMethod *models.PaymentMethod
	FromDate      *time.Time
	ToDate        *time.Time
}

// ExpenseResult is an expense together with the wallet entries its write produced.
type ExpenseResult struct {
	Expense            *models.Expense            `json:"expense"`
	WalletTransactions []models.WalletTransaction `json:"wallet_transactions"`
	WalletBalance      *decimal.Decimal           `json:"wallet_balance,omitempty"`
	NegativeBalance    bool                       `json:"negative_balance"`
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(ctx context.Context, actor Actor, in ExpenseInput) (*ExpenseResult, error)
	GetExpense(ctx context.Context, actor Actor, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context, actor Actor, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	UpdateExpense(ctx context.Context, actor Actor, id string, in ExpenseUpdate) (*ExpenseResult, error)
	DeleteExpense(ctx context.Context, actor Actor, id string) error
}

// TransactionFilter holds optional filter parameters for listing ledger entries.
type TransactionFilter struct {
	Type     *models.TransactionType
	FromDate *time.Time
	ToDate   *time.Time
}

// DepositInput carries a wallet or reserve deposit request.
type DepositInput struct {
	Amount         decimal.Decimal
	Description    string
	Date           time.Time
	Source         string
	SelectedUserID string
}

// WithdrawInput carries a manual wallet withdrawal request.
type WithdrawInput struct {
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// WalletResult is the outcome of a wallet write.
type WalletResult struct {
	Transaction        *models.WalletTransaction  `json:"transaction"`
	ReserveTransaction *models.ReserveTransaction `json:"reserve_transaction,omitempty"`
	Balance            decimal.Decimal            `json:"balance"`
	NegativeBalance    bool                       `json:"negative_balance"`
}

// WalletServicer defines the contract for wallet operations.
type WalletServicer interface {
	Deposit(ctx context.Context, actor Actor, in DepositInput) (*WalletResult, error)
	Withdraw(ctx context.Context, actor Actor, in WithdrawInput) (*WalletResult, error)
	GetBalance(ctx context.Context, actor Actor, userID string) (*ledger.Balance, error)
	ListTransactions(ctx context.Context, actor Actor, userID string, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.WalletTransaction], error)
	ListBalances(ctx context.Context, actor Actor) ([]models.WalletBalance, error)
}

// ReserveResult is the outcome of a reserve write.
type ReserveResult struct {
	Transaction       *models.ReserveTransaction `json:"transaction"`
	WalletTransaction *models.WalletTransaction  `json:"wallet_transaction,omitempty"`
	Balance           decimal.Decimal            `json:"balance"`
}

// ReserveServicer defines the contract for the shared household reserve.
type ReserveServicer interface {
	Deposit(ctx context.Context, actor Actor, in DepositInput) (*ReserveResult, error)
	GetBalance(ctx context.Context, actor Actor) (*ledger.Balance, error)
	ListTransactions(ctx context.Context, actor Actor, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ReserveTransaction], error)
}

// UserTotal is one member's all-time expense total.
type UserTotal struct {
	User  models.User     `json:"user"`
	Total decimal.Decimal `json:"total"`
}

// Stats summarizes expense totals. ByUser is only filled for admins.
type Stats struct {
	Total          decimal.Decimal `json:"total"`
	ThisMonth      decimal.Decimal `json:"this_month"`
	LastMonth      decimal.Decimal `json:"last_month"`
	AverageMonthly decimal.Decimal `json:"average_monthly"`
	ByUser         []UserTotal     `json:"by_user,omitempty"`
}

// StatsServicer defines the contract for expense statistics.
type StatsServicer interface {
	GetStats(ctx context.Context, actor Actor) (*Stats, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}

// ReconcileServicer defines the contract for ledger consistency checks.
type ReconcileServicer interface {
	Reconcile(ctx context.Context, repair bool) ([]*ledger.ReconcileReport, error)
}
