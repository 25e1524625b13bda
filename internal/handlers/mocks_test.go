package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/middleware"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
	"github.com/webtrainer-in/ExpenseTracker/internal/validator"
)

const (
	testUserID  = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	testOtherID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5c"
	testItemID  = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5d"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// --- mock services ---

type mockUserService struct {
	createUserFn     func(email, password, firstName, lastName string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	attemptLoginFn   func(email, password string) (*models.User, error)
	listUsersFn      func(actor services.Actor) ([]models.User, error)
	updateRoleFn     func(actor services.Actor, userID string, role models.Role) (*models.User, error)
}

func (m *mockUserService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, _ string) bool {
	return true
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ListUsers(actor services.Actor) ([]models.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(actor)
	}
	return []models.User{}, nil
}

func (m *mockUserService) UpdateRole(actor services.Actor, userID string, role models.Role) (*models.User, error) {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(actor, userID, role)
	}
	return &models.User{Base: models.Base{ID: userID}, Role: role}, nil
}

type mockCategoryService struct {
	createCategoryFn func(actor services.Actor, name, icon string) (*models.Category, error)
	listCategoriesFn func() ([]models.Category, error)
	getCategoryFn    func(id string) (*models.Category, error)
	updateCategoryFn func(actor services.Actor, id, name, icon string) (*models.Category, error)
	deleteCategoryFn func(actor services.Actor, id string) error
}

func (m *mockCategoryService) CreateCategory(actor services.Actor, name, icon string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(actor, name, icon)
	}
	return &models.Category{Base: models.Base{ID: testItemID}, Name: name, Icon: icon}, nil
}

func (m *mockCategoryService) ListCategories() ([]models.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn()
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(id string) (*models.Category, error) {
	if m.getCategoryFn != nil {
		return m.getCategoryFn(id)
	}
	return &models.Category{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryService) UpdateCategory(actor services.Actor, id, name, icon string) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(actor, id, name, icon)
	}
	return &models.Category{Base: models.Base{ID: id}, Name: name, Icon: icon}, nil
}

func (m *mockCategoryService) DeleteCategory(actor services.Actor, id string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(actor, id)
	}
	return nil
}

func (m *mockCategoryService) SeedDefaults() error { return nil }

type mockExpenseService struct {
	createExpenseFn func(ctx context.Context, actor services.Actor, in services.ExpenseInput) (*services.ExpenseResult, error)
	getExpenseFn    func(ctx context.Context, actor services.Actor, id string) (*models.Expense, error)
	listExpensesFn  func(ctx context.Context, actor services.Actor, filter services.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	updateExpenseFn func(ctx context.Context, actor services.Actor, id string, in services.ExpenseUpdate) (*services.ExpenseResult, error)
	deleteExpenseFn func(ctx context.Context, actor services.Actor, id string) error
}

func (m *mockExpenseService) CreateExpense(ctx context.Context, actor services.Actor, in services.ExpenseInput) (*services.ExpenseResult, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(ctx, actor, in)
	}
	return &services.ExpenseResult{Expense: &models.Expense{}}, nil
}

func (m *mockExpenseService) GetExpense(ctx context.Context, actor services.Actor, id string) (*models.Expense, error) {
	if m.getExpenseFn != nil {
		return m.getExpenseFn(ctx, actor, id)
	}
	return &models.Expense{Base: models.Base{ID: id}}, nil
}

func (m *mockExpenseService) ListExpenses(ctx context.Context, actor services.Actor, filter services.ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(ctx, actor, filter, page)
	}
	page.Defaults()
	return pagination.NewPageResponse([]models.Expense{}, page, 0), nil
}

func (m *mockExpenseService) UpdateExpense(ctx context.Context, actor services.Actor, id string, in services.ExpenseUpdate) (*services.ExpenseResult, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(ctx, actor, id, in)
	}
	return &services.ExpenseResult{Expense: &models.Expense{Base: models.Base{ID: id}}}, nil
}

func (m *mockExpenseService) DeleteExpense(ctx context.Context, actor services.Actor, id string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(ctx, actor, id)
	}
	return nil
}

type mockWalletService struct {
	depositFn          func(ctx context.Context, actor services.Actor, in services.DepositInput) (*services.WalletResult, error)
	withdrawFn         func(ctx context.Context, actor services.Actor, in services.WithdrawInput) (*services.WalletResult, error)
	getBalanceFn       func(ctx context.Context, actor services.Actor, userID string) (*ledger.Balance, error)
	listTransactionsFn func(ctx context.Context, actor services.Actor, userID string, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.WalletTransaction], error)
	listBalancesFn     func(ctx context.Context, actor services.Actor) ([]models.WalletBalance, error)
}

func (m *mockWalletService) Deposit(ctx context.Context, actor services.Actor, in services.DepositInput) (*services.WalletResult, error) {
	if m.depositFn != nil {
		return m.depositFn(ctx, actor, in)
	}
	return &services.WalletResult{Transaction: &models.WalletTransaction{ID: testItemID, Amount: in.Amount}, Balance: in.Amount}, nil
}

func (m *mockWalletService) Withdraw(ctx context.Context, actor services.Actor, in services.WithdrawInput) (*services.WalletResult, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, actor, in)
	}
	return &services.WalletResult{Transaction: &models.WalletTransaction{ID: testItemID, Amount: in.Amount}}, nil
}

func (m *mockWalletService) GetBalance(ctx context.Context, actor services.Actor, userID string) (*ledger.Balance, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(ctx, actor, userID)
	}
	return &ledger.Balance{Amount: decimal.Zero}, nil
}

func (m *mockWalletService) ListTransactions(ctx context.Context, actor services.Actor, userID string, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.WalletTransaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(ctx, actor, userID, filter, page)
	}
	page.Defaults()
	return pagination.NewPageResponse([]models.WalletTransaction{}, page, 0), nil
}

func (m *mockWalletService) ListBalances(ctx context.Context, actor services.Actor) ([]models.WalletBalance, error) {
	if m.listBalancesFn != nil {
		return m.listBalancesFn(ctx, actor)
	}
	return []models.WalletBalance{}, nil
}

type mockReserveService struct {
	depositFn          func(ctx context.Context, actor services.Actor, in services.DepositInput) (*services.ReserveResult, error)
	getBalanceFn       func(ctx context.Context, actor services.Actor) (*ledger.Balance, error)
	listTransactionsFn func(ctx context.Context, actor services.Actor, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ReserveTransaction], error)
}

func (m *mockReserveService) Deposit(ctx context.Context, actor services.Actor, in services.DepositInput) (*services.ReserveResult, error) {
	if m.depositFn != nil {
		return m.depositFn(ctx, actor, in)
	}
	return &services.ReserveResult{Transaction: &models.ReserveTransaction{ID: testItemID, Amount: in.Amount}, Balance: in.Amount}, nil
}

func (m *mockReserveService) GetBalance(ctx context.Context, actor services.Actor) (*ledger.Balance, error) {
	if m.getBalanceFn != nil {
		return m.getBalanceFn(ctx, actor)
	}
	return &ledger.Balance{Amount: decimal.Zero}, nil
}

func (m *mockReserveService) ListTransactions(ctx context.Context, actor services.Actor, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ReserveTransaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(ctx, actor, filter, page)
	}
	page.Defaults()
	return pagination.NewPageResponse([]models.ReserveTransaction{}, page, 0), nil
}

type mockStatsService struct {
	getStatsFn func(ctx context.Context, actor services.Actor) (*services.Stats, error)
}

func (m *mockStatsService) GetStats(ctx context.Context, actor services.Actor) (*services.Stats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn(ctx, actor)
	}
	return &services.Stats{}, nil
}

type mockReconcileService struct {
	reconcileFn func(ctx context.Context, repair bool) ([]*ledger.ReconcileReport, error)
}

func (m *mockReconcileService) Reconcile(ctx context.Context, repair bool) ([]*ledger.ReconcileReport, error) {
	if m.reconcileFn != nil {
		return m.reconcileFn(ctx, repair)
	}
	return nil, nil
}

type auditEntry struct {
	UserID, Action, ResourceType, ResourceID string
}

// mockAuditService records every Log call.
type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID})
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- test helpers ---

func injectUserID(uid string) gin.HandlerFunc {
	return injectActor(uid, models.RoleMember)
}

func injectActor(uid string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uid)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
