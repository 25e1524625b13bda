package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/webtrainer-in/ExpenseTracker/internal/handlers"
	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/middleware"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
	"github.com/webtrainer-in/ExpenseTracker/internal/testutil"
	"github.com/webtrainer-in/ExpenseTracker/internal/validator"
)

const (
	adminEmail = "admin@test.com"
	opsKey     = "test-ops-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	ledgers := ledger.New(ledger.NewGormStore(db))

	// Services
	userService := services.NewUserService(db, []string{adminEmail})
	categoryService := services.NewCategoryService(db)
	expenseService := services.NewExpenseService(db, ledgers)
	walletService := services.NewWalletService(ledgers, userService)
	reserveService := services.NewReserveService(ledgers, userService)
	statsService := services.NewStatsService(db)
	reconcileService := services.NewReconcileService(ledgers)
	auditService := services.NewAuditService(db)

	if err := categoryService.SeedDefaults(); err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	walletHandler := handlers.NewWalletHandler(walletService, auditService)
	reserveHandler := handlers.NewReserveHandler(reserveService, auditService)
	statsHandler := handlers.NewStatsHandler(statsService)
	opsHandler := handlers.NewOpsHandler(reconcileService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	ops := v1.Group("/ops")
	ops.Use(middleware.APIKeyMiddleware(opsKey))
	ops.POST("/reconcile", opsHandler.Reconcile)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/users", userHandler.ListUsers)
	protected.PUT("/users/:id/role", userHandler.UpdateRole)

	wallet := protected.Group("/wallet")
	wallet.GET("/balance", walletHandler.GetBalance)
	wallet.GET("/balances", walletHandler.GetBalances)
	wallet.GET("/transactions", walletHandler.GetTransactions)
	wallet.POST("/deposit", walletHandler.Deposit)
	wallet.POST("/withdraw", walletHandler.Withdraw)

	reserve := protected.Group("/reserve")
	reserve.GET("/balance", reserveHandler.GetBalance)
	reserve.GET("/transactions", reserveHandler.GetTransactions)
	reserve.POST("/deposit", reserveHandler.Deposit)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	protected.GET("/stats", statsHandler.GetStats)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// opsRequest posts to an ops endpoint with the given API key.
func (app *testApp) opsRequest(path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, http.NoBody)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// mustStatus fails the test unless rec carries the wanted status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]interface{} {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		return nil
	}
	return parseJSON(t, rec)
}

// errorCode returns the error code of an error response.
func errorCode(t *testing.T, result map[string]interface{}) string {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", result)
	}
	code, _ := errObj["code"].(string)
	return code
}

// amount reads a decimal that was serialized as a JSON string.
func amount(t *testing.T, v interface{}) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	if !ok {
		t.Fatalf("expected decimal string, got %T %v", v, v)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// walletBalance fetches the caller's wallet balance.
func (app *testApp) walletBalance(t *testing.T, token string) decimal.Decimal {
	t.Helper()
	result := mustStatus(t, app.request("GET", "/api/v1/wallet/balance", "", token), http.StatusOK)
	return amount(t, result["balance"].(map[string]interface{})["current_balance"])
}

// reserveBalance fetches the reserve balance with an admin token.
func (app *testApp) reserveBalance(t *testing.T, adminToken string) decimal.Decimal {
	t.Helper()
	result := mustStatus(t, app.request("GET", "/api/v1/reserve/balance", "", adminToken), http.StatusOK)
	return amount(t, result["balance"].(map[string]interface{})["current_balance"])
}

func assertAmount(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s, got %s", want, got.StringFixed(2))
	}
}
