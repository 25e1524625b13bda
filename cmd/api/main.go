package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/webtrainer-in/ExpenseTracker/internal/config"
	"github.com/webtrainer-in/ExpenseTracker/internal/database"
	_ "github.com/webtrainer-in/ExpenseTracker/internal/docs" // Import swagger docs
	"github.com/webtrainer-in/ExpenseTracker/internal/handlers"
	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
	"github.com/webtrainer-in/ExpenseTracker/internal/middleware"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
	"github.com/webtrainer-in/ExpenseTracker/internal/validator"
)

// @title           Household Expense Tracker API
// @version         1.0
// @description     Shared household expenses with per-member cash wallets and a reserve fund.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()
	ledgers := ledger.New(ledger.NewGormStore(db))

	// Initialize services
	userService := services.NewUserService(db, appConfig.AdminEmails)
	categoryService := services.NewCategoryService(db)
	expenseService := services.NewExpenseService(db, ledgers)
	walletService := services.NewWalletService(ledgers, userService)
	reserveService := services.NewReserveService(ledgers, userService)
	statsService := services.NewStatsService(db)
	reconcileService := services.NewReconcileService(ledgers)
	auditService := services.NewAuditService(db)

	if appConfig.SeedCategories {
		if err := categoryService.SeedDefaults(); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	walletHandler := handlers.NewWalletHandler(walletService, auditService)
	reserveHandler := handlers.NewReserveHandler(reserveService, auditService)
	statsHandler := handlers.NewStatsHandler(statsService)
	opsHandler := handlers.NewOpsHandler(reconcileService)

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Operator routes
	ops := v1.Group("/ops")
	ops.Use(middleware.APIKeyMiddleware(appConfig.OpsAPIKey))
	ops.POST("/reconcile", opsHandler.Reconcile)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	users := protected.Group("/users")
	users.GET("", userHandler.ListUsers)
	users.PUT("/:id/role", userHandler.UpdateRole)

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

	log.Infof("Starting expense tracker on port %s (driver %s)", appConfig.Port, dbManager.Driver())
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
