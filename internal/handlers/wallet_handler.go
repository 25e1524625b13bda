package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

// WalletHandler handles the per-user cash wallets
type WalletHandler struct {
	walletService services.WalletServicer
	auditService  services.AuditServicer
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService services.WalletServicer, auditService services.AuditServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService, auditService: auditService}
}

// WalletDepositRequest represents a wallet deposit
type WalletDepositRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"500.00" binding:"required,gt=0"`
	Description string          `json:"description" binding:"max=255"`
	Date        *string         `json:"date" example:"2024-03-10"`
	Source      string          `json:"source" binding:"omitempty,wallet_source" example:"ATM Withdrawal"`
}

// WalletWithdrawRequest represents a manual wallet withdrawal
type WalletWithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"120.00" binding:"required,gt=0"`
	Description string          `json:"description" binding:"required,notblank,max=255"`
	Date        *string         `json:"date" example:"2024-03-10"`
}

// GetBalance returns a wallet balance
// @Summary     Get wallet balance
// @Description Returns the caller's balance. Admins may pass user_id to read another wallet.
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Param       user_id query string false "User ID (admin only)"
// @Success     200 {object} map[string]interface{}
// @Failure     403 {object} ErrorResponse
// @Router      /wallet/balance [get]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), actor, c.Query("user_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":          balance,
		"negative_balance": balance.IsNegative(),
	})
}

// GetTransactions lists wallet entries, newest first
// @Summary     List wallet transactions
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   query string false "User ID (admin only)"
// @Param       type      query string false "deposit or withdrawal"
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.WalletTransaction]
// @Failure     400 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Router      /wallet/transactions [get]
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.walletService.ListTransactions(c.Request.Context(), actor, c.Query("user_id"), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Deposit adds cash to the caller's wallet
// @Summary     Deposit into wallet
// @Description Sources: "ATM Withdrawal" (default), "Added from Reserve" (admin), "Others" (description required).
// @Tags        wallet
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WalletDepositRequest true "Deposit"
// @Success     201 {object} services.WalletResult
// @Failure     400 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Router      /wallet/deposit [post]
func (h *WalletHandler) Deposit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req WalletDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.walletService.Deposit(c.Request.Context(), actor, services.DepositInput{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		Source:      req.Source,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditWalletDeposit, "wallet_transaction", result.Transaction.ID, c.ClientIP(),
		map[string]any{"amount": result.Transaction.Amount.StringFixed(2), "description": result.Transaction.Description})
	c.JSON(http.StatusCreated, result)
}

// Withdraw takes cash out of the caller's wallet
// @Summary     Withdraw from wallet
// @Description The balance may go negative; the response flags it.
// @Tags        wallet
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body WalletWithdrawRequest true "Withdrawal"
// @Success     201 {object} services.WalletResult
// @Failure     400 {object} ErrorResponse
// @Router      /wallet/withdraw [post]
func (h *WalletHandler) Withdraw(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req WalletWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.walletService.Withdraw(c.Request.Context(), actor, services.WithdrawInput{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditWalletWithdraw, "wallet_transaction", result.Transaction.ID, c.ClientIP(),
		map[string]any{"amount": result.Transaction.Amount.StringFixed(2)})
	c.JSON(http.StatusCreated, result)
}

// GetBalances lists every wallet balance
// @Summary     List all wallet balances
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.WalletBalance
// @Failure     403 {object} ErrorResponse
// @Router      /wallet/balances [get]
func (h *WalletHandler) GetBalances(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.walletService.ListBalances(c.Request.Context(), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances})
}
