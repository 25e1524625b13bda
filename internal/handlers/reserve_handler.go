package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

// ReserveHandler handles the shared household reserve
type ReserveHandler struct {
	reserveService services.ReserveServicer
	auditService   services.AuditServicer
}

// NewReserveHandler creates a new ReserveHandler
func NewReserveHandler(reserveService services.ReserveServicer, auditService services.AuditServicer) *ReserveHandler {
	return &ReserveHandler{reserveService: reserveService, auditService: auditService}
}

// ReserveDepositRequest represents a reserve deposit
type ReserveDepositRequest struct {
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"1000.00" binding:"required,gt=0"`
	Description    string          `json:"description" binding:"max=255"`
	Date           *string         `json:"date" example:"2024-03-10"`
	Source         string          `json:"source" binding:"required,reserve_source" example:"Added from Wallet"`
	SelectedUserID string          `json:"selected_user_id" binding:"omitempty,uuid"`
}

// GetBalance returns the reserve balance
// @Summary     Get reserve balance
// @Tags        reserve
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{}
// @Failure     403 {object} ErrorResponse
// @Router      /reserve/balance [get]
func (h *ReserveHandler) GetBalance(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.reserveService.GetBalance(c.Request.Context(), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// GetTransactions lists reserve entries, newest first
// @Summary     List reserve transactions
// @Tags        reserve
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "deposit or withdrawal"
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.ReserveTransaction]
// @Failure     403 {object} ErrorResponse
// @Router      /reserve/transactions [get]
func (h *ReserveHandler) GetTransactions(c *gin.Context) {
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

	result, err := h.reserveService.ListTransactions(c.Request.Context(), actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Deposit adds money to the reserve
// @Summary     Deposit into reserve
// @Description Sources: "ATM Withdrawal", "Added from Wallet" (draws on selected_user_id or the caller; wallet must cover it), "Others" (description required).
// @Tags        reserve
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ReserveDepositRequest true "Deposit"
// @Success     201 {object} services.ReserveResult
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient wallet balance"
// @Failure     403 {object} ErrorResponse
// @Router      /reserve/deposit [post]
func (h *ReserveHandler) Deposit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReserveDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.reserveService.Deposit(c.Request.Context(), actor, services.DepositInput{
		Amount:         req.Amount,
		Description:    req.Description,
		Date:           date,
		Source:         req.Source,
		SelectedUserID: req.SelectedUserID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{
		"amount": result.Transaction.Amount.StringFixed(2),
		"source": req.Source,
	}
	if result.WalletTransaction != nil {
		changes["wallet_user_id"] = result.WalletTransaction.UserID
	}
	h.auditService.Log(actor.UserID, services.AuditReserveDeposit, "reserve_transaction", result.Transaction.ID, c.ClientIP(), changes)
	c.JSON(http.StatusCreated, result)
}
