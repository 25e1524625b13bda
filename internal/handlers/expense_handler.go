package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

// ExpenseHandler handles expense-related requests
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpenseRequest represents a new expense
type CreateExpenseRequest struct {
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"250.00" binding:"required,gt=0"`
	Category      string          `json:"category" binding:"required,notblank,max=50"`
	Description   string          `json:"description" binding:"required,notblank,max=255"`
	Date          string          `json:"date" binding:"required" example:"2024-03-10"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,payment_method" example:"CASH"`
}

// UpdateExpenseRequest represents a partial expense update
type UpdateExpenseRequest struct {
	Amount        *decimal.Decimal `json:"amount" swaggertype:"string" binding:"omitempty,gt=0"`
	Category      *string          `json:"category" binding:"omitempty,notblank,max=50"`
	Description   *string          `json:"description" binding:"omitempty,notblank,max=255"`
	Date          *string          `json:"date"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,payment_method"`
}

// CreateExpense records an expense for the caller
// @Summary     Create expense
// @Description CASH expenses withdraw their amount from the caller's wallet.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense"
// @Success     201 {object} services.ExpenseResult
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse "Unknown category"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		respondWithError(c, apperrors.InvalidField("date", "invalid date format, use RFC3339 or YYYY-MM-DD"))
		return
	}

	result, err := h.expenseService.CreateExpense(c.Request.Context(), actor, services.ExpenseInput{
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		Date:          date,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListExpenses lists expenses, newest first
// @Summary     List expenses
// @Description Members see their own expenses. Admins see everyone's and may filter by user_id.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       category       query string false "Category name"
// @Param       payment_method query string false "UPI, CASH or CARD"
// @Param       user_id        query string false "User ID (admin only)"
// @Param       from_date      query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date        query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page           query int    false "Page number"
// @Param       page_size      query int    false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Expense]
// @Failure     400 {object} ErrorResponse
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
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

	filter := services.ExpenseFilter{
		UserID:   c.Query("user_id"),
		Category: c.Query("category"),
	}
	if v := c.Query("payment_method"); v != "" {
		method := models.PaymentMethod(v)
		filter.PaymentMethod = &method
	}
	filter.FromDate, filter.ToDate, err = parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.ListExpenses(c.Request.Context(), actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetExpense returns one expense
// @Summary     Get expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]models.Expense
// @Failure     403 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense changes an expense
// @Summary     Update expense
// @Description Changing amount or payment method of a cash expense adjusts the owner's wallet.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} services.ExpenseResult
// @Failure     400 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.ExpenseUpdate{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := parseFlexibleTime(*req.Date)
		if err != nil {
			respondWithError(c, apperrors.InvalidField("date", "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		update.Date = &date
	}
	if req.PaymentMethod != nil {
		method := models.PaymentMethod(*req.PaymentMethod)
		update.PaymentMethod = &method
	}

	result, err := h.expenseService.UpdateExpense(c.Request.Context(), actor, id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteExpense removes an expense
// @Summary     Delete expense
// @Description Deleting a cash expense returns its net amount to the owner's wallet.
// @Tags        expenses
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     204
// @Failure     403 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), actor, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
