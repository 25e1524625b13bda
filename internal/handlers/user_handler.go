package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

// UserHandler handles household member administration
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// UpdateRoleRequest represents a role change
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

// ListUsers returns all household members
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.User
// @Failure     403 {object} ErrorResponse
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	users, err := h.userService.ListUsers(actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateRole changes a member's role
// @Summary     Update user role
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "User ID"
// @Param       request body UpdateRoleRequest true "New role"
// @Success     200 {object} map[string]models.User
// @Failure     400 {object} ErrorResponse
// @Failure     403 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
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

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.UpdateRole(actor, id, models.Role(req.Role))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditRoleChange, "user", user.ID, c.ClientIP(),
		map[string]any{"role": user.Role})
	c.JSON(http.StatusOK, gin.H{"user": user})
}
