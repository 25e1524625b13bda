package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

// OpsHandler exposes operator endpoints guarded by the ops API key
type OpsHandler struct {
	reconcileService services.ReconcileServicer
}

// NewOpsHandler creates a new OpsHandler
func NewOpsHandler(reconcileService services.ReconcileServicer) *OpsHandler {
	return &OpsHandler{reconcileService: reconcileService}
}

// Reconcile checks every wallet and the reserve against their logs
// @Summary     Reconcile ledgers
// @Description Recomputes each balance from its transaction log. With repair=true a drifted balance is overwritten.
// @Tags        ops
// @Produce     json
// @Security    ApiKeyAuth
// @Param       repair query bool false "Overwrite drifted balances"
// @Success     200 {object} map[string]interface{}
// @Failure     401 {object} ErrorResponse
// @Failure     503 {object} ErrorResponse
// @Router      /ops/reconcile [post]
func (h *OpsHandler) Reconcile(c *gin.Context) {
	repair := false
	if v := c.Query("repair"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.InvalidField("repair", "repair must be a boolean"))
			return
		}
		repair = b
	}

	reports, err := h.reconcileService.Reconcile(c.Request.Context(), repair)
	if err != nil {
		respondWithError(c, err)
		return
	}

	consistent := true
	for _, r := range reports {
		if !r.Settled() {
			consistent = false
		}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "consistent": consistent})
}
