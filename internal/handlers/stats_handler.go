package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

// StatsHandler serves the spending summary
type StatsHandler struct {
	statsService services.StatsServicer
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService services.StatsServicer) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats returns spending totals
// @Summary     Get expense statistics
// @Description Members see their own totals. Admins see household totals broken down by user.
// @Tags        stats
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Stats
// @Router      /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.GetStats(c.Request.Context(), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
