package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"report-dispatch/models"
)

// GetAccount handles GET /rewards/:user_id
func (h *Handlers) GetAccount(c *gin.Context) {
	a, ok := h.backend.Account(c.Param("user_id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "account not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetLeaderboard handles GET /leaderboard?limit=
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	accounts := h.backend.Leaderboard(parseLimit(c, 10, maxLeaderboard))
	c.JSON(http.StatusOK, gin.H{
		"accounts": accounts,
		"count":    len(accounts),
	})
}
