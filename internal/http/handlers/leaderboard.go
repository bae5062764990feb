package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// лучшие игроки по выигранным партиям
func (h *Handler) GetLeaderboard(c *gin.Context) {
	if h.Stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}

	top, err := h.Stats.Leaderboard(c.Request.Context(), queryLimit(c, 100, 100))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// последние партии за столом
func (h *Handler) GetSessionGames(c *gin.Context) {
	if h.Stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}

	games, err := h.Stats.RecentGames(c.Request.Context(), c.Param("key"), queryLimit(c, 20, 100))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": games})
}
