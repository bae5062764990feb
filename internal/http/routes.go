package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sabacc_bot/internal/http/handlers"
	"sabacc_bot/internal/ws"
)

// RegisterRoutes вешает API, трансляцию и метрики на роутер
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, spectators *ws.SpectatorHandler) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/leaderboard", h.GetLeaderboard)

	sessions := api.Group("/sessions/:key")
	sessions.GET("", h.GetSession)
	sessions.GET("/games", h.GetSessionGames)

	authed := sessions.Group("", h.TelegramAuth())
	authed.GET("/hand", h.GetHand)
	authed.POST("/spectate", h.Spectate)

	if spectators != nil {
		r.GET("/ws/sessions/:key", spectators.HandleWS())
	}
}

// CORS для фронта мини-приложения на другом домене
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Telegram-Init-Data")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
