package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/logger"
	"sabacc_bot/internal/service"
)

// SessionReader - чтение стола для первого снимка
type SessionReader interface {
	Get(ctx context.Context, key string) (*game.Session, error)
}

// SpectatorHandler подключает зрителей к трансляции стола
type SpectatorHandler struct {
	Hub           *Hub
	Tokens        *service.SpectatorTokens
	Games         SessionReader
	AllowedOrigin string
}

func NewSpectatorHandler(hub *Hub, tokens *service.SpectatorTokens, games SessionReader, allowedOrigin string) *SpectatorHandler {
	return &SpectatorHandler{
		Hub:           hub,
		Tokens:        tokens,
		Games:         games,
		AllowedOrigin: allowedOrigin,
	}
}

// HandleWS: GET /ws/sessions/:key?token=...
func (h *SpectatorHandler) HandleWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "токен обязателен"})
			return
		}

		key, err := h.Tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "неверный токен"})
			return
		}
		if key != c.Param("key") {
			c.JSON(http.StatusForbidden, gin.H{"error": "токен выдан для другого стола"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		initial, err := h.snapshot(ctx, key)
		cancel()
		if err != nil {
			if errors.Is(err, service.ErrNoActiveGame) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			logger.Error("load session for spectator", "session_key", key, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось загрузить стол"})
			return
		}

		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if h.AllowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == h.AllowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(key, conn, h.Hub)
		go client.Run(initial)
	}
}

func (h *SpectatorHandler) snapshot(ctx context.Context, key string) ([]byte, error) {
	s, err := h.Games.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	view := service.NewPublicView(key, s)
	return json.Marshal(Message{Type: MessageTable, Table: &view})
}
