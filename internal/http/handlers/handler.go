package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sabacc_bot/internal/domain"
	"sabacc_bot/internal/game"
	"sabacc_bot/internal/logger"
	"sabacc_bot/internal/service"
)

// Games - чтение столов
type Games interface {
	Get(ctx context.Context, key string) (*game.Session, error)
	Hand(ctx context.Context, key, playerID string) (*service.HandView, error)
}

// Stats - история партий; без базы не настроена
type Stats interface {
	Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error)
	RecentGames(ctx context.Context, sessionKey string, limit int) ([]domain.GameRecord, error)
}

type Handler struct {
	Games     Games
	Tokens    *service.SpectatorTokens
	Stats     Stats
	BotToken  string
	PublicURL string
	Version   string

	now func() time.Time
}

func NewHandler(games Games, tokens *service.SpectatorTokens, botToken, publicURL, version string) *Handler {
	return &Handler{
		Games:     games,
		Tokens:    tokens,
		BotToken:  botToken,
		PublicURL: strings.TrimRight(publicURL, "/"),
		Version:   version,
		now:       time.Now,
	}
}

// SetStats подключает историю партий
func (h *Handler) SetStats(s Stats) {
	h.Stats = s
}

const (
	initDataHeader = "X-Telegram-Init-Data"
	userKey        = "tg_user"
)

// TelegramAuth пускает только запросы с валидной init_data мини-приложения.
// Принимает заголовок X-Telegram-Init-Data или Authorization: tma <init_data>
func (h *Handler) TelegramAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		initData := c.GetHeader(initDataHeader)
		if initData == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "tma ") {
				initData = strings.TrimPrefix(auth, "tma ")
			}
		}
		if initData == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "init_data required"})
			return
		}

		user, err := service.ValidateTelegramInitData(initData, h.BotToken, h.now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func getUser(c *gin.Context) (*service.TelegramUser, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*service.TelegramUser)
	return u, ok
}

// errorStatus переводит ошибки сервиса и движка в HTTP статус
func errorStatus(err error) int {
	var stateErr *game.StateError
	switch {
	case errors.Is(err, service.ErrNoActiveGame):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotSeated), errors.Is(err, service.ErrNotYourTurn):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInitDataInvalid),
		errors.Is(err, service.ErrInitDataExpired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrGameExists), errors.Is(err, service.ErrGameInProgress), errors.As(err, &stateErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// queryLimit читает ?limit= в пределах [1, max]
func queryLimit(c *gin.Context, def, max int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.Version})
}
