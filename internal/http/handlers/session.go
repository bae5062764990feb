package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"sabacc_bot/internal/service"
)

// публичный снимок стола
func (h *Handler) GetSession(c *gin.Context) {
	key := c.Param("key")
	s, err := h.Games.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewPublicView(key, s))
}

// закрытая рука игрока и его текущий вопрос, если ход за ним
func (h *Handler) GetHand(c *gin.Context) {
	user, ok := getUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	key := c.Param("key")
	s, err := h.Games.Get(ctx, key)
	if err != nil {
		respondError(c, err)
		return
	}
	hand, err := h.Games.Hand(ctx, key, user.PlayerID())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"hand": hand}
	if pr := service.PromptFor(s); pr.Kind != service.PromptNone && pr.PlayerID == user.PlayerID() {
		resp["prompt"] = pr
	}
	c.JSON(http.StatusOK, resp)
}

// выдает токен на трансляцию стола
func (h *Handler) Spectate(c *gin.Context) {
	if _, ok := getUser(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	key := c.Param("key")
	if _, err := h.Games.Get(c.Request.Context(), key); err != nil {
		respondError(c, err)
		return
	}
	token, exp, err := h.Tokens.Issue(key)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp,
		"url":        h.spectatorURL(key, token),
	})
}

func (h *Handler) spectatorURL(key, token string) string {
	path := "/ws/sessions/" + url.PathEscape(key) + "?token=" + url.QueryEscape(token)
	if h.PublicURL == "" {
		return path
	}
	return h.PublicURL + path
}
