package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sabacc_bot/internal/logger"
)

const spectatorAudience = "spectator"

var ErrInvalidToken = errors.New("неверный токен зрителя")

// SpectatorTokens выдает и проверяет токены доступа к трансляции стола
type SpectatorTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSpectatorTokens с пустым секретом генерирует случайный:
// токены тогда живут до перезапуска процесса
func NewSpectatorTokens(secret string, ttl time.Duration) *SpectatorTokens {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("read random jwt secret: %v", err))
		}
		logger.Warn("JWT_SECRET not set, spectator tokens will not survive restart")
	}
	return &SpectatorTokens{secret: key, ttl: ttl, now: time.Now}
}

// Issue выдает токен на просмотр стола key
func (t *SpectatorTokens) Issue(key string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   key,
		Audience:  jwt.ClaimStrings{spectatorAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign spectator token: %w", err)
	}
	return signed, exp, nil
}

// Parse возвращает ключ стола из валидного токена
func (t *SpectatorTokens) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(spectatorAudience),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
