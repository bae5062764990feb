package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataInvalid = errors.New("неверная подпись init_data")
	ErrInitDataExpired = errors.New("init_data устарела")
)

// максимальный возраст init_data и допустимый сдвиг часов
const (
	initDataMaxAge    = time.Hour
	initDataClockSkew = 5 * time.Minute
)

// TelegramUser - поле user из init_data
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PlayerID - идентификатор игрока за столом
func (u TelegramUser) PlayerID() string {
	return strconv.FormatInt(u.ID, 10)
}

func (u TelegramUser) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.PlayerID()
	}
	return name
}

// проверяет HMAC Telegram WebApp init_data и убеждается,
// что auth_date недавний для предотвращения replay-атак
func ValidateTelegramInitData(initData, botToken string, now time.Time) (*TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, ErrInitDataInvalid
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInitDataInvalid
	}
	values.Del("hash")

	var dataCheck []string
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}

	sort.Strings(dataCheck)
	dataString := strings.Join(dataCheck, "\n")

	// Telegram WebApp использует HMAC с ключом "WebAppData"
	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))
	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataString))

	provided, err := hex.DecodeString(hash)
	if err != nil || !hmac.Equal(h.Sum(nil), provided) {
		return nil, ErrInitDataInvalid
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInitDataInvalid
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > initDataMaxAge || age < -initDataClockSkew {
		return nil, ErrInitDataExpired
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, ErrInitDataInvalid
	}
	return &user, nil
}
