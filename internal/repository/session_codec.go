package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"sabacc_bot/internal/game"
)

// ErrCorruptSession - сохраненное состояние не декодируется или нарушает
// инварианты движка
var ErrCorruptSession = errors.New("corrupt session state")

func encodeSession(s *game.Session) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return raw, nil
}

// decodeSession восстанавливает стол и проверяет его целостность
func decodeSession(raw []byte) (*game.Session, error) {
	var s game.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if err := game.CheckInvariants(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSession, err)
	}
	return &s, nil
}
