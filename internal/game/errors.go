package game

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidTurnState   = errors.New("invalid turn state")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrEmptySource        = errors.New("empty source")
	ErrNotCurrentPlayer   = errors.New("not the current player")
	ErrCardNotOwned       = errors.New("card not owned by player")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrTooManyPlayers     = errors.New("too many players")
	ErrPlayerExists       = errors.New("player already seated")
	ErrUnknownTag         = errors.New("unknown tag")
)

// StateError - нарушение инварианта или неверная последовательность вызовов.
// Несёт снимок состояния для диагностики; errors.Is работает по Err
type StateError struct {
	Op       string
	PlayerID string
	Status   Status
	Hand     int
	Round    int
	Turn     string
	Detail   string
	Err      error
}

func (e *StateError) Error() string {
	msg := e.Op + ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return fmt.Sprintf("%s [status=%s hand=%d round=%d player=%s turn=%s]",
		msg, e.Status, e.Hand, e.Round, e.PlayerID, e.Turn)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func stateError(s *Session, p *Player, op string, err error, format string, args ...any) error {
	e := &StateError{Op: op, Err: err}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	if s != nil {
		e.Status = s.Status
		e.Hand = s.HandIndex
		e.Round = s.RoundIndex
	}
	if p != nil {
		e.PlayerID = p.ID
		e.Turn = p.Turn.String()
	}
	return e
}
