package game

import (
	"fmt"
	"time"
)

// стадия жизненного цикла стола: pending -> active -> completed
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s *Status) UnmarshalText(b []byte) error {
	switch v := Status(b); v {
	case StatusPending, StatusActive, StatusCompleted:
		*s = v
		return nil
	default:
		return fmt.Errorf("%w: status %q", ErrUnknownTag, string(b))
	}
}

const (
	// раунды 0..2 - торговые, раунд 3 - вскрытие
	RevealRound = 3

	MinPlayers            = 2
	MaxPlayers            = 8
	DefaultStartingTokens = 6
)

// Session - полное состояние одной партии.
// Верх колоды и сброса - элемент с индексом 0
type Session struct {
	ID     string `json:"id"`
	Status Status `json:"status"`

	BloodDeck    []Card       `json:"blood_deck"`
	SandDeck     []Card       `json:"sand_deck"`
	BloodDiscard []*DealtCard `json:"blood_discard"`
	SandDiscard  []*DealtCard `json:"sand_discard"`

	// порядок хода; между раздачами сдвигается, а не тасуется
	Players            []*Player `json:"players"`
	CurrentPlayerIndex int       `json:"current_player_index"`
	RoundIndex         int       `json:"round_index"`
	HandIndex          int       `json:"hand_index"`

	StartingTokens int           `json:"starting_tokens"`
	CreatedBy      string        `json:"created_by"`
	HandHistory    []HandSummary `json:"hand_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession создает стол в статусе pending с первым игроком
func NewSession(id, creatorID, creatorName string, startingTokens int) (*Session, error) {
	if startingTokens <= 0 {
		return nil, stateError(nil, nil, "NewSession", ErrInvalidState, "starting tokens %d", startingTokens)
	}
	s := &Session{
		ID:             id,
		Status:         StatusPending,
		BloodDeck:      NewDeck(SuitBlood),
		SandDeck:       NewDeck(SuitSand),
		StartingTokens: startingTokens,
		CreatedBy:      creatorID,
	}
	s.Players = []*Player{newPlayer(creatorID, creatorName, startingTokens)}
	return s, nil
}

// AddPlayer сажает игрока за стол, пока партия не началась
func AddPlayer(s *Session, id, name string) (*Player, error) {
	const op = "AddPlayer"
	if s.Status != StatusPending {
		return nil, stateError(s, nil, op, ErrInvalidState, "session is %s", s.Status)
	}
	if _, ok := s.PlayerByID(id); ok {
		return nil, stateError(s, nil, op, ErrPlayerExists, "player %s", id)
	}
	if len(s.Players) >= MaxPlayers {
		return nil, stateError(s, nil, op, ErrTooManyPlayers, "limit %d", MaxPlayers)
	}
	p := newPlayer(id, name, s.StartingTokens)
	s.Players = append(s.Players, p)
	return p, nil
}

func (s *Session) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

func (s *Session) PlayerByID(id string) (*Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// CurrentPlayer возвращает игрока, чей сейчас ход (nil вне активной партии)
func (s *Session) CurrentPlayer() *Player {
	if s.Status != StatusActive || s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentPlayerIndex]
}

func (s *Session) IsCurrentPlayer(id string) bool {
	p := s.CurrentPlayer()
	return p != nil && p.ID == id
}

// RemainingPlayers - невыбывшие игроки в порядке хода
func (s *Session) RemainingPlayers() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.IsEliminated {
			out = append(out, p)
		}
	}
	return out
}

// Winner возвращает победителя завершенной партии
func (s *Session) Winner() *Player {
	if s.Status != StatusCompleted {
		return nil
	}
	remaining := s.RemainingPlayers()
	if len(remaining) != 1 {
		return nil
	}
	return remaining[0]
}

// DiscardTop возвращает верхнюю карту сброса масти или nil
func (s *Session) DiscardTop(suit Suit) *DealtCard {
	pile := s.Discard(suit)
	if len(pile) == 0 {
		return nil
	}
	return pile[0]
}

func (s *Session) Deck(suit Suit) []Card {
	if suit == SuitBlood {
		return s.BloodDeck
	}
	return s.SandDeck
}

func (s *Session) Discard(suit Suit) []*DealtCard {
	if suit == SuitBlood {
		return s.BloodDiscard
	}
	return s.SandDiscard
}

// LastHand возвращает итоги последней сыгранной раздачи
func (s *Session) LastHand() *HandSummary {
	if len(s.HandHistory) == 0 {
		return nil
	}
	return &s.HandHistory[len(s.HandHistory)-1]
}

func (s *Session) setDeck(suit Suit, cards []Card) {
	if suit == SuitBlood {
		s.BloodDeck = cards
	} else {
		s.SandDeck = cards
	}
}

func (s *Session) setDiscard(suit Suit, cards []*DealtCard) {
	if suit == SuitBlood {
		s.BloodDiscard = cards
	} else {
		s.SandDiscard = cards
	}
}

// pushDiscard кладет карту на верх сброса
func (s *Session) pushDiscard(card *DealtCard) {
	pile := s.Discard(card.Suit())
	out := make([]*DealtCard, 0, len(pile)+1)
	out = append(out, card)
	s.setDiscard(card.Suit(), append(out, pile...))
}

// popDeck снимает верхнюю карту колоды
func (s *Session) popDeck(suit Suit) (Card, bool) {
	deck := s.Deck(suit)
	if len(deck) == 0 {
		return Card{}, false
	}
	top := deck[0]
	s.setDeck(suit, deck[1:])
	return top, true
}

// popDiscard снимает верхнюю карту сброса
func (s *Session) popDiscard(suit Suit) (*DealtCard, bool) {
	pile := s.Discard(suit)
	if len(pile) == 0 {
		return nil, false
	}
	s.setDiscard(suit, pile[1:])
	return pile[0], true
}
