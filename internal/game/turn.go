package game

import (
	"fmt"
	"slices"
)

// действие хода. ActionNone используется только для сброса хода
type TurnAction string

const (
	ActionNone   TurnAction = ""
	ActionDraw   TurnAction = "draw"
	ActionStand  TurnAction = "stand"
	ActionReveal TurnAction = "reveal"
)

func (a *TurnAction) UnmarshalText(b []byte) error {
	switch v := TurnAction(b); v {
	case ActionDraw, ActionStand, ActionReveal:
		*a = v
		return nil
	default:
		return fmt.Errorf("%w: turn action %q", ErrUnknownTag, string(b))
	}
}

type TurnStatus string

const (
	TurnActive    TurnStatus = "active"
	TurnCompleted TurnStatus = "completed"
)

func (t *TurnStatus) UnmarshalText(b []byte) error {
	switch v := TurnStatus(b); v {
	case TurnActive, TurnCompleted:
		*t = v
		return nil
	default:
		return fmt.Errorf("%w: turn status %q", ErrUnknownTag, string(b))
	}
}

// Turn - ход текущего игрока. Drawn/Discarded заполняются только у draw
type Turn struct {
	Action    TurnAction `json:"action"`
	Status    TurnStatus `json:"status"`
	Drawn     *DealtCard `json:"drawn,omitempty"`
	Discarded *DealtCard `json:"discarded,omitempty"`
}

func (t *Turn) IsCompleted() bool {
	return t != nil && t.Status == TurnCompleted
}

func (t *Turn) String() string {
	if t == nil {
		return "none"
	}
	return string(t.Action) + "/" + string(t.Status)
}

// requireTurnHolder проверяет, что партия идет и ходит именно p
func requireTurnHolder(s *Session, p *Player, op string) error {
	if s.Status != StatusActive {
		return stateError(s, p, op, ErrInvalidState, "session is %s", s.Status)
	}
	if p == nil || s.CurrentPlayer() != p {
		return stateError(s, p, op, ErrNotCurrentPlayer, "")
	}
	if p.IsEliminated {
		return stateError(s, p, op, ErrInvalidState, "player is eliminated")
	}
	return nil
}

// requireActiveTurn дополнительно проверяет вид и незавершенность хода
func requireActiveTurn(s *Session, p *Player, op string, action TurnAction) error {
	if err := requireTurnHolder(s, p, op); err != nil {
		return err
	}
	if p.Turn == nil || p.Turn.Action != action || p.Turn.Status != TurnActive {
		return stateError(s, p, op, ErrInvalidTurnState, "want active %s turn", action)
	}
	return nil
}

// SetTurnAction начинает новый ход указанного вида.
// ActionNone сбрасывает незавершенный ход обратно к выбору действия;
// ход draw с уже взятой картой сбросить нельзя - ждет сброса карты
func SetTurnAction(s *Session, p *Player, action TurnAction) error {
	const op = "SetTurnAction"
	if err := requireTurnHolder(s, p, op); err != nil {
		return err
	}

	if action == ActionNone {
		switch {
		case p.Turn == nil:
			return nil
		case p.Turn.Status == TurnCompleted:
			return stateError(s, p, op, ErrInvalidTurnState, "completed turn must be ended")
		case p.Turn.Drawn != nil:
			return stateError(s, p, op, ErrInvalidTurnState, "drawn card awaits discard")
		}
		p.Turn = nil
		return nil
	}

	if p.Turn != nil {
		return stateError(s, p, op, ErrInvalidTurnState, "turn already started")
	}

	switch action {
	case ActionDraw, ActionStand:
		if s.RoundIndex >= RevealRound {
			return stateError(s, p, op, ErrInvalidTurnState, "%s is not allowed in the reveal round", action)
		}
	case ActionReveal:
		if s.RoundIndex != RevealRound {
			return stateError(s, p, op, ErrInvalidTurnState, "reveal is only allowed in the reveal round")
		}
	default:
		return stateError(s, p, op, ErrUnknownTag, "turn action %q", action)
	}

	p.Turn = &Turn{Action: action, Status: TurnActive}
	return nil
}

// DrawCard тянет верхнюю карту из источника за один жетон
func DrawCard(s *Session, p *Player, source CardSource) (*DealtCard, error) {
	const op = "DrawCard"
	if err := requireActiveTurn(s, p, op, ActionDraw); err != nil {
		return nil, err
	}
	if p.Turn.Drawn != nil {
		return nil, stateError(s, p, op, ErrInvalidTurnState, "card already drawn")
	}
	if !p.CanDraw() {
		return nil, stateError(s, p, op, ErrInsufficientTokens, "spent %d of %d", p.SpentTokens, p.Tokens)
	}

	suit, fromDiscard, err := source.pile()
	if err != nil {
		return nil, stateError(s, p, op, ErrInvalidState, "%v", err)
	}
	if n := len(p.Cards(suit)); n != 1 {
		return nil, stateError(s, p, op, ErrInvalidState, "%s slot holds %d cards", suit, n)
	}

	var card *DealtCard
	if fromDiscard {
		top, ok := s.popDiscard(suit)
		if !ok {
			return nil, stateError(s, p, op, ErrEmptySource, "%s", source)
		}
		card = top
		card.Source = source
	} else {
		top, ok := s.popDeck(suit)
		if !ok {
			return nil, stateError(s, p, op, ErrEmptySource, "%s", source)
		}
		card = &DealtCard{Card: top, Source: source}
	}

	p.SpentTokens++
	p.setCards(suit, append(p.Cards(suit), card))
	p.Turn.Drawn = card
	return card, nil
}

// DiscardCard сбрасывает одну из двух карт масти взятой карты и завершает ход
func DiscardCard(s *Session, p *Player, card *DealtCard) error {
	const op = "DiscardCard"
	if err := requireActiveTurn(s, p, op, ActionDraw); err != nil {
		return err
	}
	if p.Turn.Drawn == nil || p.Turn.Discarded != nil {
		return stateError(s, p, op, ErrInvalidTurnState, "discard requires a drawn card and no prior discard")
	}
	if card == nil {
		return stateError(s, p, op, ErrCardNotOwned, "nil card")
	}

	suit := card.Suit()
	cards := p.Cards(suit)
	if len(cards) != 2 {
		return stateError(s, p, op, ErrInvalidTurnState, "%s slot holds %d cards", suit, len(cards))
	}
	i := indexOfCard(cards, card)
	if i < 0 {
		return stateError(s, p, op, ErrCardNotOwned, "%s", card)
	}

	p.setCards(suit, removeCard(cards, i))
	s.pushDiscard(card)
	p.Turn.Discarded = card
	p.Turn.Status = TurnCompleted
	return nil
}

// requireRevealCard проверяет ход вскрытия и принадлежность самозванца игроку
func requireRevealCard(s *Session, p *Player, card *DealtCard, op string) error {
	if err := requireActiveTurn(s, p, op, ActionReveal); err != nil {
		return err
	}
	if s.RoundIndex != RevealRound {
		return stateError(s, p, op, ErrInvalidTurnState, "not the reveal round")
	}
	if !p.owns(card) {
		return stateError(s, p, op, ErrCardNotOwned, "")
	}
	if !card.IsImposter() {
		return stateError(s, p, op, ErrInvalidState, "%s is not an imposter", card)
	}
	return nil
}

// RollImposterDie бросает два кубика и сохраняет оба значения как кандидатов
func RollImposterDie(s *Session, p *Player, card *DealtCard, rng Randomizer) ([]int, error) {
	const op = "RollImposterDie"
	if err := requireRevealCard(s, p, card, op); err != nil {
		return nil, err
	}
	if len(card.DieRolls) != 0 {
		return nil, stateError(s, p, op, ErrInvalidTurnState, "die already rolled")
	}
	card.DieRolls = []int{rng.RollDie(), rng.RollDie()}
	return slices.Clone(card.DieRolls), nil
}

// ChooseImposterValue фиксирует одно из двух выпавших значений
func ChooseImposterValue(s *Session, p *Player, card *DealtCard, value int) error {
	const op = "ChooseImposterValue"
	if err := requireRevealCard(s, p, card, op); err != nil {
		return err
	}
	if len(card.DieRolls) != 2 {
		return stateError(s, p, op, ErrInvalidTurnState, "have %d die values, want 2", len(card.DieRolls))
	}
	if !slices.Contains(card.DieRolls, value) {
		return stateError(s, p, op, ErrInvalidState, "value %d not in %v", value, card.DieRolls)
	}
	card.DieRolls = []int{value}
	return nil
}

// FinalizeReveal завершает вскрытие, когда у всех самозванцев выбрано значение
func FinalizeReveal(s *Session, p *Player) error {
	const op = "FinalizeReveal"
	if err := requireActiveTurn(s, p, op, ActionReveal); err != nil {
		return err
	}
	if len(p.BloodCards) != 1 || len(p.SandCards) != 1 {
		return stateError(s, p, op, ErrInvalidState, "hand holds %d blood and %d sand cards", len(p.BloodCards), len(p.SandCards))
	}
	for _, c := range p.Hand() {
		if c.NeedsDieChoice() {
			return stateError(s, p, op, ErrInvalidTurnState, "%s has no chosen die value", c.Card)
		}
	}
	p.Turn.Status = TurnCompleted
	return nil
}

// StandPlayer завершает ход без движения карт
func StandPlayer(s *Session, p *Player) error {
	const op = "StandPlayer"
	if err := requireActiveTurn(s, p, op, ActionStand); err != nil {
		return err
	}
	p.Turn.Status = TurnCompleted
	return nil
}
