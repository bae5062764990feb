package game

import "fmt"

// CheckInvariants проверяет состояние стола между действиями.
// Используется при загрузке из хранилища и в тестах
func CheckInvariants(s *Session) error {
	const op = "CheckInvariants"
	fail := func(format string, args ...any) error {
		return stateError(s, nil, op, ErrInvalidState, format, args...)
	}

	switch s.Status {
	case StatusPending, StatusActive, StatusCompleted:
	default:
		return fail("unknown status %q", s.Status)
	}
	if len(s.Players) == 0 || len(s.Players) > MaxPlayers {
		return fail("%d players", len(s.Players))
	}
	if s.RoundIndex < 0 || s.RoundIndex > RevealRound {
		return fail("round index %d", s.RoundIndex)
	}
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return fail("current player index %d of %d", s.CurrentPlayerIndex, len(s.Players))
	}

	for _, suit := range Suits {
		total := len(s.Deck(suit)) + len(s.Discard(suit))
		for _, c := range s.Deck(suit) {
			if c.Suit != suit {
				return fail("%s in %s deck", c, suit)
			}
		}
		for _, c := range s.Discard(suit) {
			if c == nil || c.Suit() != suit {
				return fail("foreign card in %s discard", suit)
			}
		}
		for _, p := range s.Players {
			for _, c := range p.Cards(suit) {
				if c == nil || c.Suit() != suit {
					return fail("player %s holds foreign card in %s slot", p.ID, suit)
				}
				if err := checkDieRolls(c); err != nil {
					return fail("player %s: %v", p.ID, err)
				}
			}
			total += len(p.Cards(suit))
		}
		if total != DeckSize {
			return fail("%s cards sum to %d, want %d", suit, total, DeckSize)
		}
	}

	turns := 0
	seen := make(map[string]bool, len(s.Players))
	for i, p := range s.Players {
		if seen[p.ID] {
			return fail("duplicate player %s", p.ID)
		}
		seen[p.ID] = true
		if p.IsEliminated && p.Tokens != 0 {
			return fail("eliminated player %s holds %d tokens", p.ID, p.Tokens)
		}
		if p.SpentTokens < 0 || p.SpentTokens > p.Tokens {
			return fail("player %s spent %d of %d tokens", p.ID, p.SpentTokens, p.Tokens)
		}
		if p.Turn == nil {
			continue
		}
		turns++
		if s.Status != StatusActive {
			return fail("player %s holds a turn while %s", p.ID, s.Status)
		}
		if i != s.CurrentPlayerIndex {
			return fail("player %s holds a turn out of order", p.ID)
		}
		if err := checkTurn(p.Turn); err != nil {
			return fail("player %s: %v", p.ID, err)
		}
	}
	if turns > 1 {
		return fail("%d players hold a turn", turns)
	}

	if s.Status == StatusActive {
		if s.Players[s.CurrentPlayerIndex].IsEliminated {
			return fail("current player is eliminated")
		}
		for _, p := range s.RemainingPlayers() {
			if err := checkSlots(p); err != nil {
				return fail("player %s: %v", p.ID, err)
			}
		}
	}
	return nil
}

func checkTurn(t *Turn) error {
	switch t.Status {
	case TurnActive, TurnCompleted:
	default:
		return fmt.Errorf("%w: turn status %q", ErrUnknownTag, t.Status)
	}
	switch t.Action {
	case ActionDraw:
		if t.Discarded != nil && t.Drawn == nil {
			return fmt.Errorf("discard recorded without a draw")
		}
		if t.Status == TurnCompleted && t.Discarded == nil {
			return fmt.Errorf("completed draw without a discard")
		}
	case ActionStand, ActionReveal:
		if t.Drawn != nil || t.Discarded != nil {
			return fmt.Errorf("%s turn carries cards", t.Action)
		}
	default:
		return fmt.Errorf("%w: turn action %q", ErrUnknownTag, t.Action)
	}
	return nil
}

// checkSlots: по одной карте каждой масти, кроме момента между
// добором и сбросом, когда в слоте взятой масти две карты
func checkSlots(p *Player) error {
	pending := p.Turn != nil && p.Turn.Action == ActionDraw && p.Turn.Drawn != nil && p.Turn.Discarded == nil
	for _, suit := range Suits {
		want := 1
		if pending && p.Turn.Drawn.Suit() == suit {
			want = 2
		}
		if n := len(p.Cards(suit)); n != want {
			return fmt.Errorf("%s slot holds %d cards, want %d", suit, n, want)
		}
	}
	return nil
}

func checkDieRolls(c *DealtCard) error {
	if len(c.DieRolls) == 0 {
		return nil
	}
	if !c.IsImposter() {
		return fmt.Errorf("%s carries die values", c.Card)
	}
	if len(c.DieRolls) > 2 {
		return fmt.Errorf("%s carries %d die values", c.Card, len(c.DieRolls))
	}
	for _, v := range c.DieRolls {
		if v < 1 || v > DieSides {
			return fmt.Errorf("%s die value %d", c.Card, v)
		}
	}
	return nil
}
