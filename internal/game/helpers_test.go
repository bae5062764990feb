package game

import (
	"fmt"
	"testing"
)

// scriptedRandom не тасует и отдает броски кубика по списку
type scriptedRandom struct {
	rolls []int
}

func (r *scriptedRandom) Shuffle(int, func(i, j int)) {}

func (r *scriptedRandom) RollDie() int {
	if len(r.rolls) == 0 {
		return 1
	}
	v := r.rolls[0]
	r.rolls = r.rolls[1:]
	return v
}

func number(suit Suit, v int) Card {
	return Card{Suit: suit, Kind: KindNumber, Value: v}
}

func newActiveSession(t *testing.T, players, tokens int) (*Session, *scriptedRandom) {
	t.Helper()
	s, err := NewSession("test", "p0", "Player 0", tokens)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for i := 1; i < players; i++ {
		id := fmt.Sprintf("p%d", i)
		if _, err := AddPlayer(s, id, "Player "+id[1:]); err != nil {
			t.Fatalf("AddPlayer(%s): %v", id, err)
		}
	}
	rng := &scriptedRandom{}
	if err := StartGame(s, rng); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	mustInvariants(t, s)
	return s, rng
}

func mustInvariants(t *testing.T, s *Session) {
	t.Helper()
	if err := CheckInvariants(s); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func mustPlayer(t *testing.T, s *Session, id string) *Player {
	t.Helper()
	p, ok := s.PlayerByID(id)
	if !ok {
		t.Fatalf("player %s not seated", id)
	}
	return p
}

// setHand меняет карты игрока на указанные, забирая их из колоды
// и возвращая прежние карты в колоду
func setHand(t *testing.T, s *Session, p *Player, blood, sand Card) {
	t.Helper()
	for _, c := range []Card{blood, sand} {
		deck := s.Deck(c.Suit)
		idx := -1
		for i, d := range deck {
			if d == c {
				idx = i
				break
			}
		}
		if idx < 0 {
			t.Fatalf("card %s is not in the deck", c)
		}
		rest := append(append([]Card{}, deck[:idx]...), deck[idx+1:]...)
		for _, old := range p.Cards(c.Suit) {
			rest = append(rest, old.Card)
		}
		s.setDeck(c.Suit, rest)
		p.setCards(c.Suit, []*DealtCard{{Card: c, Source: SourceDealt}})
	}
	mustInvariants(t, s)
}

// finishTurn выбирает действие по раунду, завершает ход и передает его дальше
func finishTurn(t *testing.T, s *Session, rng Randomizer) *Advance {
	t.Helper()
	p := s.CurrentPlayer()
	if s.RoundIndex < RevealRound {
		if err := SetTurnAction(s, p, ActionStand); err != nil {
			t.Fatalf("SetTurnAction(stand): %v", err)
		}
		if err := StandPlayer(s, p); err != nil {
			t.Fatalf("StandPlayer: %v", err)
		}
	} else {
		if err := SetTurnAction(s, p, ActionReveal); err != nil {
			t.Fatalf("SetTurnAction(reveal): %v", err)
		}
		for _, c := range p.Hand() {
			if !c.IsImposter() {
				continue
			}
			rolls, err := RollImposterDie(s, p, c, rng)
			if err != nil {
				t.Fatalf("RollImposterDie: %v", err)
			}
			if err := ChooseImposterValue(s, p, c, rolls[0]); err != nil {
				t.Fatalf("ChooseImposterValue: %v", err)
			}
		}
		if err := FinalizeReveal(s, p); err != nil {
			t.Fatalf("FinalizeReveal: %v", err)
		}
	}
	adv, err := EndTurn(s, rng)
	if err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	mustInvariants(t, s)
	return adv
}

// playToHandEnd доигрывает текущую раздачу без доборов
func playToHandEnd(t *testing.T, s *Session, rng Randomizer) *Advance {
	t.Helper()
	for i := 0; i < 100; i++ {
		adv := finishTurn(t, s, rng)
		if adv.Hand != nil {
			return adv
		}
	}
	t.Fatalf("hand did not end")
	return nil
}
