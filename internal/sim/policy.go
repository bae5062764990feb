package sim

import (
	"math/rand"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/service"
)

// Move - ответ автоигрока на вопрос Prompt
type Move struct {
	Action game.TurnAction
	Source game.CardSource
	Slot   int
	Value  int
}

// Policy выбирает ход. s - стол после последнего действия, p - текущий игрок
type Policy interface {
	Name() string
	Decide(rng *rand.Rand, s *game.Session, p *game.Player, pr service.Prompt) Move
}

// RandomPolicy ходит случайно среди разрешенных вариантов
type RandomPolicy struct{}

func (RandomPolicy) Name() string { return "random" }

func (RandomPolicy) Decide(rng *rand.Rand, _ *game.Session, _ *game.Player, pr service.Prompt) Move {
	var m Move
	switch pr.Kind {
	case service.PromptChooseAction:
		m.Action = pr.Actions[rng.Intn(len(pr.Actions))]
	case service.PromptChooseSource:
		m.Source = pr.Sources[rng.Intn(len(pr.Sources))]
	case service.PromptChooseDiscard:
		m.Slot = rng.Intn(len(pr.Cards))
	case service.PromptChooseDie:
		m.Value = pr.DieRolls[rng.Intn(len(pr.DieRolls))]
	}
	return m
}

// GreedyPolicy тянет карты, пока на руке нет пары, и оставляет карту,
// ближе всего подходящую к карте другой масти
type GreedyPolicy struct{}

func (GreedyPolicy) Name() string { return "greedy" }

func (GreedyPolicy) Decide(rng *rand.Rand, s *game.Session, p *game.Player, pr service.Prompt) Move {
	var m Move
	switch pr.Kind {
	case service.PromptChooseAction:
		m.Action = pr.Actions[len(pr.Actions)-1]
		for _, a := range pr.Actions {
			if a == game.ActionDraw && !isPair(p) && p.AvailableTokens() > 1 {
				m.Action = game.ActionDraw
			}
		}
	case service.PromptChooseSource:
		m.Source = pr.Sources[rng.Intn(len(pr.Sources))]
		for _, src := range pr.Sources {
			if src != game.SourceBloodDiscard && src != game.SourceSandDiscard {
				continue
			}
			suit := game.SuitBlood
			if src == game.SourceSandDiscard {
				suit = game.SuitSand
			}
			if top := s.DiscardTop(suit); top != nil && matches(top, other(p, suit)) {
				m.Source = src
				break
			}
		}
	case service.PromptChooseDiscard:
		target := other(p, pr.Suit)
		// сбрасываем карту, которая хуже подходит к другой масти
		if distance(pr.Cards[1], target) > distance(pr.Cards[0], target) {
			m.Slot = 1
		}
	case service.PromptChooseDie:
		target := other(p, pr.Suit)
		m.Value = pr.DieRolls[0]
		for _, v := range pr.DieRolls[1:] {
			if target != nil && target.Card.Kind == game.KindNumber && abs(v-target.Card.Value) < abs(m.Value-target.Card.Value) {
				m.Value = v
			}
		}
	}
	return m
}

func other(p *game.Player, suit game.Suit) *game.DealtCard {
	want := game.SuitSand
	if suit == game.SuitSand {
		want = game.SuitBlood
	}
	cards := p.Cards(want)
	if len(cards) == 0 {
		return nil
	}
	return cards[0]
}

func isPair(p *game.Player) bool {
	blood, sand := p.Cards(game.SuitBlood), p.Cards(game.SuitSand)
	if len(blood) == 0 || len(sand) == 0 {
		return false
	}
	return matches(blood[0], sand[0])
}

func matches(a, b *game.DealtCard) bool {
	return distance(a, b) == 0
}

// distance - насколько карта a далека от пары с b; самозванец оценивается средне
func distance(a, b *game.DealtCard) int {
	if a == nil || b == nil {
		return game.MaxNumberValue
	}
	if a.Card.Kind == game.KindSylop || b.Card.Kind == game.KindSylop {
		return 0
	}
	if a.Card.Kind == game.KindImposter || b.Card.Kind == game.KindImposter {
		return game.MaxNumberValue / 2
	}
	return abs(a.Card.Value - b.Card.Value)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
