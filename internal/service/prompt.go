package service

import "sabacc_bot/internal/game"

// LobbyPhase - чего ждет стол до начала партии
type LobbyPhase string

const (
	LobbyClosed        LobbyPhase = ""
	LobbyAwaitingJoin  LobbyPhase = "awaiting_join"
	LobbyAwaitingStart LobbyPhase = "awaiting_start"
)

func LobbyPhaseOf(s *game.Session) LobbyPhase {
	if s == nil || s.Status != game.StatusPending {
		return LobbyClosed
	}
	if len(s.Players) < game.MinPlayers {
		return LobbyAwaitingJoin
	}
	return LobbyAwaitingStart
}

// CanJoin - за стол еще можно сесть
func CanJoin(s *game.Session) bool {
	return LobbyPhaseOf(s) != LobbyClosed && len(s.Players) < game.MaxPlayers
}

type PromptKind string

const (
	PromptNone          PromptKind = ""
	PromptChooseAction  PromptKind = "choose_action"
	PromptChooseSource  PromptKind = "choose_source"
	PromptChooseDiscard PromptKind = "choose_discard"
	PromptConfirmStand  PromptKind = "confirm_stand"
	PromptRollDie       PromptKind = "roll_die"
	PromptChooseDie     PromptKind = "choose_die"
	PromptFinalize      PromptKind = "finalize_reveal"
	PromptEndTurn       PromptKind = "end_turn"
)

// Prompt - следующий вопрос текущему игроку. Выводится из состояния стола,
// поэтому его можно показать заново после любого перезапуска
type Prompt struct {
	Kind     PromptKind `json:"kind"`
	PlayerID string     `json:"player_id"`
	Round    int        `json:"round"`

	Actions []game.TurnAction `json:"actions,omitempty"`
	Sources []game.CardSource `json:"sources,omitempty"`
	Suit    game.Suit         `json:"suit,omitempty"`
	// карты масти взятой карты, из которых выбирается сброс
	Cards     []*game.DealtCard `json:"-"`
	DieRolls  []int             `json:"die_rolls,omitempty"`
	CanCancel bool              `json:"can_cancel,omitempty"`
}

func PromptFor(s *game.Session) Prompt {
	cur := s.CurrentPlayer()
	if cur == nil {
		return Prompt{}
	}
	pr := Prompt{PlayerID: cur.ID, Round: s.RoundIndex}
	t := cur.Turn

	switch {
	case t == nil && s.RoundIndex == game.RevealRound:
		pr.Kind = PromptChooseAction
		pr.Actions = []game.TurnAction{game.ActionReveal}
		return pr
	case t == nil:
		pr.Kind = PromptChooseAction
		if sources := drawSources(s, cur); len(sources) > 0 {
			pr.Actions = append(pr.Actions, game.ActionDraw)
		}
		pr.Actions = append(pr.Actions, game.ActionStand)
		return pr
	case t.IsCompleted():
		pr.Kind = PromptEndTurn
		return pr
	}

	switch t.Action {
	case game.ActionDraw:
		if t.Drawn == nil {
			pr.Kind = PromptChooseSource
			pr.Sources = drawSources(s, cur)
			pr.CanCancel = true
			return pr
		}
		pr.Kind = PromptChooseDiscard
		pr.Suit = t.Drawn.Suit()
		pr.Cards = cur.Cards(pr.Suit)
	case game.ActionStand:
		pr.Kind = PromptConfirmStand
		pr.CanCancel = true
	case game.ActionReveal:
		pr.Kind = PromptFinalize
		for _, suit := range game.Suits {
			for _, c := range cur.Cards(suit) {
				if !c.IsImposter() {
					continue
				}
				switch len(c.DieRolls) {
				case 0:
					pr.Kind, pr.Suit = PromptRollDie, suit
					return pr
				case 2:
					pr.Kind, pr.Suit, pr.DieRolls = PromptChooseDie, suit, c.DieRolls
					return pr
				}
			}
		}
	}
	return pr
}

// drawSources - непустые источники, если игроку хватает жетонов
func drawSources(s *game.Session, p *game.Player) []game.CardSource {
	if !p.CanDraw() {
		return nil
	}
	var out []game.CardSource
	for _, src := range game.DrawSources {
		var n int
		switch src {
		case game.SourceBloodDeck:
			n = len(s.BloodDeck)
		case game.SourceBloodDiscard:
			n = len(s.BloodDiscard)
		case game.SourceSandDeck:
			n = len(s.SandDeck)
		case game.SourceSandDiscard:
			n = len(s.SandDiscard)
		}
		if n > 0 {
			out = append(out, src)
		}
	}
	return out
}
