package service

import (
	"slices"

	"sabacc_bot/internal/game"
)

// CardView - карта в виде для клиента
type CardView struct {
	Suit     game.Suit     `json:"suit"`
	Kind     game.CardKind `json:"kind"`
	Value    int           `json:"value,omitempty"`
	DieRolls []int         `json:"die_rolls,omitempty"`
	Label    string        `json:"label"`
}

func newCardView(c *game.DealtCard) CardView {
	return CardView{
		Suit:     c.Card.Suit,
		Kind:     c.Card.Kind,
		Value:    c.Card.Value,
		DieRolls: slices.Clone(c.DieRolls),
		Label:    c.String(),
	}
}

func cardViews(cards []*game.DealtCard) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, newCardView(c))
	}
	return out
}

// PublicPlayer - то, что видно всем за столом. Карты скрыты, видно только их число
type PublicPlayer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Tokens      int    `json:"tokens"`
	SpentTokens int    `json:"spent_tokens"`
	Eliminated  bool   `json:"eliminated"`
	Current     bool   `json:"current"`
	BloodCards  int    `json:"blood_cards"`
	SandCards   int    `json:"sand_cards"`
	Turn        string `json:"turn,omitempty"`
}

// ResultView - открытый итог раздачи
type ResultView struct {
	PlayerID    string   `json:"player_id"`
	Name        string   `json:"name"`
	Blood       CardView `json:"blood"`
	Sand        CardView `json:"sand"`
	BloodValue  int      `json:"blood_value"`
	SandValue   int      `json:"sand_value"`
	Rank        int      `json:"rank"`
	TokenLoss   int      `json:"token_loss"`
	TokensAfter int      `json:"tokens_after"`
	Eliminated  bool     `json:"eliminated"`
}

// PublicView - снимок стола для зрителей и общего чата
type PublicView struct {
	Key             string         `json:"key"`
	GameID          string         `json:"game_id"`
	Status          game.Status    `json:"status"`
	Lobby           LobbyPhase     `json:"lobby,omitempty"`
	HandIndex       int            `json:"hand_index"`
	RoundIndex      int            `json:"round_index"`
	CurrentPlayerID string         `json:"current_player_id,omitempty"`
	Players         []PublicPlayer `json:"players"`
	BloodDeck       int            `json:"blood_deck"`
	SandDeck        int            `json:"sand_deck"`
	BloodDiscard    *CardView      `json:"blood_discard,omitempty"`
	SandDiscard     *CardView      `json:"sand_discard,omitempty"`
	LastHand        []ResultView   `json:"last_hand,omitempty"`
	WinnerID        string         `json:"winner_id,omitempty"`
}

func NewPublicView(key string, s *game.Session) PublicView {
	v := PublicView{
		Key:        key,
		GameID:     s.ID,
		Status:     s.Status,
		Lobby:      LobbyPhaseOf(s),
		HandIndex:  s.HandIndex,
		RoundIndex: s.RoundIndex,
		BloodDeck:  len(s.BloodDeck),
		SandDeck:   len(s.SandDeck),
	}
	if cur := s.CurrentPlayer(); cur != nil {
		v.CurrentPlayerID = cur.ID
	}
	for _, p := range s.Players {
		pp := PublicPlayer{
			ID:          p.ID,
			Name:        p.Name,
			Tokens:      p.Tokens,
			SpentTokens: p.SpentTokens,
			Eliminated:  p.IsEliminated,
			Current:     p.ID == v.CurrentPlayerID,
			BloodCards:  len(p.BloodCards),
			SandCards:   len(p.SandCards),
		}
		if p.Turn != nil {
			pp.Turn = p.Turn.String()
		}
		v.Players = append(v.Players, pp)
	}
	if top := s.DiscardTop(game.SuitBlood); top != nil {
		cv := newCardView(top)
		v.BloodDiscard = &cv
	}
	if top := s.DiscardTop(game.SuitSand); top != nil {
		cv := newCardView(top)
		v.SandDiscard = &cv
	}
	if last := s.LastHand(); last != nil {
		v.LastHand = resultViews(s, last)
	}
	if w := s.Winner(); w != nil {
		v.WinnerID = w.ID
	}
	return v
}

func resultViews(s *game.Session, h *game.HandSummary) []ResultView {
	out := make([]ResultView, 0, len(h.Results))
	for _, r := range h.Results {
		name := r.PlayerID
		if p, ok := s.PlayerByID(r.PlayerID); ok {
			name = p.Name
		}
		out = append(out, ResultView{
			PlayerID:    r.PlayerID,
			Name:        name,
			Blood:       newCardView(&r.Blood),
			Sand:        newCardView(&r.Sand),
			BloodValue:  r.BloodValue,
			SandValue:   r.SandValue,
			Rank:        r.Rank,
			TokenLoss:   r.TokenLoss,
			TokensAfter: r.TokensAfter,
			Eliminated:  r.Eliminated,
		})
	}
	return out
}

// HandView - закрытая рука одного игрока
type HandView struct {
	PlayerID        string     `json:"player_id"`
	Tokens          int        `json:"tokens"`
	SpentTokens     int        `json:"spent_tokens"`
	AvailableTokens int        `json:"available_tokens"`
	Blood           []CardView `json:"blood"`
	Sand            []CardView `json:"sand"`
	Eliminated      bool       `json:"eliminated"`
}

func NewHandView(p *game.Player) HandView {
	return HandView{
		PlayerID:        p.ID,
		Tokens:          p.Tokens,
		SpentTokens:     p.SpentTokens,
		AvailableTokens: p.AvailableTokens(),
		Blood:           cardViews(p.BloodCards),
		Sand:            cardViews(p.SandCards),
		Eliminated:      p.IsEliminated,
	}
}
