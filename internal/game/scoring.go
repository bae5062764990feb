package game

import "sort"

// HandResult - итог раздачи для одного невыбывшего игрока
type HandResult struct {
	PlayerID   string    `json:"player_id"`
	Blood      DealtCard `json:"blood"`
	Sand       DealtCard `json:"sand"`
	BloodValue int       `json:"blood_value"`
	SandValue  int       `json:"sand_value"`
	Difference int       `json:"difference"`
	LowValue   int       `json:"low_value"`

	SpentTokens int `json:"spent_tokens"`
	Rank        int `json:"rank"` // 0 - победитель
	Penalty     int `json:"penalty"`
	TokenLoss   int `json:"token_loss"`

	TokensAfter int  `json:"tokens_after"`
	Eliminated  bool `json:"eliminated"`
}

// IsMatched - обе карты дали одинаковое значение (сабакк)
func (r HandResult) IsMatched() bool {
	return r.BloodValue == r.SandValue
}

// HandSummary - результаты одной раздачи в порядке мест
type HandSummary struct {
	HandIndex int          `json:"hand_index"`
	Results   []HandResult `json:"results"`
}

// Winners возвращает результаты с рангом 0
func (h *HandSummary) Winners() []HandResult {
	var out []HandResult
	for _, r := range h.Results {
		if r.Rank == 0 {
			out = append(out, r)
		}
	}
	return out
}

// Result возвращает итог игрока в этой раздаче
func (h *HandSummary) Result(playerID string) (HandResult, bool) {
	for _, r := range h.Results {
		if r.PlayerID == playerID {
			return r, true
		}
	}
	return HandResult{}, false
}

func lessKey(a, b HandResult) bool {
	if a.Difference != b.Difference {
		return a.Difference < b.Difference
	}
	return a.LowValue < b.LowValue
}

func sameKey(a, b HandResult) bool {
	return a.Difference == b.Difference && a.LowValue == b.LowValue
}

// RankResults сортирует по (разница, меньшее значение) и проставляет ранги.
// Равные ключи делят ранг, следующий отличный ключ получает ранг +1
func RankResults(results []HandResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return lessKey(results[i], results[j])
	})
	for i := range results {
		switch {
		case i == 0:
			results[i].Rank = 0
		case sameKey(results[i], results[i-1]):
			results[i].Rank = results[i-1].Rank
		default:
			results[i].Rank = results[i-1].Rank + 1
		}
	}
}

// penalty считает штраф: победители не платят, сабакк стоит 1 жетон,
// иначе разница значений
func penalty(r HandResult) int {
	switch {
	case r.Rank == 0:
		return 0
	case r.IsMatched():
		return 1
	default:
		return r.Difference
	}
}

// settle списывает потери; если потеря не меньше запаса, игрок выбывает
func settle(p *Player, r *HandResult) {
	r.Penalty = penalty(*r)
	if r.Rank != 0 {
		r.TokenLoss = r.SpentTokens + r.Penalty
	}

	if r.TokenLoss >= p.Tokens {
		r.TokenLoss = p.Tokens
		p.Tokens = 0
		p.IsEliminated = true
	} else {
		p.Tokens -= r.TokenLoss
	}
	p.SpentTokens = 0

	r.TokensAfter = p.Tokens
	r.Eliminated = p.IsEliminated
}

func evaluate(p *Player) (HandResult, error) {
	blood, sand := p.BloodCards[0], p.SandCards[0]
	bloodValue, err := ResolveValue(blood, sand)
	if err != nil {
		return HandResult{}, err
	}
	sandValue, err := ResolveValue(sand, blood)
	if err != nil {
		return HandResult{}, err
	}

	diff := bloodValue - sandValue
	if diff < 0 {
		diff = -diff
	}
	return HandResult{
		PlayerID:    p.ID,
		Blood:       *blood,
		Sand:        *sand,
		BloodValue:  bloodValue,
		SandValue:   sandValue,
		Difference:  diff,
		LowValue:    min(bloodValue, sandValue),
		SpentTokens: p.SpentTokens,
	}, nil
}

// ResolveHand подводит итог раздачи после раунда вскрытия: ранжирует
// игроков, списывает жетоны, выбивает проигравших и либо завершает партию,
// либо сдвигает порядок хода и пересдает
func ResolveHand(s *Session, rng Randomizer) (*HandSummary, error) {
	const op = "ResolveHand"
	if s.Status != StatusActive {
		return nil, stateError(s, nil, op, ErrInvalidState, "session is %s", s.Status)
	}
	if s.RoundIndex != RevealRound {
		return nil, stateError(s, nil, op, ErrInvalidState, "round %d is not the reveal round", s.RoundIndex)
	}

	remaining := s.RemainingPlayers()
	results := make([]HandResult, 0, len(remaining))
	byID := make(map[string]*Player, len(remaining))
	for _, p := range remaining {
		if len(p.BloodCards) != 1 || len(p.SandCards) != 1 {
			return nil, stateError(s, p, op, ErrInvalidState, "hand holds %d blood and %d sand cards", len(p.BloodCards), len(p.SandCards))
		}
		if p.Turn != nil && !p.Turn.IsCompleted() {
			return nil, stateError(s, p, op, ErrInvalidTurnState, "turn still in progress")
		}
		r, err := evaluate(p)
		if err != nil {
			return nil, stateError(s, p, op, ErrInvalidState, "%v", err)
		}
		results = append(results, r)
		byID[p.ID] = p
	}

	RankResults(results)
	for i := range results {
		p := byID[results[i].PlayerID]
		settle(p, &results[i])
		p.HandResults = append(p.HandResults, results[i])
	}

	summary := HandSummary{HandIndex: s.HandIndex, Results: results}
	s.HandHistory = append(s.HandHistory, summary)

	switch left := len(s.RemainingPlayers()); {
	case left == 0:
		return nil, stateError(s, nil, op, ErrInvalidState, "no players remain after settlement")
	case left == 1:
		s.Status = StatusCompleted
		for _, p := range s.Players {
			p.Turn = nil
		}
	default:
		s.HandIndex++
		s.rotate()
		if err := Redeal(s, rng); err != nil {
			return nil, err
		}
	}

	return &summary, nil
}

// rotate переносит первого в порядке хода игрока в конец
func (s *Session) rotate() {
	if len(s.Players) < 2 {
		return
	}
	first := s.Players[0]
	rest := make([]*Player, 0, len(s.Players))
	rest = append(rest, s.Players[1:]...)
	s.Players = append(rest, first)
}
