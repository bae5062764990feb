package game

// Advance описывает, что произошло после завершения хода
type Advance struct {
	RoundEnded    bool         `json:"round_ended"`
	Hand          *HandSummary `json:"hand,omitempty"` // итоги, если раздача закончилась
	GameCompleted bool         `json:"game_completed"`
}

// StartGame переводит стол в active: один раз тасует порядок игроков,
// сдает карты и начинает первый ход
func StartGame(s *Session, rng Randomizer) error {
	const op = "StartGame"
	if s.Status != StatusPending {
		return stateError(s, nil, op, ErrInvalidState, "session is %s", s.Status)
	}
	if len(s.Players) < MinPlayers {
		return stateError(s, nil, op, ErrNotEnoughPlayers, "have %d, need %d", len(s.Players), MinPlayers)
	}

	rng.Shuffle(len(s.Players), func(i, j int) {
		s.Players[i], s.Players[j] = s.Players[j], s.Players[i]
	})
	s.Status = StatusActive
	s.HandIndex = 0
	s.RoundIndex = 0
	if err := Redeal(s, rng); err != nil {
		return err
	}
	beginRound(s)
	return nil
}

// Redeal возвращает все карты в колоды своих мастей, тасует каждую колоду,
// сдает по карте каждой масти невыбывшим игрокам и открывает верхнюю карту
// каждой колоды в сброс
func Redeal(s *Session, rng Randomizer) error {
	const op = "Redeal"
	remaining := s.RemainingPlayers()

	for _, suit := range Suits {
		pool := make([]Card, 0, DeckSize)
		pool = append(pool, s.Deck(suit)...)
		for _, c := range s.Discard(suit) {
			pool = append(pool, c.Card)
		}
		for _, p := range s.Players {
			for _, c := range p.Cards(suit) {
				pool = append(pool, c.Card)
			}
			p.setCards(suit, nil)
		}

		if need := len(remaining) + 1; len(pool) < need {
			return stateError(s, nil, op, ErrInvalidState, "%s pool has %d cards, need %d", suit, len(pool), need)
		}

		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		s.setDeck(suit, pool)
		s.setDiscard(suit, nil)
	}

	for _, p := range s.Players {
		p.Turn = nil
	}
	for _, p := range remaining {
		for _, suit := range Suits {
			c, _ := s.popDeck(suit)
			p.setCards(suit, []*DealtCard{{Card: c, Source: SourceDealt}})
		}
	}
	for _, suit := range Suits {
		c, _ := s.popDeck(suit)
		s.setDiscard(suit, []*DealtCard{{Card: c, Source: SourceDealt}})
	}
	return nil
}

// EndTurn закрывает завершенный ход и передает ход дальше.
// После последнего игрока раунд заканчивается; после раунда вскрытия
// подводится итог раздачи
func EndTurn(s *Session, rng Randomizer) (*Advance, error) {
	const op = "EndTurn"
	cur := s.CurrentPlayer()
	if err := requireTurnHolder(s, cur, op); err != nil {
		return nil, err
	}
	if !cur.Turn.IsCompleted() {
		return nil, stateError(s, cur, op, ErrInvalidTurnState, "turn is not completed")
	}
	cur.Turn = nil

	adv := &Advance{}
	if next, ok := s.nextSeat(s.CurrentPlayerIndex + 1); ok {
		s.CurrentPlayerIndex = next
		beginTurn(s)
		return adv, nil
	}

	adv.RoundEnded = true
	if s.RoundIndex < RevealRound {
		s.RoundIndex++
		beginRound(s)
		return adv, nil
	}

	summary, err := ResolveHand(s, rng)
	if err != nil {
		return nil, err
	}
	adv.Hand = summary
	if s.Status == StatusCompleted {
		adv.GameCompleted = true
		return adv, nil
	}
	s.RoundIndex = 0
	beginRound(s)
	return adv, nil
}

// nextSeat ищет первого невыбывшего игрока начиная с индекса from
func (s *Session) nextSeat(from int) (int, bool) {
	for i := from; i < len(s.Players); i++ {
		if !s.Players[i].IsEliminated {
			return i, true
		}
	}
	return 0, false
}

func beginRound(s *Session) {
	s.CurrentPlayerIndex, _ = s.nextSeat(0)
	beginTurn(s)
}

// новый ход начинается без выбранного действия
func beginTurn(s *Session) {
	if p := s.CurrentPlayer(); p != nil {
		p.Turn = nil
	}
}
