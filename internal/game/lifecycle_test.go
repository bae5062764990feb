package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSessionLobby(t *testing.T) {
	s, err := NewSession("lobby", "host", "Host", DefaultStartingTokens)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Status != StatusPending || len(s.Players) != 1 || s.CurrentPlayer() != nil {
		t.Fatalf("unexpected new session: %+v", s)
	}
	mustInvariants(t, s)

	if err := StartGame(s, &scriptedRandom{}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("start with one player: got %v", err)
	}
	if _, err := AddPlayer(s, "host", "Again"); !errors.Is(err, ErrPlayerExists) {
		t.Fatalf("duplicate join: got %v", err)
	}
	for i := 1; i < MaxPlayers; i++ {
		if _, err := AddPlayer(s, string(rune('a'+i)), "P"); err != nil {
			t.Fatalf("AddPlayer %d: %v", i, err)
		}
	}
	if _, err := AddPlayer(s, "late", "Late"); !errors.Is(err, ErrTooManyPlayers) {
		t.Fatalf("join full table: got %v", err)
	}

	if err := StartGame(s, &scriptedRandom{}); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := AddPlayer(s, "late", "Late"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("join active table: got %v", err)
	}
	if err := StartGame(s, &scriptedRandom{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("start twice: got %v", err)
	}
	mustInvariants(t, s)

	if _, err := NewSession("bad", "host", "Host", 0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("zero tokens: got %v", err)
	}
}

func TestStartGame_Deal(t *testing.T) {
	s, _ := newActiveSession(t, 3, 6)
	for _, p := range s.Players {
		if len(p.BloodCards) != 1 || len(p.SandCards) != 1 {
			t.Fatalf("player %s dealt %d/%d cards", p.ID, len(p.BloodCards), len(p.SandCards))
		}
		for _, c := range p.Hand() {
			if c.Source != SourceDealt {
				t.Fatalf("dealt card has source %s", c.Source)
			}
		}
	}
	for _, suit := range Suits {
		if len(s.Discard(suit)) != 1 {
			t.Fatalf("%s discard has %d cards, want 1", suit, len(s.Discard(suit)))
		}
		if len(s.Deck(suit)) != DeckSize-3-1 {
			t.Fatalf("%s deck has %d cards", suit, len(s.Deck(suit)))
		}
	}
	if s.RoundIndex != 0 || s.HandIndex != 0 || s.CurrentPlayerIndex != 0 || s.CurrentPlayer().Turn != nil {
		t.Fatalf("unexpected start state: round=%d hand=%d idx=%d", s.RoundIndex, s.HandIndex, s.CurrentPlayerIndex)
	}
}

func TestStartGame_ShufflesRotationOnce(t *testing.T) {
	s, err := NewSession("seeded", "a", "A", 6)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	for _, id := range []string{"b", "c", "d"} {
		if _, err := AddPlayer(s, id, id); err != nil {
			t.Fatalf("AddPlayer: %v", err)
		}
	}
	if err := StartGame(s, NewRandom(7)); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	seen := map[string]bool{}
	for _, p := range s.Players {
		seen[p.ID] = true
	}
	if len(seen) != 4 {
		t.Fatalf("rotation lost players: %v", seen)
	}
	mustInvariants(t, s)
}

func TestRotationCoverage(t *testing.T) {
	s, rng := newActiveSession(t, 4, 6)

	var visited []int
	for round := 0; round < RevealRound; round++ {
		visited = visited[:0]
		for {
			visited = append(visited, s.CurrentPlayerIndex)
			adv := finishTurn(t, s, rng)
			if adv.RoundEnded {
				break
			}
		}
		if len(visited) != 4 {
			t.Fatalf("round %d visited %v", round, visited)
		}
		for i, idx := range visited {
			if idx != i {
				t.Fatalf("round %d visited %v, want 0..3 in order", round, visited)
			}
		}
		if s.RoundIndex != round+1 || s.CurrentPlayerIndex != 0 {
			t.Fatalf("after round %d: round=%d idx=%d", round, s.RoundIndex, s.CurrentPlayerIndex)
		}
	}
}

func TestHandAdvance_RotatesOrder(t *testing.T) {
	s, rng := newActiveSession(t, 3, 20)
	before := []string{s.Players[0].ID, s.Players[1].ID, s.Players[2].ID}

	adv := playToHandEnd(t, s, rng)
	if adv.GameCompleted || s.Status != StatusActive {
		t.Fatalf("game ended after one hand with 20 tokens")
	}
	if s.HandIndex != 1 || s.RoundIndex != 0 || s.CurrentPlayerIndex != 0 {
		t.Fatalf("hand=%d round=%d idx=%d", s.HandIndex, s.RoundIndex, s.CurrentPlayerIndex)
	}
	want := []string{before[1], before[2], before[0]}
	for i, p := range s.Players {
		if p.ID != want[i] {
			t.Fatalf("rotation = %v, want %v", ids(s.Players), want)
		}
		if p.SpentTokens != 0 || len(p.BloodCards) != 1 || len(p.SandCards) != 1 {
			t.Fatalf("player %s not re-dealt", p.ID)
		}
	}
	if len(s.HandHistory) != 1 || len(s.HandHistory[0].Results) != 3 {
		t.Fatalf("hand history = %+v", s.HandHistory)
	}
}

// партия на троих заканчивается ровно на выбывании предпоследнего игрока
func TestTermination_ThreePlayers(t *testing.T) {
	s, rng := newActiveSession(t, 3, 2)
	p0, p1, p2 := mustPlayer(t, s, "p0"), mustPlayer(t, s, "p1"), mustPlayer(t, s, "p2")
	setHand(t, s, p0, number(SuitBlood, 4), number(SuitSand, 4))
	setHand(t, s, p1, number(SuitBlood, 1), number(SuitSand, 2))
	setHand(t, s, p2, number(SuitBlood, 6), number(SuitSand, 1))

	adv := playToHandEnd(t, s, rng)
	if adv.GameCompleted || s.Status != StatusActive {
		t.Fatalf("game completed with two players left")
	}
	if !p2.IsEliminated || p1.IsEliminated || p1.Tokens != 1 || p0.Tokens != 2 {
		t.Fatalf("after hand 0: p0=%d p1=%d p2 eliminated=%v", p0.Tokens, p1.Tokens, p2.IsEliminated)
	}
	if len(p2.BloodCards) != 0 || len(p2.SandCards) != 0 {
		t.Fatalf("eliminated player was dealt cards")
	}
	if cur := s.CurrentPlayer(); cur.IsEliminated {
		t.Fatalf("eliminated player holds the turn")
	}

	setHand(t, s, p0, number(SuitBlood, 2), number(SuitSand, 5))
	setHand(t, s, p1, number(SuitBlood, 3), number(SuitSand, 3))

	// выбывший игрок пропускается в каждом раунде
	for round := 0; round < RevealRound; round++ {
		turns := 0
		for {
			if s.CurrentPlayer() == p2 {
				t.Fatalf("eliminated player got a turn")
			}
			turns++
			if finishTurn(t, s, rng).RoundEnded {
				break
			}
		}
		if turns != 2 {
			t.Fatalf("round %d had %d turns, want 2", round, turns)
		}
	}
	adv = playToHandEnd(t, s, rng)
	if !adv.GameCompleted || s.Status != StatusCompleted {
		t.Fatalf("game not completed after second elimination")
	}
	if !p0.IsEliminated || s.Winner() != p1 {
		t.Fatalf("winner = %v", s.Winner())
	}
	if _, err := EndTurn(s, rng); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("EndTurn after completion: got %v", err)
	}
	mustInvariants(t, s)
}

func TestSessionJSON_ResumesMidTurn(t *testing.T) {
	s, rng := newActiveSession(t, 3, 6)
	p0 := s.CurrentPlayer()
	if err := SetTurnAction(s, p0, ActionDraw); err != nil {
		t.Fatalf("SetTurnAction: %v", err)
	}
	if _, err := DrawCard(s, p0, SourceSandDiscard); err != nil {
		t.Fatalf("DrawCard: %v", err)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var loaded Session
	if err := json.Unmarshal(raw, &loaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	mustInvariants(t, &loaded)

	lp := loaded.CurrentPlayer()
	if lp.ID != p0.ID || lp.Turn.Action != ActionDraw || lp.Turn.Drawn == nil || lp.SpentTokens != 1 {
		t.Fatalf("turn lost in round trip: %+v", lp.Turn)
	}
	if len(loaded.SandDiscard) != len(s.SandDiscard) || len(loaded.SandDeck) != len(s.SandDeck) {
		t.Fatalf("piles lost in round trip")
	}
	if err := DiscardCard(&loaded, lp, lp.SandCards[0]); err != nil {
		t.Fatalf("DiscardCard after reload: %v", err)
	}
	if _, err := EndTurn(&loaded, rng); err != nil {
		t.Fatalf("EndTurn after reload: %v", err)
	}
	mustInvariants(t, &loaded)
}

func TestSessionJSON_RejectsUnknownTags(t *testing.T) {
	s, _ := newActiveSession(t, 2, 6)
	p0 := s.CurrentPlayer()
	if err := SetTurnAction(s, p0, ActionStand); err != nil {
		t.Fatalf("SetTurnAction: %v", err)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal map: %v", err)
	}
	players := doc["players"].([]any)
	players[0].(map[string]any)["turn"].(map[string]any)["action"] = "fold"
	raw, _ = json.Marshal(doc)

	var loaded Session
	if err := json.Unmarshal(raw, &loaded); err == nil {
		t.Fatalf("unknown turn action accepted")
	}
}

func TestCheckInvariants_DetectsLostCard(t *testing.T) {
	s, _ := newActiveSession(t, 2, 6)
	s.BloodDeck = s.BloodDeck[1:]
	if err := CheckInvariants(s); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
}

func ids(players []*Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}
