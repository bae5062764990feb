package game

import "testing"

func TestRankResults_TieBreak(t *testing.T) {
	results := []HandResult{
		{PlayerID: "d", Difference: 3, LowValue: 1},
		{PlayerID: "c", Difference: 1, LowValue: 2},
		{PlayerID: "a", Difference: 0, LowValue: 3},
		{PlayerID: "b", Difference: 0, LowValue: 3},
	}
	RankResults(results)

	wantOrder := []string{"a", "b", "c", "d"}
	wantRanks := []int{0, 0, 1, 2}
	for i, r := range results {
		if r.PlayerID != wantOrder[i] || r.Rank != wantRanks[i] {
			t.Fatalf("position %d: got %s rank %d, want %s rank %d", i, r.PlayerID, r.Rank, wantOrder[i], wantRanks[i])
		}
	}
}

func TestRankResults_LowerPairWins(t *testing.T) {
	results := []HandResult{
		{PlayerID: "high", Difference: 0, LowValue: 5},
		{PlayerID: "low", Difference: 0, LowValue: 1},
	}
	RankResults(results)
	if results[0].PlayerID != "low" || results[0].Rank != 0 || results[1].Rank != 1 {
		t.Fatalf("got %+v", results)
	}
}

func TestSettle(t *testing.T) {
	cases := []struct {
		name       string
		tokens     int
		result     HandResult
		wantLoss   int
		wantTokens int
		wantOut    bool
	}{
		{
			name:       "winner keeps spent tokens",
			tokens:     6,
			result:     HandResult{Rank: 0, SpentTokens: 2, Difference: 0},
			wantLoss:   0,
			wantTokens: 6,
		},
		{
			name:       "matched loser pays one",
			tokens:     6,
			result:     HandResult{Rank: 1, SpentTokens: 1, BloodValue: 5, SandValue: 5},
			wantLoss:   2,
			wantTokens: 4,
		},
		{
			name:       "loser pays difference",
			tokens:     6,
			result:     HandResult{Rank: 2, SpentTokens: 0, BloodValue: 1, SandValue: 4, Difference: 3},
			wantLoss:   3,
			wantTokens: 3,
		},
		{
			name:       "loss clamps to total",
			tokens:     2,
			result:     HandResult{Rank: 1, SpentTokens: 1, BloodValue: 6, SandValue: 2, Difference: 4},
			wantLoss:   2,
			wantTokens: 0,
			wantOut:    true,
		},
		{
			name:       "exact loss eliminates",
			tokens:     3,
			result:     HandResult{Rank: 1, SpentTokens: 1, BloodValue: 3, SandValue: 1, Difference: 2},
			wantLoss:   3,
			wantTokens: 0,
			wantOut:    true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Player{ID: "p", Tokens: tc.tokens, SpentTokens: tc.result.SpentTokens}
			r := tc.result
			settle(p, &r)
			if r.TokenLoss != tc.wantLoss || p.Tokens != tc.wantTokens || p.IsEliminated != tc.wantOut {
				t.Fatalf("loss=%d tokens=%d eliminated=%v, want %d %d %v",
					r.TokenLoss, p.Tokens, p.IsEliminated, tc.wantLoss, tc.wantTokens, tc.wantOut)
			}
			if p.SpentTokens != 0 {
				t.Fatalf("spent tokens not reset: %d", p.SpentTokens)
			}
			if r.TokensAfter != p.Tokens || r.Eliminated != p.IsEliminated {
				t.Fatalf("result snapshot out of sync: %+v", r)
			}
		})
	}
}

func TestTokenClamp(t *testing.T) {
	p := &Player{ID: "p", Tokens: 2}
	r := HandResult{Rank: 1, SpentTokens: 0, BloodValue: 6, SandValue: 1, Difference: 5}
	settle(p, &r)
	if p.Tokens != 0 || !p.IsEliminated || r.TokenLoss != 2 {
		t.Fatalf("tokens=%d eliminated=%v loss=%d", p.Tokens, p.IsEliminated, r.TokenLoss)
	}
}

// два игрока по 6 жетонов: A вскрывает 4/4, B вскрывает 6/1 потратив 2 жетона
func TestResolveHand_Scenario(t *testing.T) {
	s, rng := newActiveSession(t, 2, 6)
	a, b := mustPlayer(t, s, "p0"), mustPlayer(t, s, "p1")
	setHand(t, s, a, number(SuitBlood, 4), number(SuitSand, 4))
	setHand(t, s, b, number(SuitBlood, 6), number(SuitSand, 1))

	// B дважды тянет и сразу сбрасывает взятую карту
	for round := 0; round < 2; round++ {
		finishTurn(t, s, rng)
		if err := SetTurnAction(s, b, ActionDraw); err != nil {
			t.Fatalf("SetTurnAction: %v", err)
		}
		drawn, err := DrawCard(s, b, SourceBloodDeck)
		if err != nil {
			t.Fatalf("DrawCard: %v", err)
		}
		if err := DiscardCard(s, b, drawn); err != nil {
			t.Fatalf("DiscardCard: %v", err)
		}
		if _, err := EndTurn(s, rng); err != nil {
			t.Fatalf("EndTurn: %v", err)
		}
		mustInvariants(t, s)
	}
	if b.SpentTokens != 2 {
		t.Fatalf("B spent %d, want 2", b.SpentTokens)
	}

	adv := playToHandEnd(t, s, rng)
	if !adv.GameCompleted || s.Status != StatusCompleted {
		t.Fatalf("game not completed: %+v status=%s", adv, s.Status)
	}

	ra, _ := adv.Hand.Result("p0")
	if ra.Rank != 0 || ra.TokenLoss != 0 || ra.Difference != 0 || ra.LowValue != 4 || !ra.IsMatched() {
		t.Fatalf("A result = %+v", ra)
	}
	rb, _ := adv.Hand.Result("p1")
	if rb.Rank != 1 || rb.Penalty != 5 || rb.SpentTokens != 2 || rb.TokenLoss != 6 || !rb.Eliminated {
		t.Fatalf("B result = %+v", rb)
	}
	if a.Tokens != 6 || b.Tokens != 0 || !b.IsEliminated {
		t.Fatalf("tokens A=%d B=%d eliminated=%v", a.Tokens, b.Tokens, b.IsEliminated)
	}
	if w := s.Winner(); w != a {
		t.Fatalf("winner = %v, want A", w)
	}
	if len(a.HandResults) != 1 || len(s.HandHistory) != 1 {
		t.Fatalf("history not recorded")
	}
	for _, p := range s.Players {
		if p.Turn != nil {
			t.Fatalf("player %s keeps a turn after completion", p.ID)
		}
	}
	mustInvariants(t, s)
}

func TestResolveHand_RequiresRevealRound(t *testing.T) {
	s, rng := newActiveSession(t, 2, 6)
	if _, err := ResolveHand(s, rng); err == nil {
		t.Fatalf("ResolveHand in round 0 succeeded")
	}
}
