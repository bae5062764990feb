package repository

import (
	"testing"

	"sabacc_bot/internal/game"
)

func newStartedSession(t *testing.T) *game.Session {
	t.Helper()
	s, err := game.NewSession("sess-1", "100", "Han", game.DefaultStartingTokens)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, err := game.AddPlayer(s, "200", "Lando"); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := game.StartGame(s, game.NewRandom(1)); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return s
}

// startDraw оставляет текущего игрока посреди хода draw
func startDraw(t *testing.T, s *game.Session) *game.Player {
	t.Helper()
	p := s.CurrentPlayer()
	if err := game.SetTurnAction(s, p, game.ActionDraw); err != nil {
		t.Fatalf("SetTurnAction: %v", err)
	}
	if _, err := game.DrawCard(s, p, game.SourceBloodDeck); err != nil {
		t.Fatalf("DrawCard: %v", err)
	}
	return p
}

func assertSameTable(t *testing.T, want, got *game.Session) {
	t.Helper()
	if got == nil {
		t.Fatalf("session not found")
	}
	if got.ID != want.ID || got.Status != want.Status || got.CurrentPlayerIndex != want.CurrentPlayerIndex {
		t.Fatalf("loaded %s/%s/%d, want %s/%s/%d", got.ID, got.Status, got.CurrentPlayerIndex, want.ID, want.Status, want.CurrentPlayerIndex)
	}
	if len(got.BloodDeck) != len(want.BloodDeck) || len(got.SandDiscard) != len(want.SandDiscard) {
		t.Fatalf("piles differ after reload")
	}
	for i, p := range want.Players {
		lp := got.Players[i]
		if lp.ID != p.ID || lp.SpentTokens != p.SpentTokens || len(lp.BloodCards) != len(p.BloodCards) {
			t.Fatalf("player %d differs: %+v vs %+v", i, lp, p)
		}
		if (lp.Turn == nil) != (p.Turn == nil) {
			t.Fatalf("player %s turn lost", p.ID)
		}
	}
}
