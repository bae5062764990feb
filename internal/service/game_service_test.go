package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"sabacc_bot/internal/domain"
	"sabacc_bot/internal/game"
)

func TestLobbyFlow(t *testing.T) {
	ctx := context.Background()
	rig := newRig(t, 6)

	if _, err := rig.svc.Join(ctx, "chat:1", lando); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("join without table: got %v", err)
	}
	s, err := rig.svc.Create(ctx, "chat:1", han)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if LobbyPhaseOf(s) != LobbyAwaitingJoin {
		t.Fatalf("lobby = %q", LobbyPhaseOf(s))
	}
	if _, err := rig.svc.Create(ctx, "chat:1", lando); !errors.Is(err, ErrGameExists) {
		t.Fatalf("second create: got %v", err)
	}
	if _, err := rig.svc.Start(ctx, "chat:1", han); !errors.Is(err, game.ErrNotEnoughPlayers) {
		t.Fatalf("start alone: got %v", err)
	}

	s, err = rig.svc.Join(ctx, "chat:1", lando)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if LobbyPhaseOf(s) != LobbyAwaitingStart || !CanJoin(s) {
		t.Fatalf("lobby = %q", LobbyPhaseOf(s))
	}
	if _, err := rig.svc.Join(ctx, "chat:1", lando); !errors.Is(err, game.ErrPlayerExists) {
		t.Fatalf("double join: got %v", err)
	}
	if _, err := rig.svc.Start(ctx, "chat:1", chewy); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("start by stranger: got %v", err)
	}

	s, err = rig.svc.Start(ctx, "chat:1", lando)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsActive() || LobbyPhaseOf(s) != LobbyClosed {
		t.Fatalf("status = %s", s.Status)
	}
	if _, err := rig.svc.Join(ctx, "chat:1", chewy); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("join running game: got %v", err)
	}
	if len(rig.history.started) != 1 || rig.history.started[0] != s.ID {
		t.Fatalf("history start = %v", rig.history.started)
	}
	want := []string{domain.EventCreate, domain.EventJoin, domain.EventStart}
	if got := rig.events.actions(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestTurnGuards(t *testing.T) {
	ctx := context.Background()
	rig := newRig(t, 6)

	if _, err := rig.svc.ChooseAction(ctx, "none", han, game.ActionStand); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("no table: got %v", err)
	}
	s := startTable(t, rig, "chat:2", han, lando)
	cur := s.CurrentPlayer()
	other := han
	if cur.ID == han.ID {
		other = lando
	}

	if _, err := rig.svc.ChooseAction(ctx, "chat:2", chewy, game.ActionStand); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("stranger: got %v", err)
	}
	if _, err := rig.svc.ChooseAction(ctx, "chat:2", other, game.ActionStand); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out of turn: got %v", err)
	}
	if _, err := rig.svc.ChooseAction(ctx, "chat:2", Actor{ID: cur.ID}, game.ActionReveal); !errors.Is(err, game.ErrInvalidTurnState) {
		t.Fatalf("reveal in round 0: got %v", err)
	}
	// отклоненное действие не меняет сохраненный стол
	after, _ := rig.svc.Get(ctx, "chat:2")
	if after.CurrentPlayer().Turn != nil {
		t.Fatalf("rejected action persisted a turn")
	}
}

func TestDrawDiscardEndsTurn(t *testing.T) {
	ctx := context.Background()
	rig := newRig(t, 6)
	s := startTable(t, rig, "chat:3", han, lando)
	actor := Actor{ID: s.CurrentPlayer().ID}

	out, err := rig.svc.ChooseAction(ctx, "chat:3", actor, game.ActionDraw)
	if err != nil {
		t.Fatalf("ChooseAction: %v", err)
	}
	if out.Advance != nil {
		t.Fatalf("choosing draw ended the turn")
	}
	pr := PromptFor(out.Session)
	if pr.Kind != PromptChooseSource || !pr.CanCancel || len(pr.Sources) != 4 {
		t.Fatalf("prompt = %+v", pr)
	}

	out, err = rig.svc.Draw(ctx, "chat:3", actor, game.SourceSandDiscard)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if out.Drawn == nil || out.Player.SpentTokens != 1 {
		t.Fatalf("draw outcome = %+v", out)
	}
	if _, err := rig.svc.Cancel(ctx, "chat:3", actor); !errors.Is(err, game.ErrInvalidTurnState) {
		t.Fatalf("cancel after draw: got %v", err)
	}
	pr = PromptFor(out.Session)
	if pr.Kind != PromptChooseDiscard || pr.Suit != game.SuitSand || len(pr.Cards) != 2 {
		t.Fatalf("prompt = %+v", pr)
	}

	out, err = rig.svc.Discard(ctx, "chat:3", actor, game.SuitSand, 0)
	if err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if out.Advance == nil || out.Advance.RoundEnded {
		t.Fatalf("advance = %+v", out.Advance)
	}
	if out.Session.IsCurrentPlayer(actor.ID) {
		t.Fatalf("turn did not pass")
	}
	saved, _ := rig.svc.Get(ctx, "chat:3")
	if p, _ := saved.PlayerByID(actor.ID); p.SpentTokens != 1 || len(p.SandCards) != 1 {
		t.Fatalf("saved player = %+v", p)
	}
}

func TestCancelDrawBeforeCard(t *testing.T) {
	ctx := context.Background()
	rig := newRig(t, 6)
	s := startTable(t, rig, "chat:4", han, lando)
	actor := Actor{ID: s.CurrentPlayer().ID}

	if _, err := rig.svc.ChooseAction(ctx, "chat:4", actor, game.ActionDraw); err != nil {
		t.Fatalf("ChooseAction: %v", err)
	}
	out, err := rig.svc.Cancel(ctx, "chat:4", actor)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if pr := PromptFor(out.Session); pr.Kind != PromptChooseAction {
		t.Fatalf("prompt after cancel = %q", pr.Kind)
	}
}

func TestPlayOut_RecordsHistory(t *testing.T) {
	rig := newRig(t, 3)
	var notified int
	rig.svc.Subscribe(func(_ context.Context, key string, s *game.Session) {
		if key == "chat:5" && s != nil {
			notified++
		}
	})
	startTable(t, rig, "chat:5", han, lando, chewy)

	s := playOut(t, rig.svc, "chat:5")
	winner := s.Winner()
	if winner == nil {
		t.Fatalf("completed game without winner")
	}
	if rig.history.completed[s.ID] != winner.ID {
		t.Fatalf("history winner = %q, want %q", rig.history.completed[s.ID], winner.ID)
	}
	if len(rig.history.hands) != len(s.HandHistory) {
		t.Fatalf("recorded %d hands, session has %d", len(rig.history.hands), len(s.HandHistory))
	}
	if notified == 0 {
		t.Fatalf("observer never called")
	}
	actions := rig.events.actions()
	if !slices.Contains(actions, domain.EventHandResolved) || actions[len(actions)-1] != domain.EventGameCompleted {
		t.Fatalf("events tail = %v", actions[max(0, len(actions)-3):])
	}

	// после завершения можно открыть новый стол под тем же ключом
	if _, err := rig.svc.Create(context.Background(), "chat:5", lando); err != nil {
		t.Fatalf("Create after completion: %v", err)
	}
}

func TestAbandon(t *testing.T) {
	ctx := context.Background()
	rig := newRig(t, 6)

	if _, err := rig.svc.Create(ctx, "chat:6", han); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := rig.svc.Abandon(ctx, "chat:6", lando); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("stranger abandon: got %v", err)
	}
	var removed bool
	rig.svc.Subscribe(func(_ context.Context, _ string, s *game.Session) { removed = s == nil })
	if err := rig.svc.Abandon(ctx, "chat:6", han); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if !removed || rig.store.Len() != 0 {
		t.Fatalf("table not removed")
	}

	startTable(t, rig, "chat:7", han, lando)
	if err := rig.svc.Abandon(ctx, "chat:7", han); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("abandon active game: got %v", err)
	}
}

func TestConcurrentJoins(t *testing.T) {
	ctx := context.Background()
	rig := newRig(t, 6)
	if _, err := rig.svc.Create(ctx, "chat:8", han); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const joiners = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := rig.svc.Join(ctx, "chat:8", Actor{ID: fmt.Sprintf("j%d", i), Name: "J"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, game.ErrTooManyPlayers):
				full++
			default:
				t.Errorf("join %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if ok != game.MaxPlayers-1 || full != joiners-ok {
		t.Fatalf("ok=%d full=%d", ok, full)
	}
	s, _ := rig.svc.Get(ctx, "chat:8")
	if len(s.Players) != game.MaxPlayers {
		t.Fatalf("seated %d players", len(s.Players))
	}
	if n := rig.svc.locks.size(); n != 0 {
		t.Fatalf("%d key locks leaked", n)
	}
}

func TestHandView(t *testing.T) {
	ctx := context.Background()
	rig := newRig(t, 6)
	startTable(t, rig, "chat:9", han, lando)

	hv, err := rig.svc.Hand(ctx, "chat:9", han.ID)
	if err != nil {
		t.Fatalf("Hand: %v", err)
	}
	if len(hv.Blood) != 1 || len(hv.Sand) != 1 || hv.AvailableTokens != 6 {
		t.Fatalf("hand view = %+v", hv)
	}
	if _, err := rig.svc.Hand(ctx, "chat:9", chewy.ID); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("stranger hand: got %v", err)
	}
}
