package service

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"sabacc_bot/internal/domain"
	"sabacc_bot/internal/game"
	"sabacc_bot/internal/repository"
)

type fakeHistory struct {
	mu        sync.Mutex
	started   []string
	hands     [][]domain.HandRecord
	completed map[string]string
}

func (f *fakeHistory) StartGame(_ context.Context, g *domain.GameRecord, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, g.ID)
	return nil
}

func (f *fakeHistory) RecordHand(_ context.Context, records []domain.HandRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hands = append(f.hands, records)
	return nil
}

func (f *fakeHistory) CompleteGame(_ context.Context, gameID, winnerID, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed == nil {
		f.completed = map[string]string{}
	}
	f.completed[gameID] = winnerID
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (f *fakeEvents) Create(_ context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Action
	}
	return out
}

type testRig struct {
	svc     *GameService
	store   *repository.MemorySessionStore
	history *fakeHistory
	events  *fakeEvents
}

func newRig(t *testing.T, tokens int) *testRig {
	t.Helper()
	rig := &testRig{
		store:   repository.NewMemorySessionStore(),
		history: &fakeHistory{},
		events:  &fakeEvents{},
	}
	rig.svc = NewGameService(rig.store, game.NewRandom(11), tokens)
	rig.svc.SetHistory(rig.history)
	rig.svc.SetAudit(NewAuditService(rig.events))
	return rig
}

var (
	han   = Actor{ID: "100", Name: "Han"}
	lando = Actor{ID: "200", Name: "Lando"}
	chewy = Actor{ID: "300", Name: "Chewie"}
)

// startTable создает стол с игроками и начинает партию
func startTable(t *testing.T, rig *testRig, key string, actors ...Actor) *game.Session {
	t.Helper()
	ctx := context.Background()
	if _, err := rig.svc.Create(ctx, key, actors[0]); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, a := range actors[1:] {
		if _, err := rig.svc.Join(ctx, key, a); err != nil {
			t.Fatalf("Join %s: %v", a.ID, err)
		}
	}
	s, err := rig.svc.Start(ctx, key, actors[0])
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

// playOut доигрывает партию, отвечая на каждый Prompt
func playOut(t *testing.T, svc *GameService, key string) *game.Session {
	t.Helper()
	ctx := context.Background()
	for step := 0; step < 20000; step++ {
		s, err := svc.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if s.IsCompleted() {
			return s
		}
		if err := game.CheckInvariants(s); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}

		pr := PromptFor(s)
		actor := Actor{ID: pr.PlayerID}
		switch pr.Kind {
		case PromptChooseAction:
			action := pr.Actions[len(pr.Actions)-1]
			if step%3 == 0 && slices.Contains(pr.Actions, game.ActionDraw) {
				action = game.ActionDraw
			}
			_, err = svc.ChooseAction(ctx, key, actor, action)
		case PromptChooseSource:
			_, err = svc.Draw(ctx, key, actor, pr.Sources[step%len(pr.Sources)])
		case PromptChooseDiscard:
			_, err = svc.Discard(ctx, key, actor, pr.Suit, step%2)
		case PromptRollDie:
			_, err = svc.Roll(ctx, key, actor, pr.Suit)
		case PromptChooseDie:
			_, err = svc.ChooseValue(ctx, key, actor, pr.Suit, pr.DieRolls[1])
		case PromptFinalize:
			_, err = svc.Reveal(ctx, key, actor)
		default:
			t.Fatalf("step %d: unexpected prompt %q", step, pr.Kind)
		}
		if err != nil {
			t.Fatalf("step %d (%s): %v", step, pr.Kind, err)
		}
	}
	t.Fatalf("game did not finish")
	return nil
}
