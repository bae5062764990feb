package bot

import (
	"errors"
	"strings"
	"testing"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/service"
)

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data string
		want callback
	}{
		{"join", callback{Kind: cbJoin}},
		{"act:draw", callback{Kind: cbAction, Action: game.ActionDraw}},
		{"src:blood_discard", callback{Kind: cbSource, Source: game.SourceBloodDiscard}},
		{"dis:sand:1", callback{Kind: cbDrop, Suit: game.SuitSand, Slot: 1}},
		{"roll:blood", callback{Kind: cbRoll, Suit: game.SuitBlood}},
		{"die:sand:4", callback{Kind: cbDie, Suit: game.SuitSand, Value: 4}},
		{"rev", callback{Kind: cbReveal}},
	}
	for _, tc := range cases {
		got, err := parseCallback(tc.data)
		if err != nil {
			t.Fatalf("parseCallback(%q): %v", tc.data, err)
		}
		if got != tc.want {
			t.Fatalf("parseCallback(%q) = %+v, want %+v", tc.data, got, tc.want)
		}
		if tc.want.Kind == cbDrop && callbackData(cbDrop, got.Suit, got.Slot) != tc.data {
			t.Fatalf("callbackData does not round trip %q", tc.data)
		}
	}
}

func TestParseCallback_Rejects(t *testing.T) {
	for _, data := range []string{"", "fold", "act:fold", "act", "dis:sand", "dis:water:0", "die:blood:x", "join:1"} {
		if _, err := parseCallback(data); !errors.Is(err, errBadCallback) {
			t.Fatalf("parseCallback(%q) should fail, got %v", data, err)
		}
	}
}

func TestCardLabel(t *testing.T) {
	cases := map[string]service.CardView{
		"🩸 Силоп":          {Suit: game.SuitBlood, Kind: game.KindSylop},
		"🏜 5":              {Suit: game.SuitSand, Kind: game.KindNumber, Value: 5},
		"🩸 Самозванец":     {Suit: game.SuitBlood, Kind: game.KindImposter, DieRolls: []int{2, 6}},
		"🏜 Самозванец (3)": {Suit: game.SuitSand, Kind: game.KindImposter, DieRolls: []int{3}},
	}
	for want, cv := range cases {
		if got := cardLabel(&cv); got != want {
			t.Fatalf("cardLabel = %q, want %q", got, want)
		}
	}
	if cardLabel(nil) != "пусто" {
		t.Fatalf("empty discard label")
	}
}

func TestRenderTable_Lobby(t *testing.T) {
	view := service.PublicView{
		Status:  game.StatusPending,
		Lobby:   service.LobbyAwaitingStart,
		Players: []service.PublicPlayer{{ID: "1", Name: "<Han>"}, {ID: "2", Name: "Lando"}},
	}
	text := renderTable(view, service.Prompt{})
	if !strings.Contains(text, "&lt;Han&gt;") || !strings.Contains(text, "/start") {
		t.Fatalf("unexpected lobby text: %q", text)
	}

	kb := tableKeyboard(view, service.Prompt{})
	if kb == nil || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("lobby should offer join and start: %+v", kb)
	}
}

func TestTableKeyboard_HidesDiscardCards(t *testing.T) {
	view := service.PublicView{Status: game.StatusActive}
	pr := service.Prompt{
		Kind:      service.PromptChooseDiscard,
		Suit:      game.SuitBlood,
		Cards:     []*game.DealtCard{{Card: game.Card{Suit: game.SuitBlood, Kind: game.KindNumber, Value: 3}}},
		CanCancel: false,
	}
	kb := tableKeyboard(view, pr)
	if kb == nil || len(kb.InlineKeyboard) != 2 {
		t.Fatalf("expected prompt row and footer: %+v", kb)
	}
	for _, b := range kb.InlineKeyboard[0] {
		if strings.Contains(b.Text, "3") {
			t.Fatalf("discard button reveals card: %q", b.Text)
		}
	}
	if *kb.InlineKeyboard[0][1].CallbackData != "dis:blood:1" {
		t.Fatalf("unexpected callback %q", *kb.InlineKeyboard[0][1].CallbackData)
	}
}

func TestTableKeyboard_CompletedHasNone(t *testing.T) {
	if kb := tableKeyboard(service.PublicView{Status: game.StatusCompleted}, service.Prompt{}); kb != nil {
		t.Fatalf("completed table should have no buttons")
	}
}

func TestRenderHand(t *testing.T) {
	h := &service.HandView{
		Tokens:          4,
		AvailableTokens: 3,
		Blood:           []service.CardView{{Suit: game.SuitBlood, Kind: game.KindNumber, Value: 2}},
		Sand:            []service.CardView{{Suit: game.SuitSand, Kind: game.KindSylop}},
	}
	text := renderHand(h)
	if !strings.Contains(text, "🩸 2, 🏜 Силоп") || !strings.Contains(text, "можно потратить 3") {
		t.Fatalf("unexpected hand text: %q", text)
	}
	if len([]rune(text)) > 200 {
		t.Fatalf("alert text too long")
	}
}
