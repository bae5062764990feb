package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/service"
)

// виды callback data на кнопках
const (
	cbJoin   = "join"
	cbStart  = "start"
	cbHand   = "hand"
	cbTable  = "table"
	cbAction = "act"
	cbSource = "src"
	cbDrop   = "dis"
	cbRoll   = "roll"
	cbDie    = "die"
	cbReveal = "rev"
	cbStand  = "stand"
	cbCancel = "cancel"
)

var errBadCallback = errors.New("неизвестная кнопка")

// callback - разобранные данные нажатой кнопки
type callback struct {
	Kind   string
	Action game.TurnAction
	Source game.CardSource
	Suit   game.Suit
	Slot   int
	Value  int
}

func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, ":")
	cb := callback{Kind: parts[0]}
	args := parts[1:]

	want := 0
	switch cb.Kind {
	case cbJoin, cbStart, cbHand, cbTable, cbReveal, cbStand, cbCancel:
	case cbAction, cbSource, cbRoll:
		want = 1
	case cbDrop, cbDie:
		want = 2
	default:
		return cb, errBadCallback
	}
	if len(args) != want {
		return cb, errBadCallback
	}

	var err error
	switch cb.Kind {
	case cbAction:
		err = cb.Action.UnmarshalText([]byte(args[0]))
	case cbSource:
		err = cb.Source.UnmarshalText([]byte(args[0]))
	case cbRoll:
		err = cb.Suit.UnmarshalText([]byte(args[0]))
	case cbDrop:
		if err = cb.Suit.UnmarshalText([]byte(args[0])); err == nil {
			cb.Slot, err = strconv.Atoi(args[1])
		}
	case cbDie:
		if err = cb.Suit.UnmarshalText([]byte(args[0])); err == nil {
			cb.Value, err = strconv.Atoi(args[1])
		}
	}
	if err != nil {
		return cb, fmt.Errorf("%w: %v", errBadCallback, err)
	}
	return cb, nil
}

func callbackData(kind string, args ...any) string {
	parts := []string{kind}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

var suitIcons = map[game.Suit]string{
	game.SuitBlood: "🩸",
	game.SuitSand:  "🏜",
}

var actionLabels = map[game.TurnAction]string{
	game.ActionDraw:   "🃏 Взять карту",
	game.ActionStand:  "✋ Пас",
	game.ActionReveal: "👁 Вскрыться",
}

var sourceLabels = map[game.CardSource]string{
	game.SourceBloodDeck:    "🩸 Колода",
	game.SourceBloodDiscard: "🩸 Сброс",
	game.SourceSandDeck:     "🏜 Колода",
	game.SourceSandDiscard:  "🏜 Сброс",
}

func cardLabel(c *service.CardView) string {
	if c == nil {
		return "пусто"
	}
	var face string
	switch c.Kind {
	case game.KindSylop:
		face = "Силоп"
	case game.KindImposter:
		face = "Самозванец"
		if len(c.DieRolls) == 1 {
			face += " (" + strconv.Itoa(c.DieRolls[0]) + ")"
		}
	default:
		face = strconv.Itoa(c.Value)
	}
	return suitIcons[c.Suit] + " " + face
}

// renderTable - сообщение стола в чате (HTML)
func renderTable(v service.PublicView, pr service.Prompt) string {
	var b strings.Builder
	names := make(map[string]string, len(v.Players))
	for _, p := range v.Players {
		names[p.ID] = html.EscapeString(p.Name)
	}

	switch v.Status {
	case game.StatusPending:
		b.WriteString("<b>🎴 Сабакк: сбор игроков</b>\n\n")
		for i, p := range v.Players {
			fmt.Fprintf(&b, "%d. %s\n", i+1, names[p.ID])
		}
		if v.Lobby == service.LobbyAwaitingJoin {
			b.WriteString("\nНужен еще хотя бы один игрок: /join")
		} else {
			b.WriteString("\nМожно начинать: /start")
		}
		return b.String()
	case game.StatusCompleted:
		b.WriteString("<b>🏆 Партия окончена</b>\n\n")
		if v.WinnerID != "" {
			fmt.Fprintf(&b, "Победитель: <b>%s</b>\n", names[v.WinnerID])
		}
		writeLastHand(&b, v)
		return b.String()
	}

	round := fmt.Sprintf("круг %d/%d", v.RoundIndex+1, game.RevealRound)
	if v.RoundIndex == game.RevealRound {
		round = "вскрытие"
	}
	fmt.Fprintf(&b, "<b>🎴 Раздача %d</b>, %s\n", v.HandIndex+1, round)
	fmt.Fprintf(&b, "Колоды: 🩸 %d · 🏜 %d\n", v.BloodDeck, v.SandDeck)
	fmt.Fprintf(&b, "Сброс: %s · %s\n\n", cardLabel(v.BloodDiscard), cardLabel(v.SandDiscard))

	for _, p := range v.Players {
		marker := "▫️"
		switch {
		case p.Eliminated:
			marker = "✖️"
		case p.Current:
			marker = "▶️"
		}
		fmt.Fprintf(&b, "%s %s: %d жет.", marker, names[p.ID], p.Tokens)
		if p.SpentTokens > 0 {
			fmt.Fprintf(&b, " (−%d)", p.SpentTokens)
		}
		b.WriteString("\n")
	}

	if pr.Kind != service.PromptNone {
		fmt.Fprintf(&b, "\nХодит <b>%s</b>: %s", names[pr.PlayerID], promptHint(pr))
	}
	if len(v.LastHand) > 0 && v.RoundIndex == 0 {
		b.WriteString("\n")
		writeLastHand(&b, v)
	}
	return b.String()
}

func writeLastHand(b *strings.Builder, v service.PublicView) {
	if len(v.LastHand) == 0 {
		return
	}
	b.WriteString("\n<b>Итоги раздачи:</b>\n")
	for _, r := range v.LastHand {
		fmt.Fprintf(b, "%s: %s + %s", html.EscapeString(r.Name), cardLabel(&r.Blood), cardLabel(&r.Sand))
		switch {
		case r.Rank == 0:
			b.WriteString(" 🥇")
		case r.TokenLoss > 0:
			fmt.Fprintf(b, " −%d", r.TokenLoss)
		}
		if r.Eliminated {
			b.WriteString(" выбыл")
		}
		b.WriteString("\n")
	}
}

func promptHint(pr service.Prompt) string {
	switch pr.Kind {
	case service.PromptChooseAction:
		return "выберите действие"
	case service.PromptChooseSource:
		return "откуда взять карту?"
	case service.PromptChooseDiscard:
		return "какую карту " + suitIcons[pr.Suit] + " сбросить?"
	case service.PromptConfirmStand:
		return "подтвердите пас"
	case service.PromptRollDie:
		return "бросьте кубики за самозванца " + suitIcons[pr.Suit]
	case service.PromptChooseDie:
		return "выберите значение самозванца " + suitIcons[pr.Suit]
	case service.PromptFinalize:
		return "вскрывайтесь"
	default:
		return "ход завершается"
	}
}

// tableKeyboard - кнопки под сообщением стола; nil если нажимать нечего
func tableKeyboard(v service.PublicView, pr service.Prompt) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	switch v.Status {
	case game.StatusPending:
		row := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🪑 Сесть", cbJoin))
		if v.Lobby == service.LobbyAwaitingStart {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️ Начать", cbStart))
		}
		rows = append(rows, row)
	case game.StatusActive:
		if row := promptRow(pr); len(row) > 0 {
			rows = append(rows, row)
		}
		footer := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🂠 Моя рука", cbHand))
		if pr.CanCancel {
			footer = append(footer, tgbotapi.NewInlineKeyboardButtonData("↩️ Отмена", cbCancel))
		}
		rows = append(rows, footer)
	default:
		return nil
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func promptRow(pr service.Prompt) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	switch pr.Kind {
	case service.PromptChooseAction:
		for _, a := range pr.Actions {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(actionLabels[a], callbackData(cbAction, a)))
		}
	case service.PromptChooseSource:
		for _, src := range pr.Sources {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(sourceLabels[src], callbackData(cbSource, src)))
		}
	case service.PromptChooseDiscard:
		// карты на кнопках не подписываются: их видит весь чат
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("Сбросить прежнюю", callbackData(cbDrop, pr.Suit, 0)),
			tgbotapi.NewInlineKeyboardButtonData("Сбросить взятую", callbackData(cbDrop, pr.Suit, 1)),
		)
	case service.PromptConfirmStand:
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(actionLabels[game.ActionStand], cbStand))
	case service.PromptRollDie:
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🎲 Бросить "+suitIcons[pr.Suit], callbackData(cbRoll, pr.Suit)))
	case service.PromptChooseDie:
		for _, v := range pr.DieRolls {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🎲 "+strconv.Itoa(v), callbackData(cbDie, pr.Suit, v)))
		}
	case service.PromptFinalize:
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(actionLabels[game.ActionReveal], cbReveal))
	}
	return row
}

// renderHand - закрытая рука для всплывающего окна (не длиннее 200 символов)
func renderHand(h *service.HandView) string {
	var cards []string
	for _, c := range h.Blood {
		cards = append(cards, cardLabel(&c))
	}
	for _, c := range h.Sand {
		cards = append(cards, cardLabel(&c))
	}
	text := "Ваша рука: " + strings.Join(cards, ", ")
	text += fmt.Sprintf("\nЖетоны: %d, можно потратить %d", h.Tokens, h.AvailableTokens)
	if h.Eliminated {
		text += "\nВы выбыли"
	}
	return text
}

func renderDrawn(c *game.DealtCard) string {
	v := service.CardView{Suit: c.Card.Suit, Kind: c.Card.Kind, Value: c.Card.Value}
	return "Вы взяли: " + cardLabel(&v)
}

func renderRolls(rolls []int) string {
	if len(rolls) == 1 {
		return fmt.Sprintf("Выпало %d", rolls[0])
	}
	parts := make([]string, len(rolls))
	for i, r := range rolls {
		parts[i] = strconv.Itoa(r)
	}
	return "Выпало: " + strings.Join(parts, " и ")
}

const helpText = `<b>🎴 Сабакк</b>

/new - открыть стол в этом чате
/join - сесть за стол
/start - начать партию
/table - показать стол
/hand - посмотреть свои карты
/watch - ссылка на трансляцию стола
/top - лучшие игроки
/abandon - убрать стол, пока партия не идет

Ходы делаются кнопками под сообщением стола.`
