package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sabacc_bot/internal/domain"
	"sabacc_bot/internal/game"
	"sabacc_bot/internal/logger"
	"sabacc_bot/internal/service"
)

// sender - часть BotAPI, через которую бот отвечает
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Leaderboard - лучшие игроки; без базы не настроен
type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error)
}

// SabaccBot ведет столы в чатах: команды лобби и кнопки ходов
type SabaccBot struct {
	api       *tgbotapi.BotAPI
	out       sender
	games     *service.GameService
	tokens    *service.SpectatorTokens
	stats     Leaderboard
	publicURL string
	stopCh    chan struct{}
	wg        sync.WaitGroup
	log       *slog.Logger
}

// NewSabaccBot авторизуется в Telegram
func NewSabaccBot(token string, games *service.GameService, tokens *service.SpectatorTokens, publicURL string) (*SabaccBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newSabaccBot(api, games, tokens, publicURL)
	b.api = api
	b.log.Info("bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newSabaccBot(out sender, games *service.GameService, tokens *service.SpectatorTokens, publicURL string) *SabaccBot {
	return &SabaccBot{
		out:       out,
		games:     games,
		tokens:    tokens,
		publicURL: strings.TrimRight(publicURL, "/"),
		stopCh:    make(chan struct{}),
		log:       logger.With("component", "sabacc_bot"),
	}
}

func (b *SabaccBot) SetLeaderboard(l Leaderboard) {
	b.stats = l
}

// Start запускает прослушивание обновлений
func (b *SabaccBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			switch {
			case update.CallbackQuery != nil:
				b.wg.Add(1)
				go func(cq *tgbotapi.CallbackQuery) {
					defer b.wg.Done()
					b.handleCallback(cq)
				}(update.CallbackQuery)
			case update.Message != nil && update.Message.IsCommand():
				b.wg.Add(1)
				go func(msg *tgbotapi.Message) {
					defer b.wg.Done()
					b.handleCommand(msg)
				}(update.Message)
			}
		}
	}
}

// Stop плавно останавливает бота
func (b *SabaccBot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

// SessionKey - ключ стола для чата
func SessionKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func actorOf(u *tgbotapi.User) service.Actor {
	tu := service.TelegramUser{ID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
	return service.Actor{ID: tu.PlayerID(), Name: tu.DisplayName()}
}

func (b *SabaccBot) handleCommand(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := SessionKey(msg.Chat.ID)
	actor := actorOf(msg.From)
	ctx = logger.WithAttrs(ctx, "chat_id", msg.Chat.ID, "command", msg.Command())

	var (
		s   *game.Session
		err error
	)
	switch msg.Command() {
	case "new":
		s, err = b.games.Create(ctx, key, actor)
	case "join":
		s, err = b.games.Join(ctx, key, actor)
	case "start":
		s, err = b.games.Start(ctx, key, actor)
	case "table":
		s, err = b.games.Get(ctx, key)
	case "hand":
		b.replyHandButton(msg)
		return
	case "watch":
		b.reply(msg, b.watchText(key), nil)
		return
	case "top":
		b.reply(msg, b.topText(ctx), nil)
		return
	case "abandon":
		if err = b.games.Abandon(ctx, key, actor); err == nil {
			b.reply(msg, "Стол убран", nil)
			return
		}
	case "help":
		b.reply(msg, helpText, nil)
		return
	default:
		b.reply(msg, "❌ Неизвестная команда. Используйте /help для списка команд.", nil)
		return
	}

	if err != nil {
		b.reply(msg, "❌ "+userMessage(err), nil)
		return
	}
	b.sendTable(msg.Chat.ID, key, s)
}

func (b *SabaccBot) reply(msg *tgbotapi.Message, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	m := tgbotapi.NewMessage(msg.Chat.ID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.ReplyToMessageID = msg.MessageID
	if markup != nil {
		m.ReplyMarkup = *markup
	}
	if _, err := b.out.Send(m); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// sendTable отправляет новое сообщение стола с кнопками текущего хода
func (b *SabaccBot) sendTable(chatID int64, key string, s *game.Session) {
	view, pr := service.NewPublicView(key, s), service.PromptFor(s)
	m := tgbotapi.NewMessage(chatID, renderTable(view, pr))
	m.ParseMode = tgbotapi.ModeHTML
	if kb := tableKeyboard(view, pr); kb != nil {
		m.ReplyMarkup = *kb
	}
	if _, err := b.out.Send(m); err != nil {
		b.log.Error("error sending table", "session_key", key, "error", err)
	}
}

// editTable перерисовывает сообщение, под которым нажали кнопку
func (b *SabaccBot) editTable(msg *tgbotapi.Message, key string, s *game.Session) {
	view, pr := service.NewPublicView(key, s), service.PromptFor(s)
	text := renderTable(view, pr)

	var edit tgbotapi.EditMessageTextConfig
	if kb := tableKeyboard(view, pr); kb != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(msg.Chat.ID, msg.MessageID, text, *kb)
	} else {
		edit = tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.out.Send(edit); err != nil {
		// "message is not modified" при повторном нажатии
		b.log.Debug("error editing table", "session_key", key, "error", err)
	}
}

func (b *SabaccBot) replyHandButton(msg *tgbotapi.Message) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🂠 Показать мою руку", cbHand)),
	)
	b.reply(msg, "Карты видны только вам во всплывающем окне", &kb)
}

func (b *SabaccBot) answer(cq *tgbotapi.CallbackQuery, text string, alert bool) {
	cfg := tgbotapi.NewCallback(cq.ID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(cq.ID, text)
	}
	if _, err := b.out.Request(cfg); err != nil {
		b.log.Error("error answering callback", "error", err)
	}
}

func (b *SabaccBot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.From == nil {
		b.answer(cq, "", false)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cb, err := parseCallback(cq.Data)
	if err != nil {
		b.log.Warn("bad callback data", "data", cq.Data, "error", err)
		b.answer(cq, userMessage(err), true)
		return
	}

	key := SessionKey(cq.Message.Chat.ID)
	actor := actorOf(cq.From)
	ctx = logger.WithAttrs(ctx, "chat_id", cq.Message.Chat.ID, "callback", cb.Kind)

	switch cb.Kind {
	case cbHand:
		hand, err := b.games.Hand(ctx, key, actor.ID)
		if err != nil {
			b.answer(cq, userMessage(err), true)
			return
		}
		b.answer(cq, renderHand(hand), true)
		return
	case cbJoin, cbStart, cbTable:
		var s *game.Session
		switch cb.Kind {
		case cbJoin:
			s, err = b.games.Join(ctx, key, actor)
		case cbStart:
			s, err = b.games.Start(ctx, key, actor)
		default:
			s, err = b.games.Get(ctx, key)
		}
		if err != nil {
			b.answer(cq, userMessage(err), true)
			return
		}
		b.answer(cq, "", false)
		b.editTable(cq.Message, key, s)
		return
	}

	out, err := b.play(ctx, key, actor, cb)
	if err != nil {
		b.answer(cq, userMessage(err), true)
		return
	}

	// взятая из колоды карта и броски видны только игроку
	switch {
	case out.Drawn != nil:
		b.answer(cq, renderDrawn(out.Drawn), true)
	case len(out.Rolls) > 0:
		b.answer(cq, renderRolls(out.Rolls), true)
	default:
		b.answer(cq, "", false)
	}

	b.editTable(cq.Message, key, out.Session)
	if adv := out.Advance; adv != nil && adv.Hand != nil && !adv.GameCompleted {
		// новая раздача: свежее сообщение, чтобы кнопки были внизу чата
		b.sendTable(cq.Message.Chat.ID, key, out.Session)
	}
}

func (b *SabaccBot) play(ctx context.Context, key string, actor service.Actor, cb callback) (*service.Outcome, error) {
	switch cb.Kind {
	case cbAction:
		return b.games.ChooseAction(ctx, key, actor, cb.Action)
	case cbSource:
		return b.games.Draw(ctx, key, actor, cb.Source)
	case cbDrop:
		return b.games.Discard(ctx, key, actor, cb.Suit, cb.Slot)
	case cbRoll:
		return b.games.Roll(ctx, key, actor, cb.Suit)
	case cbDie:
		return b.games.ChooseValue(ctx, key, actor, cb.Suit, cb.Value)
	case cbReveal:
		return b.games.Reveal(ctx, key, actor)
	case cbStand:
		return b.games.Stand(ctx, key, actor)
	case cbCancel:
		return b.games.Cancel(ctx, key, actor)
	}
	return nil, errBadCallback
}

func (b *SabaccBot) watchText(key string) string {
	token, exp, err := b.tokens.Issue(key)
	if err != nil {
		b.log.Error("issue spectator token", "error", err)
		return "❌ Не удалось выдать ссылку"
	}
	url := b.publicURL + "/ws/sessions/" + key + "?token=" + token
	return fmt.Sprintf("👀 Трансляция стола до %s:\n<code>%s</code>", exp.Format("15:04 02.01"), html.EscapeString(url))
}

func (b *SabaccBot) topText(ctx context.Context) string {
	if b.stats == nil {
		return "История партий не ведется"
	}
	top, err := b.stats.Leaderboard(ctx, 10)
	if err != nil {
		b.log.Error("leaderboard", "error", err)
		return "❌ Не удалось загрузить рейтинг"
	}
	if len(top) == 0 {
		return "Пока никто не выигрывал"
	}

	var sb strings.Builder
	sb.WriteString("<b>🏆 Лучшие игроки</b>\n\n")
	for i, p := range top {
		fmt.Fprintf(&sb, "%d. %s: %d из %d\n", i+1, html.EscapeString(p.Name), p.GamesWon, p.GamesPlayed)
	}
	return sb.String()
}

// userMessage - текст ошибки для чата
func userMessage(err error) string {
	var stateErr *game.StateError
	switch {
	case errors.Is(err, service.ErrNoActiveGame), errors.Is(err, service.ErrNotSeated),
		errors.Is(err, service.ErrNotYourTurn), errors.Is(err, service.ErrGameExists),
		errors.Is(err, service.ErrGameInProgress), errors.Is(err, errBadCallback):
		return rootMessage(err)
	case errors.Is(err, game.ErrTooManyPlayers):
		return fmt.Sprintf("За столом уже %d игроков", game.MaxPlayers)
	case errors.Is(err, game.ErrPlayerExists):
		return "Вы уже за столом"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "Нужно хотя бы два игрока"
	case errors.Is(err, game.ErrInsufficientTokens):
		return "Не хватает жетонов"
	case errors.Is(err, game.ErrEmptySource):
		return "Там нет карт"
	case errors.As(err, &stateErr):
		return "Сейчас так сходить нельзя"
	default:
		logger.Error("bot action failed", "error", err)
		return "Что-то пошло не так, попробуйте позже"
	}
}

// rootMessage отрезает обертки fmt.Errorf
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
