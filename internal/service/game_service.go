package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sabacc_bot/internal/domain"
	"sabacc_bot/internal/game"
	"sabacc_bot/internal/logger"
	"sabacc_bot/internal/metrics"
)

var (
	ErrNoActiveGame   = errors.New("за этим столом нет партии")
	ErrNotSeated      = errors.New("вы не сидите за этим столом")
	ErrNotYourTurn    = errors.New("сейчас не ваш ход")
	ErrGameExists     = errors.New("за этим столом уже есть партия")
	ErrGameInProgress = errors.New("партия уже идет")
)

// SessionStore хранит столы по ключу (обычно id чата).
// Load возвращает nil, nil если стола нет
type SessionStore interface {
	Load(ctx context.Context, key string) (*game.Session, error)
	Save(ctx context.Context, key string, s *game.Session) error
	Delete(ctx context.Context, key string) error
}

// HistoryRecorder - история партий для лидерборда
type HistoryRecorder interface {
	StartGame(ctx context.Context, g *domain.GameRecord, players map[string]string) error
	RecordHand(ctx context.Context, records []domain.HandRecord) error
	CompleteGame(ctx context.Context, gameID, winnerID, winnerName string, at time.Time) error
}

// Observer получает стол после каждого успешного изменения;
// s == nil значит, что стол удален
type Observer func(ctx context.Context, key string, s *game.Session)

// Actor - кто совершает действие
type Actor struct {
	ID   string
	Name string
}

// Outcome - результат действия игрока
type Outcome struct {
	Session *game.Session
	Player  *game.Player
	Drawn   *game.DealtCard
	Rolls   []int
	// не nil, если ход закончился и передан следующему
	Advance *game.Advance
}

// GameService проводит действия игроков через движок: блокирует стол,
// загружает его, проверяет, кто ходит, вызывает движок, сам завершает
// законченный ход, сохраняет и рассылает результат
type GameService struct {
	store          SessionStore
	rng            game.Randomizer
	startingTokens int
	locks          *keyLocks

	audit     *AuditService
	history   HistoryRecorder
	observers []Observer

	now   func() time.Time
	newID func() string
}

func NewGameService(store SessionStore, rng game.Randomizer, startingTokens int) *GameService {
	if startingTokens <= 0 {
		startingTokens = game.DefaultStartingTokens
	}
	return &GameService{
		store:          store,
		rng:            rng,
		startingTokens: startingTokens,
		locks:          newKeyLocks(),
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

func (g *GameService) SetAudit(a *AuditService) {
	g.audit = a
}

func (g *GameService) SetHistory(h HistoryRecorder) {
	g.history = h
}

// Subscribe добавляет наблюдателя; вызывать до начала работы
func (g *GameService) Subscribe(o Observer) {
	g.observers = append(g.observers, o)
}

func (g *GameService) notify(ctx context.Context, key string, s *game.Session) {
	for _, o := range g.observers {
		o(ctx, key, s)
	}
}

func (g *GameService) save(ctx context.Context, key string, s *game.Session) error {
	s.UpdatedAt = g.now()
	if err := g.store.Save(ctx, key, s); err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

// Get возвращает стол или ErrNoActiveGame
func (g *GameService) Get(ctx context.Context, key string) (*game.Session, error) {
	s, err := g.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoActiveGame
	}
	return s, nil
}

// Hand возвращает закрытую руку игрока
func (g *GameService) Hand(ctx context.Context, key, playerID string) (*HandView, error) {
	s, err := g.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	p, ok := s.PlayerByID(playerID)
	if !ok {
		return nil, ErrNotSeated
	}
	v := NewHandView(p)
	return &v, nil
}

// Create открывает новый стол. Завершенная партия под тем же ключом заменяется
func (g *GameService) Create(ctx context.Context, key string, actor Actor) (*game.Session, error) {
	ctx = logger.WithAttrs(ctx, "session_key", key, "player_id", actor.ID)
	unlock := g.locks.Lock(key)
	defer unlock()

	existing, err := g.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.IsCompleted() {
		return nil, ErrGameExists
	}

	s, err := game.NewSession(g.newID(), actor.ID, actor.Name, g.startingTokens)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = g.now()
	if err := g.save(ctx, key, s); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("table created", "game_id", s.ID)
	g.audit.LogAction(ctx, key, s, actor.ID, domain.EventCreate, map[string]any{"starting_tokens": s.StartingTokens})
	g.notify(ctx, key, s)
	return s, nil
}

// Join сажает игрока за стол в лобби
func (g *GameService) Join(ctx context.Context, key string, actor Actor) (*game.Session, error) {
	ctx = logger.WithAttrs(ctx, "session_key", key, "player_id", actor.ID)
	unlock := g.locks.Lock(key)
	defer unlock()

	s, err := g.loadPending(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, err := game.AddPlayer(s, actor.ID, actor.Name); err != nil {
		metrics.Actions.WithLabelValues(domain.EventJoin, metrics.OutcomeRejected).Inc()
		return nil, err
	}
	if err := g.save(ctx, key, s); err != nil {
		return nil, err
	}

	metrics.Actions.WithLabelValues(domain.EventJoin, metrics.OutcomeOK).Inc()
	logger.FromContext(ctx).Info("player joined", "players", len(s.Players))
	g.audit.LogAction(ctx, key, s, actor.ID, domain.EventJoin, map[string]any{"name": actor.Name})
	g.notify(ctx, key, s)
	return s, nil
}

// Start начинает партию; начать может любой сидящий за столом
func (g *GameService) Start(ctx context.Context, key string, actor Actor) (*game.Session, error) {
	ctx = logger.WithAttrs(ctx, "session_key", key, "player_id", actor.ID)
	unlock := g.locks.Lock(key)
	defer unlock()

	s, err := g.loadPending(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, ok := s.PlayerByID(actor.ID); !ok {
		return nil, ErrNotSeated
	}
	if err := game.StartGame(s, g.rng); err != nil {
		metrics.Actions.WithLabelValues(domain.EventStart, metrics.OutcomeRejected).Inc()
		return nil, err
	}
	if err := g.save(ctx, key, s); err != nil {
		return nil, err
	}

	metrics.GamesStarted.Inc()
	metrics.Actions.WithLabelValues(domain.EventStart, metrics.OutcomeOK).Inc()
	logger.FromContext(ctx).Info("game started", "game_id", s.ID, "players", len(s.Players))
	g.audit.LogAction(ctx, key, s, actor.ID, domain.EventStart, map[string]any{"order": playerIDs(s)})
	if g.history != nil {
		names := make(map[string]string, len(s.Players))
		for _, p := range s.Players {
			names[p.ID] = p.Name
		}
		rec := &domain.GameRecord{ID: s.ID, SessionKey: key, Players: len(s.Players), StartedAt: g.now()}
		if err := g.history.StartGame(ctx, rec, names); err != nil {
			logger.FromContext(ctx).Error("не удалось записать начало партии", "error", err)
		}
	}
	g.notify(ctx, key, s)
	return s, nil
}

// Abandon убирает стол, если партия еще не началась или уже закончилась
func (g *GameService) Abandon(ctx context.Context, key string, actor Actor) error {
	ctx = logger.WithAttrs(ctx, "session_key", key, "player_id", actor.ID)
	unlock := g.locks.Lock(key)
	defer unlock()

	s, err := g.store.Load(ctx, key)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrNoActiveGame
	}
	if s.IsActive() {
		return ErrGameInProgress
	}
	if _, ok := s.PlayerByID(actor.ID); !ok {
		return ErrNotSeated
	}
	if err := g.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}

	logger.FromContext(ctx).Info("table abandoned", "game_id", s.ID, "status", s.Status)
	g.audit.LogAction(ctx, key, s, actor.ID, domain.EventAbandon, map[string]any{"status": string(s.Status)})
	g.notify(ctx, key, nil)
	return nil
}

func (g *GameService) loadPending(ctx context.Context, key string) (*game.Session, error) {
	s, err := g.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	switch {
	case s == nil, s.IsCompleted():
		return nil, ErrNoActiveGame
	case s.IsActive():
		return nil, ErrGameInProgress
	}
	return s, nil
}

// ChooseAction начинает ход. Stand завершает ход сразу.
// ActionNone отменяет начатый, но не сделанный ход
func (g *GameService) ChooseAction(ctx context.Context, key string, actor Actor, action game.TurnAction) (*Outcome, error) {
	event := domain.EventChooseAction
	if action == game.ActionStand {
		event = domain.EventStand
	}
	return g.play(ctx, key, actor, event, func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error) {
		if err := game.SetTurnAction(s, p, action); err != nil {
			return nil, err
		}
		if action == game.ActionStand {
			if err := game.StandPlayer(s, p); err != nil {
				return nil, err
			}
		}
		return map[string]any{"action": string(action)}, nil
	})
}

// Stand завершает уже выбранный ход stand
func (g *GameService) Stand(ctx context.Context, key string, actor Actor) (*Outcome, error) {
	return g.play(ctx, key, actor, domain.EventStand, func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error) {
		return nil, game.StandPlayer(s, p)
	})
}

func (g *GameService) Draw(ctx context.Context, key string, actor Actor, source game.CardSource) (*Outcome, error) {
	return g.play(ctx, key, actor, domain.EventDraw, func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error) {
		card, err := game.DrawCard(s, p, source)
		if err != nil {
			return nil, err
		}
		out.Drawn = card
		// что взято из колоды, видит только игрок
		details := map[string]any{"source": string(source), "spent": p.SpentTokens}
		if source == game.SourceBloodDiscard || source == game.SourceSandDiscard {
			details["card"] = card.String()
		}
		return details, nil
	})
}

// Discard сбрасывает карту из слота масти (0 - карта, бывшая на руке, 1 - взятая)
func (g *GameService) Discard(ctx context.Context, key string, actor Actor, suit game.Suit, slot int) (*Outcome, error) {
	return g.play(ctx, key, actor, domain.EventDiscard, func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error) {
		card := cardAt(p, suit, slot)
		if err := game.DiscardCard(s, p, card); err != nil {
			return nil, err
		}
		return map[string]any{"card": card.String(), "slot": slot}, nil
	})
}

// Roll бросает кубики за самозванца масти suit
func (g *GameService) Roll(ctx context.Context, key string, actor Actor, suit game.Suit) (*Outcome, error) {
	return g.play(ctx, key, actor, domain.EventRoll, func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error) {
		rolls, err := game.RollImposterDie(s, p, cardAt(p, suit, 0), g.rng)
		if err != nil {
			return nil, err
		}
		out.Rolls = rolls
		return map[string]any{"suit": string(suit), "rolls": rolls}, nil
	})
}

func (g *GameService) ChooseValue(ctx context.Context, key string, actor Actor, suit game.Suit, value int) (*Outcome, error) {
	return g.play(ctx, key, actor, domain.EventChooseValue, func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error) {
		if err := game.ChooseImposterValue(s, p, cardAt(p, suit, 0), value); err != nil {
			return nil, err
		}
		return map[string]any{"suit": string(suit), "value": value}, nil
	})
}

// Reveal завершает ход вскрытия
func (g *GameService) Reveal(ctx context.Context, key string, actor Actor) (*Outcome, error) {
	return g.play(ctx, key, actor, domain.EventReveal, func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error) {
		if err := game.FinalizeReveal(s, p); err != nil {
			return nil, err
		}
		return map[string]any{"hand": handLabels(p)}, nil
	})
}

// Cancel возвращает игрока к выбору действия
func (g *GameService) Cancel(ctx context.Context, key string, actor Actor) (*Outcome, error) {
	return g.ChooseAction(ctx, key, actor, game.ActionNone)
}

type playFunc func(s *game.Session, p *game.Player, out *Outcome) (map[string]any, error)

// play - общий путь хода: проверки, движок, автозавершение хода, сохранение
func (g *GameService) play(ctx context.Context, key string, actor Actor, event string, fn playFunc) (*Outcome, error) {
	ctx = logger.WithAttrs(ctx, "session_key", key, "player_id", actor.ID, "action", event)
	log := logger.FromContext(ctx)
	unlock := g.locks.Lock(key)
	defer unlock()

	s, err := g.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if s == nil || !s.IsActive() {
		return nil, ErrNoActiveGame
	}
	p, ok := s.PlayerByID(actor.ID)
	if !ok {
		return nil, ErrNotSeated
	}
	if !s.IsCurrentPlayer(actor.ID) {
		return nil, ErrNotYourTurn
	}

	out := &Outcome{Session: s, Player: p}
	details, err := fn(s, p, out)
	if err != nil {
		metrics.Actions.WithLabelValues(event, metrics.OutcomeRejected).Inc()
		log.Debug("action rejected", "error", err)
		return nil, err
	}
	handIndex, roundIndex := s.HandIndex, s.RoundIndex

	if p.Turn.IsCompleted() {
		adv, err := game.EndTurn(s, g.rng)
		if err != nil {
			// стол не сохраняется: в хранилище остается состояние до действия
			metrics.Actions.WithLabelValues(event, metrics.OutcomeError).Inc()
			log.Error("end turn failed", "error", err)
			return nil, err
		}
		out.Advance = adv
	}

	if err := g.save(ctx, key, s); err != nil {
		metrics.Actions.WithLabelValues(event, metrics.OutcomeError).Inc()
		return nil, err
	}
	metrics.Actions.WithLabelValues(event, metrics.OutcomeOK).Inc()

	g.audit.Log(ctx, &domain.Event{
		SessionKey: key,
		GameID:     s.ID,
		PlayerID:   actor.ID,
		Action:     event,
		HandIndex:  handIndex,
		RoundIndex: roundIndex,
		Details:    details,
	})
	if out.Advance != nil {
		g.recordAdvance(ctx, key, s, out.Advance)
	}
	g.notify(ctx, key, s)
	return out, nil
}

// recordAdvance пишет итоги раздачи и партии в историю, журнал и метрики
func (g *GameService) recordAdvance(ctx context.Context, key string, s *game.Session, adv *game.Advance) {
	log := logger.FromContext(ctx)
	if hand := adv.Hand; hand != nil {
		metrics.HandsResolved.Inc()
		records := make([]domain.HandRecord, 0, len(hand.Results))
		for _, r := range hand.Results {
			if r.Eliminated {
				metrics.Eliminations.Inc()
			}
			name := r.PlayerID
			if p, ok := s.PlayerByID(r.PlayerID); ok {
				name = p.Name
			}
			records = append(records, domain.HandRecord{
				GameID:     s.ID,
				HandIndex:  hand.HandIndex,
				PlayerID:   r.PlayerID,
				PlayerName: name,
				BloodValue: r.BloodValue,
				SandValue:  r.SandValue,
				Rank:       r.Rank,
				TokenLoss:  r.TokenLoss,
				Eliminated: r.Eliminated,
			})
		}
		log.Info("hand resolved", "hand", hand.HandIndex, "winners", len(hand.Winners()))
		g.audit.LogHand(ctx, key, s, hand)
		if g.history != nil {
			if err := g.history.RecordHand(ctx, records); err != nil {
				log.Error("не удалось записать раздачу", "error", err)
			}
		}
	}

	if !adv.GameCompleted {
		return
	}
	metrics.GamesCompleted.Inc()
	metrics.HandsPerGame.Observe(float64(len(s.HandHistory)))
	winner := s.Winner()
	if winner == nil {
		log.Error("completed game without a winner", "game_id", s.ID)
		return
	}
	log.Info("game completed", "game_id", s.ID, "winner", winner.ID, "hands", len(s.HandHistory))
	g.audit.LogGameCompleted(ctx, key, s)
	if g.history != nil {
		if err := g.history.CompleteGame(ctx, s.ID, winner.ID, winner.Name, g.now()); err != nil {
			log.Error("не удалось записать конец партии", "error", err)
		}
	}
}

// cardAt возвращает карту слота или nil, если слота нет
func cardAt(p *game.Player, suit game.Suit, slot int) *game.DealtCard {
	cards := p.Cards(suit)
	if slot < 0 || slot >= len(cards) {
		return nil
	}
	return cards[slot]
}

func handLabels(p *game.Player) []string {
	out := make([]string, 0, 2)
	for _, c := range p.Hand() {
		out = append(out, c.String())
	}
	return out
}

func playerIDs(s *game.Session) []string {
	out := make([]string, len(s.Players))
	for i, p := range s.Players {
		out[i] = p.ID
	}
	return out
}
