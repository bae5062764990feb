package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/repository"
	"sabacc_bot/internal/service"
)

// с запасом: партия из 8 игроков по 6 жетонов заканчивается намного раньше
const maxSteps = 50000

var ErrStalled = errors.New("партия не закончилась")

// Config - параметры одной партии
type Config struct {
	Players int
	Tokens  int
	Seed    int64
	Policy  Policy
	// CheckInvariants проверяет стол после каждого действия
	CheckInvariants bool
}

// GameResult - итог одной партии
type GameResult struct {
	Seed     int64
	WinnerID string
	Hands    int
	Actions  int
	Duration time.Duration
	Final    *game.Session
	Err      error
}

// RunGame играет одну партию через GameService до конца
func RunGame(ctx context.Context, cfg Config) GameResult {
	start := time.Now()
	res := GameResult{Seed: cfg.Seed}
	if cfg.Policy == nil {
		cfg.Policy = RandomPolicy{}
	}

	svc := service.NewGameService(repository.NewMemorySessionStore(), game.NewRandom(cfg.Seed), cfg.Tokens)
	rng := rand.New(rand.NewSource(cfg.Seed))
	key := "sim:" + strconv.FormatInt(cfg.Seed, 10)

	res.Final, res.Actions, res.Err = play(ctx, svc, key, rng, cfg)
	res.Duration = time.Since(start)
	if res.Final != nil {
		res.Hands = len(res.Final.HandHistory)
		if w := res.Final.Winner(); w != nil {
			res.WinnerID = w.ID
		}
	}
	return res
}

func seat(i int) service.Actor {
	id := "p" + strconv.Itoa(i+1)
	return service.Actor{ID: id, Name: id}
}

func play(ctx context.Context, svc *service.GameService, key string, rng *rand.Rand, cfg Config) (*game.Session, int, error) {
	if _, err := svc.Create(ctx, key, seat(0)); err != nil {
		return nil, 0, err
	}
	for i := 1; i < cfg.Players; i++ {
		if _, err := svc.Join(ctx, key, seat(i)); err != nil {
			return nil, 0, err
		}
	}
	if _, err := svc.Start(ctx, key, seat(0)); err != nil {
		return nil, 0, err
	}

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, step, err
		}
		s, err := svc.Get(ctx, key)
		if err != nil {
			return nil, step, err
		}
		if s.IsCompleted() {
			return s, step, nil
		}
		if cfg.CheckInvariants {
			if err := game.CheckInvariants(s); err != nil {
				return s, step, fmt.Errorf("step %d: %w", step, err)
			}
		}

		pr := service.PromptFor(s)
		p, _ := s.PlayerByID(pr.PlayerID)
		actor := service.Actor{ID: pr.PlayerID}
		m := cfg.Policy.Decide(rng, s, p, pr)

		switch pr.Kind {
		case service.PromptChooseAction:
			_, err = svc.ChooseAction(ctx, key, actor, m.Action)
		case service.PromptChooseSource:
			_, err = svc.Draw(ctx, key, actor, m.Source)
		case service.PromptChooseDiscard:
			_, err = svc.Discard(ctx, key, actor, pr.Suit, m.Slot)
		case service.PromptConfirmStand:
			_, err = svc.Stand(ctx, key, actor)
		case service.PromptRollDie:
			_, err = svc.Roll(ctx, key, actor, pr.Suit)
		case service.PromptChooseDie:
			_, err = svc.ChooseValue(ctx, key, actor, pr.Suit, m.Value)
		case service.PromptFinalize:
			_, err = svc.Reveal(ctx, key, actor)
		default:
			err = fmt.Errorf("unexpected prompt %q", pr.Kind)
		}
		if err != nil {
			return s, step, fmt.Errorf("step %d (%s): %w", step, pr.Kind, err)
		}
	}
	return nil, maxSteps, ErrStalled
}

// Stats - сводка по серии партий
type Stats struct {
	Games      int
	Errors     int
	Wins       map[string]int
	AvgHands   float64
	MaxHands   int
	AvgActions float64
	Duration   time.Duration
	FirstError error
}

// SeatsByWins возвращает места в порядке убывания побед
func (s Stats) SeatsByWins() []string {
	seats := make([]string, 0, len(s.Wins))
	for id := range s.Wins {
		seats = append(seats, id)
	}
	sort.Slice(seats, func(i, j int) bool {
		if s.Wins[seats[i]] != s.Wins[seats[j]] {
			return s.Wins[seats[i]] > s.Wins[seats[j]]
		}
		return seats[i] < seats[j]
	})
	return seats
}

// RunBatch играет games партий пулом воркеров. Seed каждой партии выводится
// из cfg.Seed, поэтому результат не зависит от числа воркеров
func RunBatch(ctx context.Context, cfg Config, games, workers int) Stats {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	start := time.Now()

	jobs := make(chan int64, games)
	results := make(chan GameResult, games)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range jobs {
				job := cfg
				job.Seed = seed
				results <- RunGame(ctx, job)
			}
		}()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < games; i++ {
		jobs <- rng.Int63()
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	stats := aggregate(results)
	stats.Duration = time.Since(start)
	return stats
}

func aggregate(results <-chan GameResult) Stats {
	stats := Stats{Wins: make(map[string]int)}
	var hands, actions int
	var firstSeed int64
	for r := range results {
		stats.Games++
		if r.Err != nil {
			stats.Errors++
			// ошибка с наименьшим seed, чтобы вывод был воспроизводим
			if stats.FirstError == nil || r.Seed < firstSeed {
				stats.FirstError = fmt.Errorf("seed %d: %w", r.Seed, r.Err)
				firstSeed = r.Seed
			}
			continue
		}
		stats.Wins[r.WinnerID]++
		hands += r.Hands
		actions += r.Actions
		if r.Hands > stats.MaxHands {
			stats.MaxHands = r.Hands
		}
	}
	if ok := stats.Games - stats.Errors; ok > 0 {
		stats.AvgHands = float64(hands) / float64(ok)
		stats.AvgActions = float64(actions) / float64(ok)
	}
	return stats
}
