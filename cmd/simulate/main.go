// simulate прогоняет партии автоигроков через GameService и печатает сводку
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pterm/pterm"

	"sabacc_bot/internal/game"
	"sabacc_bot/internal/logger"
	"sabacc_bot/internal/sim"
)

func main() {
	var (
		players    int
		tokens     int
		games      int
		workers    int
		seed       int64
		policyName string
		replay     bool
	)
	flag.IntVar(&players, "players", 4, "players per table (2-8)")
	flag.IntVar(&tokens, "tokens", game.DefaultStartingTokens, "starting tokens")
	flag.IntVar(&games, "games", 1000, "number of games")
	flag.IntVar(&workers, "workers", 0, "parallel workers (0 = NumCPU)")
	flag.Int64Var(&seed, "seed", 1, "base seed")
	flag.StringVar(&policyName, "policy", "greedy", "autoplayer policy (random, greedy)")
	flag.BoolVar(&replay, "replay", false, "play a single game and print every hand")
	flag.Parse()

	logger.SetHandler(pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(pterm.LogLevelWarn)))

	var policy sim.Policy
	switch policyName {
	case "random":
		policy = sim.RandomPolicy{}
	case "greedy":
		policy = sim.GreedyPolicy{}
	default:
		pterm.Error.Printfln("unknown policy %q", policyName)
		os.Exit(2)
	}
	if players < game.MinPlayers || players > game.MaxPlayers {
		pterm.Error.Printfln("players must be between %d and %d", game.MinPlayers, game.MaxPlayers)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := sim.Config{Players: players, Tokens: tokens, Seed: seed, Policy: policy, CheckInvariants: true}
	if replay {
		if err := runReplay(ctx, cfg); err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		return
	}
	if err := runBatch(ctx, cfg, games, workers); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func runBatch(ctx context.Context, cfg sim.Config, games, workers int) error {
	pterm.DefaultHeader.Printfln("Sabacc: %d games, %d players, %s policy", games, cfg.Players, cfg.Policy.Name())

	spinner, _ := pterm.DefaultSpinner.Start("Playing...")
	stats := sim.RunBatch(ctx, cfg, games, workers)
	if stats.Errors > 0 {
		spinner.Fail(fmt.Sprintf("%d of %d games failed", stats.Errors, stats.Games))
		return stats.FirstError
	}
	spinner.Success(fmt.Sprintf("%d games in %s", stats.Games, stats.Duration.Round(time.Millisecond)))

	data := pterm.TableData{{"Seat", "Wins", "Share"}}
	for _, seat := range stats.SeatsByWins() {
		wins := stats.Wins[seat]
		data = append(data, []string{seat, strconv.Itoa(wins), fmt.Sprintf("%.1f%%", 100*float64(wins)/float64(stats.Games))})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	pterm.Info.Printfln("hands per game: avg %.2f, max %d", stats.AvgHands, stats.MaxHands)
	pterm.Info.Printfln("actions per game: avg %.1f", stats.AvgActions)
	return nil
}

func runReplay(ctx context.Context, cfg sim.Config) error {
	res := sim.RunGame(ctx, cfg)
	if res.Err != nil {
		return res.Err
	}

	for i, h := range res.Final.HandHistory {
		data := pterm.TableData{{"Player", "Blood", "Sand", "Rank", "Lost", "Tokens"}}
		for _, r := range h.Results {
			row := []string{r.PlayerID, r.Blood.String(), r.Sand.String(), strconv.Itoa(r.Rank), strconv.Itoa(r.TokenLoss), strconv.Itoa(r.TokensAfter)}
			if r.Eliminated {
				row[5] = pterm.LightRed("out")
			} else if r.Rank == 0 {
				row[0] = pterm.LightGreen(r.PlayerID)
			}
			data = append(data, row)
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		pterm.DefaultBox.WithTitle(fmt.Sprintf("Hand %d", i+1)).Println(table)
	}

	pterm.Success.Printfln("%s wins after %d hands (%d actions)", pterm.LightCyan(res.WinnerID), res.Hands, res.Actions)
	return nil
}
