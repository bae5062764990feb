package repository

import (
	"context"
	"time"

	"sabacc_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// история партий, раздач и лидерборд
type HistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// StartGame заводит партию и отмечает участие каждого игрока
func (r *HistoryRepository) StartGame(ctx context.Context, g *domain.GameRecord, players map[string]string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO games (id, session_key, players, started_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, g.ID, g.SessionKey, g.Players, g.StartedAt); err != nil {
		return err
	}
	for id, name := range players {
		if err := upsertStats(ctx, tx, id, name, 1, 0, 0); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// RecordHand сохраняет итоги раздачи; победители раздачи получают hands_won
func (r *HistoryRepository) RecordHand(ctx context.Context, records []domain.HandRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, h := range records {
		if _, err := tx.Exec(ctx, `
			INSERT INTO hand_results (game_id, hand_index, player_id, player_name, blood_value, sand_value, rank, token_loss, eliminated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (game_id, hand_index, player_id) DO NOTHING
		`, h.GameID, h.HandIndex, h.PlayerID, h.PlayerName, h.BloodValue, h.SandValue, h.Rank, h.TokenLoss, h.Eliminated); err != nil {
			return err
		}
		if h.Rank == 0 {
			if err := upsertStats(ctx, tx, h.PlayerID, h.PlayerName, 0, 0, 1); err != nil {
				return err
			}
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE games SET hands = hands + 1 WHERE id = $1`, records[0].GameID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CompleteGame фиксирует победителя
func (r *HistoryRepository) CompleteGame(ctx context.Context, gameID, winnerID, winnerName string, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE games SET winner_id = $2, winner_name = $3, completed_at = $4
		WHERE id = $1 AND completed_at IS NULL
	`, gameID, winnerID, winnerName, at); err != nil {
		return err
	}
	if err := upsertStats(ctx, tx, winnerID, winnerName, 0, 1, 0); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertStats(ctx context.Context, tx pgx.Tx, playerID, name string, played, won, hands int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO player_stats (player_id, name, games_played, games_won, hands_won, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (player_id) DO UPDATE SET
			name = EXCLUDED.name,
			games_played = player_stats.games_played + EXCLUDED.games_played,
			games_won = player_stats.games_won + EXCLUDED.games_won,
			hands_won = player_stats.hands_won + EXCLUDED.hands_won,
			updated_at = now()
	`, playerID, name, played, won, hands)
	return err
}

// Leaderboard - игроки по числу побед
func (r *HistoryRepository) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT player_id, name, games_played, games_won, hands_won, updated_at
		FROM player_stats
		ORDER BY games_won DESC, hands_won DESC, games_played ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PlayerStats
	for rows.Next() {
		var s domain.PlayerStats
		if err := rows.Scan(&s.PlayerID, &s.Name, &s.GamesPlayed, &s.GamesWon, &s.HandsWon, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecentGames - последние партии стола
func (r *HistoryRepository) RecentGames(ctx context.Context, sessionKey string, limit int) ([]domain.GameRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_key, players, hands, COALESCE(winner_id, ''), COALESCE(winner_name, ''), started_at, completed_at
		FROM games
		WHERE session_key = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, sessionKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GameRecord
	for rows.Next() {
		var g domain.GameRecord
		if err := rows.Scan(&g.ID, &g.SessionKey, &g.Players, &g.Hands, &g.WinnerID, &g.WinnerName, &g.StartedAt, &g.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
