package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// схема создается идемпотентно при старте
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id           TEXT PRIMARY KEY,
		session_key  TEXT NOT NULL,
		players      INT NOT NULL,
		hands        INT NOT NULL DEFAULT 0,
		winner_id    TEXT,
		winner_name  TEXT,
		started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS hand_results (
		game_id     TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		hand_index  INT NOT NULL,
		player_id   TEXT NOT NULL,
		player_name TEXT NOT NULL,
		blood_value INT NOT NULL,
		sand_value  INT NOT NULL,
		rank        INT NOT NULL,
		token_loss  INT NOT NULL,
		eliminated  BOOLEAN NOT NULL,
		PRIMARY KEY (game_id, hand_index, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS player_stats (
		player_id    TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		games_played INT NOT NULL DEFAULT 0,
		games_won    INT NOT NULL DEFAULT 0,
		hands_won    INT NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS session_events (
		id          BIGSERIAL PRIMARY KEY,
		session_key TEXT NOT NULL,
		game_id     TEXT NOT NULL,
		player_id   TEXT NOT NULL DEFAULT '',
		action      TEXT NOT NULL,
		hand_index  INT NOT NULL DEFAULT 0,
		round_index INT NOT NULL DEFAULT 0,
		details     JSONB NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS session_events_game_idx ON session_events (game_id, created_at)`,
}

// Migrate применяет схему в одной транзакции
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migrate: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, stmt := range migrations {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}
