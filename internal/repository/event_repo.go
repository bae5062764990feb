package repository

import (
	"context"
	"encoding/json"

	"sabacc_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// журнал действий за столами
type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// создает новую запись в журнале
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	detailsJSON, err := json.Marshal(e.Details)
	if err != nil || e.Details == nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO session_events (session_key, game_id, player_id, action, hand_index, round_index, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.SessionKey, e.GameID, e.PlayerID, e.Action, e.HandIndex, e.RoundIndex, detailsJSON)
	return err
}

// возвращает журнал партии в хронологическом порядке
func (r *EventRepository) GetByGame(ctx context.Context, gameID string, limit int) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_key, game_id, player_id, action, hand_index, round_index, details, created_at
		FROM session_events
		WHERE game_id = $1
		ORDER BY created_at, id
		LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// возвращает последние действия игрока
func (r *EventRepository) GetByPlayer(ctx context.Context, playerID string, limit int) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, session_key, game_id, player_id, action, hand_index, round_index, details, created_at
		FROM session_events
		WHERE player_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		var e domain.Event
		var detailsJSON []byte
		if err := rows.Scan(&e.ID, &e.SessionKey, &e.GameID, &e.PlayerID, &e.Action, &e.HandIndex, &e.RoundIndex, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &e.Details); err != nil {
			e.Details = make(map[string]any)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
