package domain

import "time"

// Event - запись журнала действий за столом
type Event struct {
	ID         int64          `db:"id" json:"id"`
	SessionKey string         `db:"session_key" json:"session_key"`
	GameID     string         `db:"game_id" json:"game_id"`
	PlayerID   string         `db:"player_id" json:"player_id,omitempty"`
	Action     string         `db:"action" json:"action"`
	HandIndex  int            `db:"hand_index" json:"hand_index"`
	RoundIndex int            `db:"round_index" json:"round_index"`
	Details    map[string]any `db:"details" json:"details"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

const (
	// стол
	EventCreate  = "create"
	EventJoin    = "join"
	EventStart   = "start"
	EventAbandon = "abandon"

	// ход
	EventChooseAction = "choose_action"
	EventDraw         = "draw"
	EventDiscard      = "discard"
	EventStand        = "stand"
	EventRoll         = "roll"
	EventChooseValue  = "choose_value"
	EventReveal       = "reveal"

	// итоги
	EventHandResolved  = "hand_resolved"
	EventGameCompleted = "game_completed"
)
