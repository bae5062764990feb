package domain

import "time"

// GameRecord - сыгранная партия
type GameRecord struct {
	ID          string     `db:"id" json:"id"`
	SessionKey  string     `db:"session_key" json:"session_key"`
	Players     int        `db:"players" json:"players"`
	Hands       int        `db:"hands" json:"hands"`
	WinnerID    string     `db:"winner_id" json:"winner_id,omitempty"`
	WinnerName  string     `db:"winner_name" json:"winner_name,omitempty"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// HandRecord - итог одного игрока в одной раздаче
type HandRecord struct {
	GameID     string `db:"game_id" json:"game_id"`
	HandIndex  int    `db:"hand_index" json:"hand_index"`
	PlayerID   string `db:"player_id" json:"player_id"`
	PlayerName string `db:"player_name" json:"player_name"`
	BloodValue int    `db:"blood_value" json:"blood_value"`
	SandValue  int    `db:"sand_value" json:"sand_value"`
	Rank       int    `db:"rank" json:"rank"`
	TokenLoss  int    `db:"token_loss" json:"token_loss"`
	Eliminated bool   `db:"eliminated" json:"eliminated"`
}

// PlayerStats - строка лидерборда
type PlayerStats struct {
	PlayerID    string    `db:"player_id" json:"player_id"`
	Name        string    `db:"name" json:"name"`
	GamesPlayed int       `db:"games_played" json:"games_played"`
	GamesWon    int       `db:"games_won" json:"games_won"`
	HandsWon    int       `db:"hands_won" json:"hands_won"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
