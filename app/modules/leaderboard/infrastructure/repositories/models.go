package leaderboarddb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Standing is one aggregated row of game_results for a user.
type Standing struct {
	Rank           int       `bun:"rank"`
	UserUUID       uuid.UUID `bun:"user_uuid"`
	Username       string    `bun:"username"`
	DisplayName    *string   `bun:"display_name"`
	CorrectAnswers int64     `bun:"correct_answers"`
	ResponseTimeMs int64     `bun:"response_time_ms"`
	GamesPlayed    int64     `bun:"games_played"`
}

// Snapshot is a frozen board row.
type Snapshot struct {
	bun.BaseModel `bun:"table:leaderboard_snapshots,alias:ls"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	Period         string    `bun:"period,notnull" json:"period"`
	PeriodKey      string    `bun:"period_key,notnull" json:"period_key"`
	Rank           int       `bun:"rank,notnull" json:"rank"`
	UserUUID       uuid.UUID `bun:"user_uuid,notnull,type:uuid" json:"user_uuid"`
	Username       string    `bun:"username,notnull" json:"username"`
	CorrectAnswers int64     `bun:"correct_answers,notnull" json:"correct_answers"`
	ResponseTimeMs int64     `bun:"response_time_ms,notnull" json:"response_time_ms"`
	GamesPlayed    int64     `bun:"games_played,notnull" json:"games_played"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
