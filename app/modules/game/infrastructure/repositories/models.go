package gamedb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Question is a row of the question bank.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Category     string    `bun:"category,notnull" json:"category"`
	Prompt       string    `bun:"prompt,notnull" json:"prompt"`
	OptionA      string    `bun:"option_a,notnull" json:"option_a"`
	OptionB      string    `bun:"option_b,notnull" json:"option_b"`
	OptionC      string    `bun:"option_c,notnull" json:"option_c"`
	OptionD      string    `bun:"option_d,notnull" json:"option_d"`
	CorrectIndex int       `bun:"correct_index,notnull" json:"correct_index"`
	Active       bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Options returns the four answers in A-D order.
func (q *Question) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// Game is a persisted quiz session.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID                uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	UserUUID          uuid.UUID  `bun:"user_uuid,notnull,type:uuid" json:"user_uuid"`
	Category          string     `bun:"category,notnull,default:''" json:"category"`
	QuestionIDs       []int64    `bun:"question_ids,array,notnull" json:"question_ids"`
	CurrentIndex      int        `bun:"current_index,notnull,default:0" json:"current_index"`
	CorrectAnswers    int        `bun:"correct_answers,notnull,default:0" json:"correct_answers"`
	CoinsEarned       int64      `bun:"coins_earned,notnull,default:0" json:"coins_earned"`
	ResponseTimeMs    int64      `bun:"response_time_ms,notnull,default:0" json:"response_time_ms"`
	Status            string     `bun:"status,notnull" json:"status"`
	StartedAt         time.Time  `bun:"started_at,notnull" json:"started_at"`
	QuestionStartedAt time.Time  `bun:"question_started_at,notnull" json:"question_started_at"`
	FinishedAt        *time.Time `bun:"finished_at" json:"finished_at,omitempty"`
}

// GameResult is the summary row written when a game finishes. Leaderboards
// and admin analytics read from it.
type GameResult struct {
	bun.BaseModel `bun:"table:game_results,alias:gr"`

	GameID         uuid.UUID `bun:"game_id,pk,type:uuid" json:"game_id"`
	UserUUID       uuid.UUID `bun:"user_uuid,notnull,type:uuid" json:"user_uuid"`
	Status         string    `bun:"status,notnull" json:"status"`
	Category       string    `bun:"category,notnull,default:''" json:"category"`
	CorrectAnswers int       `bun:"correct_answers,notnull" json:"correct_answers"`
	ResponseTimeMs int64     `bun:"response_time_ms,notnull" json:"response_time_ms"`
	CoinsEarned    int64     `bun:"coins_earned,notnull" json:"coins_earned"`
	CompletedAt    time.Time `bun:"completed_at,notnull" json:"completed_at"`
}
