package events

import "time"

const (
	GameCompletedV1 = "game.completed.v1"
)

// GameCompletedPayloadV1 summarises a finished quiz session.
type GameCompletedPayloadV1 struct {
	GameID         string    `json:"game_id"`
	UserUUID       string    `json:"user_uuid"`
	Status         string    `json:"status"`
	CorrectAnswers int       `json:"correct_answers"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CoinsEarned    int64     `json:"coins_earned"`
	Category       string    `json:"category,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}
