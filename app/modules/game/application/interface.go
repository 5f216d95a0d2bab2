package gameservice

import (
	"context"
	"io"
	"time"

	gamedomain "github.com/Black-And-White-Club/dingleup/app/modules/game/domain"
	walletservice "github.com/Black-And-White-Club/dingleup/app/modules/wallet/application"
	"github.com/google/uuid"
)

// Service is the quiz application API.
type Service interface {
	StartGame(ctx context.Context, userUUID uuid.UUID, category string) (*GameView, error)
	GetGame(ctx context.Context, userUUID, gameID uuid.UUID) (*GameView, error)
	AnswerQuestion(ctx context.Context, req AnswerRequest) (*AnswerView, error)
	AbandonGame(ctx context.Context, userUUID, gameID uuid.UUID) (*GameView, error)
	ListCategories(ctx context.Context) ([]string, error)
	ImportQuestions(ctx context.Context, r io.Reader) (*ImportReport, error)
}

// Wallet is the part of the wallet the quiz needs: a life to start and a
// refund when the game cannot be created.
type Wallet interface {
	ConsumeLife(ctx context.Context, userUUID uuid.UUID, reason, idempotencyKey string) (*walletservice.WalletView, error)
	Credit(ctx context.Context, req walletservice.LedgerRequest) (*walletservice.WalletView, error)
}

// AnswerRequest is one answer to the current question.
type AnswerRequest struct {
	UserUUID      uuid.UUID
	GameID        uuid.UUID
	QuestionIndex int
	Choice        int
}

// GameView is a game as returned to clients. The current question never
// carries its answer.
type GameView struct {
	ID              uuid.UUID         `json:"id"`
	Status          gamedomain.Status `json:"status"`
	Category        string            `json:"category,omitempty"`
	TotalQuestions  int               `json:"total_questions"`
	CurrentIndex    int               `json:"current_index"`
	CorrectAnswers  int               `json:"correct_answers"`
	CoinsEarned     int64             `json:"coins_earned"`
	ResponseTimeMs  int64             `json:"response_time_ms"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      *time.Time        `json:"finished_at,omitempty"`
	CurrentQuestion *QuestionView     `json:"current_question,omitempty"`
	LivesLeft       *int              `json:"lives_left,omitempty"`
}

// QuestionView is the question shown to the player.
type QuestionView struct {
	Index       int       `json:"index"`
	Category    string    `json:"category"`
	Prompt      string    `json:"prompt"`
	Options     [4]string `json:"options"`
	Reward      int64     `json:"reward"`
	TimeLimitMs int64     `json:"time_limit_ms"`
	Deadline    time.Time `json:"deadline"`
}

// AnswerView reports the outcome of one answer and the resulting game.
type AnswerView struct {
	Correct      bool      `json:"correct"`
	TimedOut     bool      `json:"timed_out"`
	CorrectIndex int       `json:"correct_index"`
	Earned       int64     `json:"earned"`
	Game         *GameView `json:"game"`
}

// ImportReport summarises a question import.
type ImportReport struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped,omitempty"`
}

// RowError explains why a spreadsheet row was skipped.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
