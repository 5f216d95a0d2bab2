package gamedb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for question bank and game persistence.
type Repository interface {
	// CountActiveQuestions counts active questions, optionally in one category.
	CountActiveQuestions(ctx context.Context, db bun.IDB, category string) (int, error)

	// RandomQuestions draws n distinct active questions at random.
	RandomQuestions(ctx context.Context, db bun.IDB, category string, n int) ([]Question, error)

	// GetQuestion retrieves a question by id.
	GetQuestion(ctx context.Context, db bun.IDB, id int64) (*Question, error)

	// InsertQuestions stores imported questions and returns how many were inserted.
	InsertQuestions(ctx context.Context, db bun.IDB, questions []Question) (int, error)

	// ListCategories returns the distinct categories of active questions.
	ListCategories(ctx context.Context, db bun.IDB) ([]string, error)

	CreateGame(ctx context.Context, db bun.IDB, game *Game) error

	// GetGameForUpdate retrieves a game and locks the row for the transaction.
	GetGameForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Game, error)

	UpdateGame(ctx context.Context, db bun.IDB, game *Game) error

	// InsertResult stores the summary of a finished game. It reports whether a
	// row was inserted.
	InsertResult(ctx context.Context, db bun.IDB, result *GameResult) (bool, error)
}
