package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	ErrGameNotFound     = fmt.Errorf("game %w", ErrNotFound)
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new game repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func activeQuestions(q *bun.SelectQuery, category string) *bun.SelectQuery {
	q = q.Where("q.active = TRUE")
	if category != "" {
		q = q.Where("q.category = ?", category)
	}
	return q
}

func (r *Impl) CountActiveQuestions(ctx context.Context, db bun.IDB, category string) (int, error) {
	db = r.resolveDB(db)
	count, err := activeQuestions(db.NewSelect().Model((*Question)(nil)), category).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func (r *Impl) RandomQuestions(ctx context.Context, db bun.IDB, category string, n int) ([]Question, error) {
	db = r.resolveDB(db)
	var questions []Question
	err := activeQuestions(db.NewSelect().Model(&questions), category).
		OrderExpr("random()").
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to draw questions: %w", err)
	}
	return questions, nil
}

func (r *Impl) GetQuestion(ctx context.Context, db bun.IDB, id int64) (*Question, error) {
	db = r.resolveDB(db)
	question := new(Question)
	err := db.NewSelect().Model(question).Where("q.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (r *Impl) InsertQuestions(ctx context.Context, db bun.IDB, questions []Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	res, err := db.NewInsert().Model(&questions).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to insert questions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted rows: %w", err)
	}
	return int(rows), nil
}

func (r *Impl) ListCategories(ctx context.Context, db bun.IDB) ([]string, error) {
	db = r.resolveDB(db)
	var categories []string
	err := db.NewSelect().
		Model((*Question)(nil)).
		ColumnExpr("DISTINCT q.category").
		Where("q.active = TRUE").
		OrderExpr("q.category ASC").
		Scan(ctx, &categories)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *Impl) CreateGame(ctx context.Context, db bun.IDB, game *Game) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(game).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *Impl) GetGameForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Game, error) {
	db = r.resolveDB(db)
	game := new(Game)
	err := db.NewSelect().
		Model(game).
		Where("g.id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (r *Impl) UpdateGame(ctx context.Context, db bun.IDB, game *Game) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(game).
		Column("current_index", "correct_answers", "coins_earned", "response_time_ms", "status", "question_started_at", "finished_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrGameNotFound
	}
	return nil
}

func (r *Impl) InsertResult(ctx context.Context, db bun.IDB, result *GameResult) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewInsert().
		Model(result).
		On("CONFLICT (game_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert game result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read inserted rows: %w", err)
	}
	return n > 0, nil
}
