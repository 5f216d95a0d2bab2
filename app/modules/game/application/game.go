package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Black-And-White-Club/dingleup/app/events"
	gamedomain "github.com/Black-And-White-Club/dingleup/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/repositories"
	walletservice "github.com/Black-And-White-Club/dingleup/app/modules/wallet/application"
	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/Black-And-White-Club/dingleup/internal/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	LifeReason   = "game_start"
	RefundReason = "game_refund"
)

// outcome is the success payload of mutating operations.
type outcome[V any] struct {
	view   V
	events []pendingEvent
}

// StartGame spends a life and draws a fresh set of questions.
func (s *GameService) StartGame(ctx context.Context, userUUID uuid.UUID, category string) (*GameView, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	gameID := uuid.New()

	result, err := withTelemetry(s, ctx, "StartGame", userUUID.String(), func(ctx context.Context) (results.OperationResult[*GameView, error], error) {
		count, err := s.repo.CountActiveQuestions(ctx, nil, category)
		if err != nil {
			return results.OperationResult[*GameView, error]{}, err
		}
		if count < s.cfg.QuestionsPerGame {
			return results.FailureResult[*GameView, error](gamedomain.ErrNotEnoughQuestions), nil
		}

		wallet, err := s.wallet.ConsumeLife(ctx, userUUID, LifeReason, "game-start:"+gameID.String())
		if err != nil {
			if errors.Is(err, walletdomain.ErrNoLives) {
				return results.FailureResult[*GameView, error](walletdomain.ErrNoLives), nil
			}
			return results.OperationResult[*GameView, error]{}, fmt.Errorf("failed to consume life: %w", err)
		}

		view, err := s.createGame(ctx, gameID, userUUID, category)
		if err != nil {
			s.refundLife(ctx, userUUID, gameID)
			if errors.Is(err, gamedomain.ErrNotEnoughQuestions) {
				return results.FailureResult[*GameView, error](err), nil
			}
			return results.OperationResult[*GameView, error]{}, err
		}

		lives := wallet.Lives
		view.LivesLeft = &lives
		return results.SuccessResult[*GameView, error](view), nil
	})
	return unwrap(result, err)
}

func (s *GameService) createGame(ctx context.Context, gameID, userUUID uuid.UUID, category string) (*GameView, error) {
	return unwrap(runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*GameView, error], error) {
		questions, err := s.repo.RandomQuestions(ctx, db, category, s.cfg.QuestionsPerGame)
		if err != nil {
			return results.OperationResult[*GameView, error]{}, err
		}
		if len(questions) < s.cfg.QuestionsPerGame {
			return results.OperationResult[*GameView, error]{}, gamedomain.ErrNotEnoughQuestions
		}

		ids := make([]int64, len(questions))
		for i := range questions {
			ids[i] = questions[i].ID
		}

		now := s.clock.Now()
		game := &gamedb.Game{
			ID:                gameID,
			UserUUID:          userUUID,
			Category:          category,
			QuestionIDs:       ids,
			Status:            string(gamedomain.StatusInProgress),
			StartedAt:         now,
			QuestionStartedAt: now,
		}
		if err := s.repo.CreateGame(ctx, db, game); err != nil {
			return results.OperationResult[*GameView, error]{}, err
		}

		s.logger.InfoContext(ctx, "Game started",
			attr.ExtractCorrelationID(ctx),
			attr.String("game_id", gameID.String()),
			attr.UserUUID(userUUID),
			attr.String("category", category),
		)
		return results.SuccessResult[*GameView, error](s.buildView(game, &questions[0])), nil
	}))
}

func (s *GameService) refundLife(ctx context.Context, userUUID, gameID uuid.UUID) {
	_, err := s.wallet.Credit(ctx, walletservice.LedgerRequest{
		UserUUID:       userUUID,
		Lives:          1,
		Reason:         RefundReason,
		IdempotencyKey: "game-refund:" + gameID.String(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to refund life",
			attr.ExtractCorrelationID(ctx),
			attr.String("game_id", gameID.String()),
			attr.UserUUID(userUUID),
			attr.Error(err),
		)
	}
}

// GetGame returns a game owned by the user. A question left open past the
// time limit loses the game.
func (s *GameService) GetGame(ctx context.Context, userUUID, gameID uuid.UUID) (*GameView, error) {
	result, err := withTelemetry(s, ctx, "GetGame", gameID.String(), func(ctx context.Context) (results.OperationResult[*outcome[*GameView], error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome[*GameView], error], error) {
			row, err := s.loadOwned(ctx, db, userUUID, gameID)
			if err != nil {
				return failureOrError[*outcome[*GameView]](err)
			}

			out := &outcome[*GameView]{}
			g := toDomain(row)
			if g.Expire(s.clock.Now(), s.cfg.AnswerTimeLimit) {
				ev, err := s.save(ctx, db, row, g)
				if err != nil {
					return results.OperationResult[*outcome[*GameView], error]{}, err
				}
				out.events = append(out.events, ev...)
			}

			out.view, err = s.viewWithQuestion(ctx, db, row)
			if err != nil {
				return results.OperationResult[*outcome[*GameView], error]{}, err
			}
			return results.SuccessResult[*outcome[*GameView], error](out), nil
		})
	})
	out, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, out.events)
	return out.view, nil
}

// AnswerQuestion applies an answer to the current question.
func (s *GameService) AnswerQuestion(ctx context.Context, req AnswerRequest) (*AnswerView, error) {
	result, err := withTelemetry(s, ctx, "AnswerQuestion", req.GameID.String(), func(ctx context.Context) (results.OperationResult[*outcome[*AnswerView], error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome[*AnswerView], error], error) {
			row, err := s.loadOwned(ctx, db, req.UserUUID, req.GameID)
			if err != nil {
				return failureOrError[*outcome[*AnswerView]](err)
			}

			g := toDomain(row)
			if g.Status.IsFinished() {
				return results.FailureResult[*outcome[*AnswerView], error](gamedomain.ErrGameFinished), nil
			}
			question, err := s.repo.GetQuestion(ctx, db, row.QuestionIDs[row.CurrentIndex])
			if err != nil {
				return results.OperationResult[*outcome[*AnswerView], error]{}, err
			}

			answer, err := g.Answer(s.clock.Now(), req.QuestionIndex, req.Choice, question.CorrectIndex, s.cfg.AnswerTimeLimit)
			if err != nil {
				return results.FailureResult[*outcome[*AnswerView], error](err), nil
			}

			evs, err := s.save(ctx, db, row, g)
			if err != nil {
				return results.OperationResult[*outcome[*AnswerView], error]{}, err
			}

			view, err := s.viewWithQuestion(ctx, db, row)
			if err != nil {
				return results.OperationResult[*outcome[*AnswerView], error]{}, err
			}
			return results.SuccessResult[*outcome[*AnswerView], error](&outcome[*AnswerView]{
				view: &AnswerView{
					Correct:      answer.Correct,
					TimedOut:     answer.TimedOut,
					CorrectIndex: answer.CorrectIndex,
					Earned:       answer.Earned,
					Game:         view,
				},
				events: evs,
			}), nil
		})
	})
	out, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, out.events)
	return out.view, nil
}

// AbandonGame ends the game early. Coins earned so far are kept.
func (s *GameService) AbandonGame(ctx context.Context, userUUID, gameID uuid.UUID) (*GameView, error) {
	result, err := withTelemetry(s, ctx, "AbandonGame", gameID.String(), func(ctx context.Context) (results.OperationResult[*outcome[*GameView], error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome[*GameView], error], error) {
			row, err := s.loadOwned(ctx, db, userUUID, gameID)
			if err != nil {
				return failureOrError[*outcome[*GameView]](err)
			}

			g := toDomain(row)
			if err := g.Abandon(s.clock.Now()); err != nil {
				return results.FailureResult[*outcome[*GameView], error](err), nil
			}
			evs, err := s.save(ctx, db, row, g)
			if err != nil {
				return results.OperationResult[*outcome[*GameView], error]{}, err
			}
			return results.SuccessResult[*outcome[*GameView], error](&outcome[*GameView]{
				view:   s.buildView(row, nil),
				events: evs,
			}), nil
		})
	})
	out, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, out.events)
	return out.view, nil
}

// ListCategories returns the categories players can pick from.
func (s *GameService) ListCategories(ctx context.Context) ([]string, error) {
	return unwrap(withTelemetry(s, ctx, "ListCategories", "", func(ctx context.Context) (results.OperationResult[[]string, error], error) {
		categories, err := s.repo.ListCategories(ctx, nil)
		if err != nil {
			return results.OperationResult[[]string, error]{}, err
		}
		return results.SuccessResult[[]string, error](categories), nil
	}))
}

// loadOwned locks the game and hides games of other users.
func (s *GameService) loadOwned(ctx context.Context, db bun.IDB, userUUID, gameID uuid.UUID) (*gamedb.Game, error) {
	row, err := s.repo.GetGameForUpdate(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return nil, gamedomain.ErrGameNotFound
		}
		return nil, err
	}
	if row.UserUUID != userUUID {
		return nil, gamedomain.ErrGameNotFound
	}
	return row, nil
}

func failureOrError[S any](err error) (results.OperationResult[S, error], error) {
	if errors.Is(err, gamedomain.ErrGameNotFound) {
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}

// save copies the domain state onto row and persists it. A finished game
// also gets its result row and a completion event.
func (s *GameService) save(ctx context.Context, db bun.IDB, row *gamedb.Game, g *gamedomain.Game) ([]pendingEvent, error) {
	fromDomain(row, g)
	if err := s.repo.UpdateGame(ctx, db, row); err != nil {
		return nil, err
	}
	if !g.Status.IsFinished() {
		return nil, nil
	}

	completedAt := *g.FinishedAt
	inserted, err := s.repo.InsertResult(ctx, db, &gamedb.GameResult{
		GameID:         row.ID,
		UserUUID:       row.UserUUID,
		Status:         row.Status,
		Category:       row.Category,
		CorrectAnswers: row.CorrectAnswers,
		ResponseTimeMs: row.ResponseTimeMs,
		CoinsEarned:    row.CoinsEarned,
		CompletedAt:    completedAt,
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	s.logger.InfoContext(ctx, "Game finished",
		attr.ExtractCorrelationID(ctx),
		attr.String("game_id", row.ID.String()),
		attr.String("status", row.Status),
		attr.Int("correct_answers", row.CorrectAnswers),
		attr.Int64("coins_earned", row.CoinsEarned),
	)
	return []pendingEvent{{
		topic: events.GameCompletedV1,
		payload: events.GameCompletedPayloadV1{
			GameID:         row.ID.String(),
			UserUUID:       row.UserUUID.String(),
			Status:         row.Status,
			CorrectAnswers: row.CorrectAnswers,
			ResponseTimeMs: row.ResponseTimeMs,
			CoinsEarned:    row.CoinsEarned,
			Category:       row.Category,
			CompletedAt:    completedAt,
		},
	}}, nil
}

func (s *GameService) viewWithQuestion(ctx context.Context, db bun.IDB, row *gamedb.Game) (*GameView, error) {
	if gamedomain.Status(row.Status).IsFinished() {
		return s.buildView(row, nil), nil
	}
	question, err := s.repo.GetQuestion(ctx, db, row.QuestionIDs[row.CurrentIndex])
	if err != nil {
		return nil, err
	}
	return s.buildView(row, question), nil
}

// buildView renders row. question is the current question, or nil once the
// game is over.
func (s *GameService) buildView(row *gamedb.Game, question *gamedb.Question) *GameView {
	view := &GameView{
		ID:             row.ID,
		Status:         gamedomain.Status(row.Status),
		Category:       row.Category,
		TotalQuestions: len(row.QuestionIDs),
		CurrentIndex:   row.CurrentIndex,
		CorrectAnswers: row.CorrectAnswers,
		CoinsEarned:    row.CoinsEarned,
		ResponseTimeMs: row.ResponseTimeMs,
		StartedAt:      row.StartedAt,
		FinishedAt:     row.FinishedAt,
	}
	if question != nil && !view.Status.IsFinished() {
		view.CurrentQuestion = &QuestionView{
			Index:       row.CurrentIndex,
			Category:    question.Category,
			Prompt:      question.Prompt,
			Options:     question.Options(),
			Reward:      gamedomain.Reward(row.CurrentIndex + 1),
			TimeLimitMs: s.cfg.AnswerTimeLimit.Milliseconds(),
			Deadline:    row.QuestionStartedAt.Add(s.cfg.AnswerTimeLimit),
		}
	}
	return view
}

func toDomain(row *gamedb.Game) *gamedomain.Game {
	return &gamedomain.Game{
		ID:                row.ID,
		UserUUID:          row.UserUUID,
		Category:          row.Category,
		QuestionIDs:       row.QuestionIDs,
		CurrentIndex:      row.CurrentIndex,
		CorrectAnswers:    row.CorrectAnswers,
		CoinsEarned:       row.CoinsEarned,
		ResponseTimeMs:    row.ResponseTimeMs,
		Status:            gamedomain.Status(row.Status),
		StartedAt:         row.StartedAt,
		QuestionStartedAt: row.QuestionStartedAt,
		FinishedAt:        row.FinishedAt,
	}
}

func fromDomain(row *gamedb.Game, g *gamedomain.Game) {
	row.CurrentIndex = g.CurrentIndex
	row.CorrectAnswers = g.CorrectAnswers
	row.CoinsEarned = g.CoinsEarned
	row.ResponseTimeMs = g.ResponseTimeMs
	row.Status = string(g.Status)
	row.QuestionStartedAt = g.QuestionStartedAt
	row.FinishedAt = g.FinishedAt
}
