package leaderboardservice

import (
	"context"
	"errors"
	"time"

	"github.com/Black-And-White-Club/dingleup/app/events"
	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	leaderboarddb "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/eventbus"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/Black-And-White-Club/dingleup/internal/results"
	"github.com/google/uuid"
)

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, period leaderboarddomain.Period, key string, userUUID uuid.UUID) (*BoardView, error) {
	return unwrap(withTelemetry(s, ctx, "GetLeaderboard", string(period)+":"+key, func(ctx context.Context) (results.OperationResult[*BoardView, error], error) {
		if key == "" {
			key = leaderboarddomain.Key(period, s.clock.Now())
		}
		window, err := leaderboarddomain.ParseKey(period, key)
		if err != nil {
			return results.FailureResult[*BoardView, error](err), nil
		}

		board, err := s.board(ctx, period, key, window)
		if err != nil {
			return results.OperationResult[*BoardView, error]{}, err
		}

		view := &BoardView{Board: *board}
		if userUUID != uuid.Nil {
			if e, ok := board.Find(userUUID); ok {
				view.Me = &e
			} else {
				row, err := s.repo.UserStanding(ctx, nil, window, userUUID)
				switch {
				case err == nil:
					e := toEntry(*row)
					view.Me = &e
				case !errors.Is(err, leaderboarddb.ErrNotFound):
					return results.OperationResult[*BoardView, error]{}, err
				}
			}
		}
		return results.SuccessResult[*BoardView, error](view), nil
	}))
}

// board reads through the cache. Cache failures degrade to a direct query.
func (s *LeaderboardService) board(ctx context.Context, period leaderboarddomain.Period, key string, window leaderboarddomain.Window) (*leaderboarddomain.Board, error) {
	cacheKey := leaderboarddomain.CacheKey(period, key)
	cached, ok, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache read failed", attr.String("key", cacheKey), attr.Error(err))
	}
	if ok {
		return cached, nil
	}

	rows, err := s.repo.TopStandings(ctx, nil, window, s.cfg.TopN)
	if err != nil {
		return nil, err
	}
	entries := make([]leaderboarddomain.Entry, len(rows))
	for i, row := range rows {
		entries[i] = toEntry(row)
	}
	board := &leaderboarddomain.Board{
		Period:      period,
		Key:         key,
		Entries:     leaderboarddomain.Rank(entries),
		GeneratedAt: s.clock.Now(),
	}

	if err := s.cache.Set(ctx, cacheKey, board, s.cfg.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Leaderboard cache write failed", attr.String("key", cacheKey), attr.Error(err))
	}
	return board, nil
}

func (s *LeaderboardService) Invalidate(ctx context.Context, at time.Time) error {
	_, err := withTelemetry(s, ctx, "Invalidate", at.UTC().Format(time.RFC3339), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		keys := make([]string, 0, len(leaderboarddomain.Periods))
		payload := events.LeaderboardInvalidatedPayloadV1{}
		for _, p := range leaderboarddomain.Periods {
			k := leaderboarddomain.Key(p, at)
			keys = append(keys, leaderboarddomain.CacheKey(p, k))
			payload.Keys = append(payload.Keys, events.LeaderboardKeyV1{Period: string(p), PeriodKey: k})
		}

		if err := s.cache.Delete(ctx, keys...); err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		if err := eventbus.PublishJSON(ctx, s.publisher, events.LeaderboardInvalidatedV1, payload); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish leaderboard invalidation", attr.Error(err))
		}
		return results.SuccessResult[bool, error](true), nil
	})
	return err
}

func (s *LeaderboardService) Evict(ctx context.Context, cacheKeys ...string) error {
	_, err := withTelemetry(s, ctx, "Evict", "", func(ctx context.Context) (results.OperationResult[bool, error], error) {
		if len(cacheKeys) == 0 {
			return results.SuccessResult[bool, error](false), nil
		}
		if err := s.cache.Delete(ctx, cacheKeys...); err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		return results.SuccessResult[bool, error](true), nil
	})
	return err
}

func (s *LeaderboardService) Snapshot(ctx context.Context, day time.Time) (int, error) {
	return unwrap(withTelemetry(s, ctx, "Snapshot", leaderboarddomain.Key(leaderboarddomain.PeriodDaily, day), func(ctx context.Context) (results.OperationResult[int, error], error) {
		periods := []leaderboarddomain.Period{leaderboarddomain.PeriodDaily}
		if day.UTC().Weekday() == time.Sunday {
			periods = append(periods, leaderboarddomain.PeriodWeekly)
		}

		total := 0
		for _, p := range periods {
			key := leaderboarddomain.Key(p, day)
			rows, err := s.repo.TopStandings(ctx, nil, leaderboarddomain.WindowFor(p, day), s.cfg.TopN)
			if err != nil {
				return results.OperationResult[int, error]{}, err
			}

			snapshot := make([]leaderboarddb.Snapshot, len(rows))
			for i, row := range rows {
				snapshot[i] = leaderboarddb.Snapshot{
					Period:         string(p),
					PeriodKey:      key,
					Rank:           row.Rank,
					UserUUID:       row.UserUUID,
					Username:       row.Username,
					CorrectAnswers: row.CorrectAnswers,
					ResponseTimeMs: row.ResponseTimeMs,
					GamesPlayed:    row.GamesPlayed,
					CreatedAt:      s.clock.Now(),
				}
			}
			n, err := s.repo.InsertSnapshot(ctx, nil, snapshot)
			if err != nil {
				return results.OperationResult[int, error]{}, err
			}
			total += n

			s.logger.InfoContext(ctx, "Leaderboard snapshot stored",
				attr.String("period", string(p)),
				attr.String("period_key", key),
				attr.Int("rows", n),
			)
		}
		return results.SuccessResult[int, error](total), nil
	}))
}

func (s *LeaderboardService) GetSnapshot(ctx context.Context, period leaderboarddomain.Period, key string) (*leaderboarddomain.Board, error) {
	return unwrap(withTelemetry(s, ctx, "GetSnapshot", string(period)+":"+key, func(ctx context.Context) (results.OperationResult[*leaderboarddomain.Board, error], error) {
		if _, err := leaderboarddomain.ParseKey(period, key); err != nil {
			return results.FailureResult[*leaderboarddomain.Board, error](err), nil
		}
		rows, err := s.repo.GetSnapshot(ctx, nil, string(period), key)
		if err != nil {
			return results.OperationResult[*leaderboarddomain.Board, error]{}, err
		}

		board := &leaderboarddomain.Board{Period: period, Key: key, Entries: make([]leaderboarddomain.Entry, len(rows))}
		for i, row := range rows {
			board.Entries[i] = leaderboarddomain.Entry{
				Rank:           row.Rank,
				UserUUID:       row.UserUUID,
				Username:       row.Username,
				CorrectAnswers: row.CorrectAnswers,
				ResponseTimeMs: row.ResponseTimeMs,
				GamesPlayed:    row.GamesPlayed,
			}
			if row.CreatedAt.After(board.GeneratedAt) {
				board.GeneratedAt = row.CreatedAt
			}
		}
		return results.SuccessResult[*leaderboarddomain.Board, error](board), nil
	}))
}

func toEntry(row leaderboarddb.Standing) leaderboarddomain.Entry {
	e := leaderboarddomain.Entry{
		Rank:           row.Rank,
		UserUUID:       row.UserUUID,
		Username:       row.Username,
		CorrectAnswers: row.CorrectAnswers,
		ResponseTimeMs: row.ResponseTimeMs,
		GamesPlayed:    row.GamesPlayed,
	}
	if row.DisplayName != nil {
		e.DisplayName = *row.DisplayName
	}
	return e
}
