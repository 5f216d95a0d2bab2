package gamedomain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultQuestionsPerGame = 15
	DefaultAnswerTimeLimit  = 10 * time.Second
	OptionCount             = 4
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
	StatusAbandoned  Status = "abandoned"
)

// IsFinished reports whether the game can no longer be answered.
func (s Status) IsFinished() bool {
	return s != StatusInProgress
}

var (
	ErrNotEnoughQuestions = errors.New("not enough questions in the bank")
	ErrGameNotFound       = errors.New("game not found")
	ErrGameFinished       = errors.New("game already finished")
	ErrWrongQuestion      = errors.New("answer does not target the current question")
	ErrInvalidChoice      = errors.New("choice must be between 0 and 3")
)

// Reward returns the coins earned for a correct answer at the 1-based position.
func Reward(position int) int64 {
	switch {
	case position <= 0:
		return 0
	case position <= 4:
		return 1
	case position <= 9:
		return 3
	case position <= 14:
		return 5
	default:
		return 55
	}
}

// Game is a single quiz session.
type Game struct {
	ID                uuid.UUID
	UserUUID          uuid.UUID
	Category          string
	QuestionIDs       []int64
	CurrentIndex      int
	CorrectAnswers    int
	CoinsEarned       int64
	ResponseTimeMs    int64
	Status            Status
	StartedAt         time.Time
	QuestionStartedAt time.Time
	FinishedAt        *time.Time
}

// AnswerOutcome describes what a single answer did to the game.
type AnswerOutcome struct {
	Correct      bool
	TimedOut     bool
	CorrectIndex int
	Earned       int64
	Finished     bool
}

// Answer applies a choice for the question at index. correctIndex is the
// stored answer of the current question. An answer after limit counts as a
// timeout. A wrong or late answer loses the game; the last correct answer
// wins it.
func (g *Game) Answer(now time.Time, index, choice, correctIndex int, limit time.Duration) (AnswerOutcome, error) {
	if g.Status.IsFinished() {
		return AnswerOutcome{}, ErrGameFinished
	}
	if index != g.CurrentIndex {
		return AnswerOutcome{}, ErrWrongQuestion
	}
	if choice < 0 || choice >= OptionCount {
		return AnswerOutcome{}, ErrInvalidChoice
	}

	out := AnswerOutcome{CorrectIndex: correctIndex}
	elapsed := now.Sub(g.QuestionStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	switch {
	case limit > 0 && elapsed > limit:
		out.TimedOut = true
		g.finish(now, StatusLost)
	case choice != correctIndex:
		g.finish(now, StatusLost)
	default:
		out.Correct = true
		g.CorrectAnswers++
		g.ResponseTimeMs += elapsed.Milliseconds()
		out.Earned = Reward(g.CurrentIndex + 1)
		g.CoinsEarned += out.Earned
		if g.CurrentIndex+1 >= len(g.QuestionIDs) {
			g.finish(now, StatusWon)
		} else {
			g.CurrentIndex++
			g.QuestionStartedAt = now
		}
	}
	out.Finished = g.Status.IsFinished()
	return out, nil
}

// Abandon ends the game, keeping what was earned.
func (g *Game) Abandon(now time.Time) error {
	if g.Status.IsFinished() {
		return ErrGameFinished
	}
	g.finish(now, StatusAbandoned)
	return nil
}

func (g *Game) finish(now time.Time, status Status) {
	g.Status = status
	g.FinishedAt = &now
}

// Expire loses an in-progress game whose current question has been open
// longer than limit. It reports whether the game changed.
func (g *Game) Expire(now time.Time, limit time.Duration) bool {
	if g.Status.IsFinished() || limit <= 0 {
		return false
	}
	if now.Sub(g.QuestionStartedAt) <= limit {
		return false
	}
	g.finish(now, StatusLost)
	return true
}
