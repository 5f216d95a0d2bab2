package leaderboardservice

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	leaderboarddb "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type fakeResult struct {
	user        uuid.UUID
	username    string
	correct     int64
	responseMs  int64
	completedAt time.Time
}

// FakeLeaderboardRepo aggregates in-memory game results the way the SQL
// query does.
type FakeLeaderboardRepo struct {
	trace []string

	results   []fakeResult
	snapshots []leaderboarddb.Snapshot
}

func NewFakeLeaderboardRepo() *FakeLeaderboardRepo {
	return &FakeLeaderboardRepo{trace: []string{}}
}

func (f *FakeLeaderboardRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeLeaderboardRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLeaderboardRepo) add(user uuid.UUID, username string, correct, responseMs int64, at time.Time) {
	f.results = append(f.results, fakeResult{user, username, correct, responseMs, at})
}

func (f *FakeLeaderboardRepo) ranked(window leaderboarddomain.Window) []leaderboarddb.Standing {
	byUser := map[uuid.UUID]*leaderboarddomain.Entry{}
	var order []uuid.UUID
	for _, r := range f.results {
		if window.Bounded() && (r.completedAt.Before(*window.Start) || !r.completedAt.Before(*window.End)) {
			continue
		}
		e, ok := byUser[r.user]
		if !ok {
			e = &leaderboarddomain.Entry{UserUUID: r.user, Username: r.username}
			byUser[r.user] = e
			order = append(order, r.user)
		}
		e.CorrectAnswers += r.correct
		e.ResponseTimeMs += r.responseMs
		e.GamesPlayed++
	}
	entries := make([]leaderboarddomain.Entry, 0, len(order))
	for _, u := range order {
		entries = append(entries, *byUser[u])
	}
	entries = leaderboarddomain.Rank(entries)

	out := make([]leaderboarddb.Standing, len(entries))
	for i, e := range entries {
		out[i] = leaderboarddb.Standing{
			Rank:           e.Rank,
			UserUUID:       e.UserUUID,
			Username:       e.Username,
			CorrectAnswers: e.CorrectAnswers,
			ResponseTimeMs: e.ResponseTimeMs,
			GamesPlayed:    e.GamesPlayed,
		}
	}
	return out
}

func (f *FakeLeaderboardRepo) TopStandings(_ context.Context, _ bun.IDB, window leaderboarddomain.Window, limit int) ([]leaderboarddb.Standing, error) {
	f.record("TopStandings")
	rows := f.ranked(window)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *FakeLeaderboardRepo) UserStanding(_ context.Context, _ bun.IDB, window leaderboarddomain.Window, userUUID uuid.UUID) (*leaderboarddb.Standing, error) {
	f.record("UserStanding")
	for _, row := range f.ranked(window) {
		if row.UserUUID == userUUID {
			row := row
			return &row, nil
		}
	}
	return nil, leaderboarddb.ErrNotFound
}

func (f *FakeLeaderboardRepo) InsertSnapshot(_ context.Context, _ bun.IDB, rows []leaderboarddb.Snapshot) (int, error) {
	f.record("InsertSnapshot")
	n := 0
	for _, row := range rows {
		dup := false
		for _, existing := range f.snapshots {
			if existing.Period == row.Period && existing.PeriodKey == row.PeriodKey && existing.UserUUID == row.UserUUID {
				dup = true
				break
			}
		}
		if !dup {
			f.snapshots = append(f.snapshots, row)
			n++
		}
	}
	return n, nil
}

func (f *FakeLeaderboardRepo) GetSnapshot(_ context.Context, _ bun.IDB, period, periodKey string) ([]leaderboarddb.Snapshot, error) {
	f.record("GetSnapshot")
	var out []leaderboarddb.Snapshot
	for _, row := range f.snapshots {
		if row.Period == period && row.PeriodKey == periodKey {
			out = append(out, row)
		}
	}
	return out, nil
}

var _ leaderboarddb.Repository = (*FakeLeaderboardRepo)(nil)

type FakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, msg := range msgs {
		p.topics = append(p.topics, topic)
		p.payloads = append(p.payloads, msg.Payload)
	}
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func (p *FakePublisher) Decode(i int, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.Unmarshal(p.payloads[i], v)
}
