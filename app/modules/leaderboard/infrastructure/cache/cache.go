// Package leaderboardcache stores rendered boards for a short time so hot
// boards are not re-aggregated on every request.
package leaderboardcache

import (
	"context"
	"sync"
	"time"

	leaderboarddomain "github.com/Black-And-White-Club/dingleup/app/modules/leaderboard/domain"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
)

// Cache is a TTL cache of boards.
type Cache interface {
	// Get reports a miss with ok=false and a nil error.
	Get(ctx context.Context, key string) (board *leaderboarddomain.Board, ok bool, err error)
	Set(ctx context.Context, key string, board *leaderboarddomain.Board, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

type memoryEntry struct {
	board     leaderboarddomain.Board
	expiresAt time.Time
}

// Memory is an in-process Cache for single-instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	clock   clock.Clock
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory cache.
func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Memory{clock: clk, entries: map[string]memoryEntry{}}
}

func (m *Memory) Get(_ context.Context, key string) (*leaderboarddomain.Board, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	board := e.board
	board.Entries = append([]leaderboarddomain.Entry(nil), e.board.Entries...)
	return &board, true, nil
}

func (m *Memory) Set(_ context.Context, key string, board *leaderboarddomain.Board, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *board
	stored.Entries = append([]leaderboarddomain.Entry(nil), board.Entries...)
	m.entries[key] = memoryEntry{board: stored, expiresAt: m.clock.Now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

var _ Cache = (*Memory)(nil)
