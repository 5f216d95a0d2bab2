package gameservice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	gamedb "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/repositories"
	walletservice "github.com/Black-And-White-Club/dingleup/app/modules/wallet/application"
	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Game Repo
// ------------------------

// FakeGameRepo keeps the question bank and games in memory. RandomQuestions
// returns the first matching questions so tests stay deterministic.
type FakeGameRepo struct {
	trace []string

	questions []gamedb.Question
	games     map[uuid.UUID]gamedb.Game
	results   map[uuid.UUID]gamedb.GameResult

	CreateGameFunc func(ctx context.Context, db bun.IDB, game *gamedb.Game) error
}

func NewFakeGameRepo() *FakeGameRepo {
	return &FakeGameRepo{
		trace:   []string{},
		games:   map[uuid.UUID]gamedb.Game{},
		results: map[uuid.UUID]gamedb.GameResult{},
	}
}

func (f *FakeGameRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeGameRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// seedQuestions adds n active questions whose correct answer is index 0.
func (f *FakeGameRepo) seedQuestions(category string, n int) {
	for i := 0; i < n; i++ {
		id := int64(len(f.questions) + 1)
		f.questions = append(f.questions, gamedb.Question{
			ID:           id,
			Category:     category,
			Prompt:       fmt.Sprintf("question %d", id),
			OptionA:      "right",
			OptionB:      "wrong",
			OptionC:      "wrong",
			OptionD:      "wrong",
			CorrectIndex: 0,
			Active:       true,
		})
	}
}

func (f *FakeGameRepo) matching(category string) []gamedb.Question {
	var out []gamedb.Question
	for _, q := range f.questions {
		if q.Active && (category == "" || q.Category == category) {
			out = append(out, q)
		}
	}
	return out
}

func (f *FakeGameRepo) CountActiveQuestions(_ context.Context, _ bun.IDB, category string) (int, error) {
	f.record("CountActiveQuestions")
	return len(f.matching(category)), nil
}

func (f *FakeGameRepo) RandomQuestions(_ context.Context, _ bun.IDB, category string, n int) ([]gamedb.Question, error) {
	f.record("RandomQuestions")
	qs := f.matching(category)
	if len(qs) > n {
		qs = qs[:n]
	}
	return qs, nil
}

func (f *FakeGameRepo) GetQuestion(_ context.Context, _ bun.IDB, id int64) (*gamedb.Question, error) {
	f.record("GetQuestion")
	for _, q := range f.questions {
		if q.ID == id {
			q := q
			return &q, nil
		}
	}
	return nil, gamedb.ErrQuestionNotFound
}

func (f *FakeGameRepo) InsertQuestions(_ context.Context, _ bun.IDB, questions []gamedb.Question) (int, error) {
	f.record("InsertQuestions")
	for _, q := range questions {
		q.ID = int64(len(f.questions) + 1)
		f.questions = append(f.questions, q)
	}
	return len(questions), nil
}

func (f *FakeGameRepo) ListCategories(_ context.Context, _ bun.IDB) ([]string, error) {
	f.record("ListCategories")
	seen := map[string]bool{}
	var out []string
	for _, q := range f.questions {
		if q.Active && !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	return out, nil
}

func (f *FakeGameRepo) CreateGame(ctx context.Context, db bun.IDB, game *gamedb.Game) error {
	f.record("CreateGame")
	if f.CreateGameFunc != nil {
		return f.CreateGameFunc(ctx, db, game)
	}
	f.games[game.ID] = *game
	return nil
}

func (f *FakeGameRepo) GetGameForUpdate(_ context.Context, _ bun.IDB, id uuid.UUID) (*gamedb.Game, error) {
	f.record("GetGameForUpdate")
	g, ok := f.games[id]
	if !ok {
		return nil, gamedb.ErrGameNotFound
	}
	g.QuestionIDs = append([]int64(nil), g.QuestionIDs...)
	return &g, nil
}

func (f *FakeGameRepo) UpdateGame(_ context.Context, _ bun.IDB, game *gamedb.Game) error {
	f.record("UpdateGame")
	if _, ok := f.games[game.ID]; !ok {
		return gamedb.ErrGameNotFound
	}
	f.games[game.ID] = *game
	return nil
}

func (f *FakeGameRepo) InsertResult(_ context.Context, _ bun.IDB, result *gamedb.GameResult) (bool, error) {
	f.record("InsertResult")
	if _, ok := f.results[result.GameID]; ok {
		return false, nil
	}
	f.results[result.GameID] = *result
	return true, nil
}

var _ gamedb.Repository = (*FakeGameRepo)(nil)

// ------------------------
// Fake Wallet
// ------------------------

type FakeWallet struct {
	lives   map[uuid.UUID]int
	keys    map[string]bool
	credits []walletservice.LedgerRequest

	ConsumeLifeErr error
}

func NewFakeWallet() *FakeWallet {
	return &FakeWallet{lives: map[uuid.UUID]int{}, keys: map[string]bool{}}
}

func (f *FakeWallet) ConsumeLife(_ context.Context, userUUID uuid.UUID, _ string, key string) (*walletservice.WalletView, error) {
	if f.ConsumeLifeErr != nil {
		return nil, f.ConsumeLifeErr
	}
	if !f.keys[key] {
		if f.lives[userUUID] <= 0 {
			return nil, walletdomain.ErrNoLives
		}
		f.keys[key] = true
		f.lives[userUUID]--
	}
	return &walletservice.WalletView{UserUUID: userUUID, Lives: f.lives[userUUID]}, nil
}

func (f *FakeWallet) Credit(_ context.Context, req walletservice.LedgerRequest) (*walletservice.WalletView, error) {
	if !f.keys[req.IdempotencyKey] {
		f.keys[req.IdempotencyKey] = true
		f.lives[req.UserUUID] += req.Lives
		f.credits = append(f.credits, req)
	}
	return &walletservice.WalletView{UserUUID: req.UserUUID, Lives: f.lives[req.UserUUID]}, nil
}

var _ Wallet = (*FakeWallet)(nil)

// ------------------------
// Fake Publisher
// ------------------------

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

// Decode unmarshals the i-th published payload into v.
func (p *FakePublisher) Decode(i int, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.Unmarshal(p.payloads[i], v)
}
