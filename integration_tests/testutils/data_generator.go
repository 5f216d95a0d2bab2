package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	gamedb "github.com/Black-And-White-Club/dingleup/app/modules/game/infrastructure/repositories"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	walletdb "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TestDataGenerator builds and stores seed rows with fake but stable values.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seq   int
}

// NewTestDataGenerator creates a generator. The same seed yields the same data.
func NewTestDataGenerator(seed uint64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// Username returns a unique name that fits the users.username column.
func (g *TestDataGenerator) Username() string {
	g.seq++
	base := g.faker.Username()
	if len(base) > 14 {
		base = base[:14]
	}
	return fmt.Sprintf("%s_%d", base, g.seq)
}

// Question returns an active question of category with option B correct.
func (g *TestDataGenerator) Question(category string) gamedb.Question {
	return gamedb.Question{
		Category:     category,
		Prompt:       g.faker.Question(),
		OptionA:      g.faker.Word(),
		OptionB:      g.faker.Word(),
		OptionC:      g.faker.Word(),
		OptionD:      g.faker.Word(),
		CorrectIndex: 1,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
}

// CreateUser stores a player created at createdAt.
func (g *TestDataGenerator) CreateUser(t *testing.T, ctx context.Context, db bun.IDB, createdAt time.Time) *userdb.User {
	t.Helper()
	user := &userdb.User{Username: g.Username(), Role: "player"}
	if err := userdb.NewRepository(db).CreateUser(ctx, db, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if _, err := db.NewUpdate().
		Model(user).
		Set("created_at = ?", createdAt).
		WherePK().
		Exec(ctx); err != nil {
		t.Fatalf("failed to backdate user: %v", err)
	}
	user.CreatedAt = createdAt
	return user
}

// FinishedGame describes a game_results row to seed.
type FinishedGame struct {
	Status         string
	CorrectAnswers int
	ResponseTimeMs int64
	CoinsEarned    int64
	CompletedAt    time.Time
}

// CreateFinishedGame stores a finished game and its result row for user.
func (g *TestDataGenerator) CreateFinishedGame(t *testing.T, ctx context.Context, db bun.IDB, userUUID uuid.UUID, fg FinishedGame) uuid.UUID {
	t.Helper()
	repo := gamedb.NewRepository(db)

	started := fg.CompletedAt.Add(-2 * time.Minute)
	game := &gamedb.Game{
		ID:                uuid.New(),
		UserUUID:          userUUID,
		QuestionIDs:       []int64{},
		CorrectAnswers:    fg.CorrectAnswers,
		CoinsEarned:       fg.CoinsEarned,
		ResponseTimeMs:    fg.ResponseTimeMs,
		Status:            fg.Status,
		StartedAt:         started,
		QuestionStartedAt: started,
		FinishedAt:        &fg.CompletedAt,
	}
	if err := repo.CreateGame(ctx, db, game); err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	if _, err := repo.InsertResult(ctx, db, &gamedb.GameResult{
		GameID:         game.ID,
		UserUUID:       userUUID,
		Status:         fg.Status,
		CorrectAnswers: fg.CorrectAnswers,
		ResponseTimeMs: fg.ResponseTimeMs,
		CoinsEarned:    fg.CoinsEarned,
		CompletedAt:    fg.CompletedAt,
	}); err != nil {
		t.Fatalf("failed to insert game result: %v", err)
	}
	return game.ID
}

// CreateWallet stores a wallet for user with the given balances.
func (g *TestDataGenerator) CreateWallet(t *testing.T, ctx context.Context, db bun.IDB, userUUID uuid.UUID, coins int64, lives int) {
	t.Helper()
	if _, err := walletdb.NewRepository(db).CreateWallet(ctx, db, &walletdb.Wallet{
		UserUUID:    userUUID,
		Coins:       coins,
		Lives:       lives,
		LastRegenAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
}

// CreateLedgerEntry stores a ledger row dated at.
func (g *TestDataGenerator) CreateLedgerEntry(t *testing.T, ctx context.Context, db bun.IDB, userUUID uuid.UUID, reason string, coinsDelta int64, at time.Time) {
	t.Helper()
	g.seq++
	if _, err := walletdb.NewRepository(db).InsertLedgerEntry(ctx, db, &walletdb.LedgerEntry{
		UserUUID:       userUUID,
		IdempotencyKey: fmt.Sprintf("seed-%d-%s", g.seq, g.faker.UUID()),
		CoinsDelta:     coinsDelta,
		Reason:         reason,
		CreatedAt:      at,
	}); err != nil {
		t.Fatalf("failed to insert ledger entry: %v", err)
	}
}
