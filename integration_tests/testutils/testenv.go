// Package testutils starts the containers shared by the integration tests and
// seeds the tables they read.
package testutils

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
	"testing"

	"github.com/Black-And-White-Club/dingleup/app"
	"github.com/Black-And-White-Club/dingleup/integration_tests/containers"
	"github.com/Black-And-White-Club/dingleup/internal/db/bundb"
	"github.com/jackc/pgx/v5/pgxpool"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// TestEnvironment holds the resources shared by one test binary.
type TestEnvironment struct {
	Ctx         context.Context
	PgContainer *postgres.PostgresContainer
	DB          *bun.DB
	Pool        *pgxpool.Pool
	ConnStr     string
	Logger      *slog.Logger

	natsOnce      sync.Once
	natsContainer *tcnats.NATSContainer
	natsURL       string
	natsErr       error
}

var (
	envOnce sync.Once
	env     *TestEnvironment
	envErr  error
)

// Run executes the tests of a package and tears the shared environment down
// afterwards. Call it from TestMain.
func Run(m *testing.M) int {
	code := m.Run()
	if env != nil {
		env.Cleanup()
	}
	return code
}

// Env returns the shared environment with every table emptied. Containers
// start on first use. Integration tests are skipped in -short mode.
func Env(t *testing.T) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	envOnce.Do(func() {
		env, envErr = newTestEnvironment(context.Background())
	})
	if envErr != nil {
		t.Fatalf("failed to set up test environment: %v", envErr)
	}
	if err := env.Reset(env.Ctx); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
	return env
}

func newTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	pgContainer, connStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	e := &TestEnvironment{
		Ctx:         ctx,
		PgContainer: pgContainer,
		ConnStr:     connStr,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	e.DB, err = bundb.Open(ctx, connStr)
	if err != nil {
		e.Cleanup()
		return nil, err
	}
	e.Pool, err = bundb.OpenPool(ctx, connStr)
	if err != nil {
		e.Cleanup()
		return nil, err
	}

	if err := app.Migrate(ctx, e.DB, e.Pool, e.Logger); err != nil {
		e.Cleanup()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return e, nil
}

// NatsURL starts a JetStream-enabled NATS container on first call.
func (e *TestEnvironment) NatsURL(t *testing.T) string {
	t.Helper()
	e.natsOnce.Do(func() {
		e.natsContainer, e.natsURL, e.natsErr = containers.SetupNatsContainer(e.Ctx)
	})
	if e.natsErr != nil {
		t.Fatalf("failed to set up NATS: %v", e.natsErr)
	}
	return e.natsURL
}

// Reset empties every application table and the job queue.
func (e *TestEnvironment) Reset(ctx context.Context) error {
	return TruncateTables(ctx, e.DB, appTables...)
}

// Cleanup closes connections and terminates the containers.
func (e *TestEnvironment) Cleanup() {
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.DB != nil {
		if err := e.DB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
	if e.natsContainer != nil {
		if err := e.natsContainer.Terminate(e.Ctx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if e.PgContainer != nil {
		if err := e.PgContainer.Terminate(e.Ctx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
}
