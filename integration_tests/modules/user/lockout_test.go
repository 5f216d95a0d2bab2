package userintegrationtests

import (
	"sync"
	"testing"
	"time"

	userservice "github.com/Black-And-White-Club/dingleup/app/modules/user/application"
	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/integration_tests/testutils"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newService(env *testutils.TestEnvironment) *userservice.UserService {
	return userservice.NewUserService(
		userdb.NewRepository(env.DB),
		env.Logger,
		observability.NewNoopMetrics(),
		noop.NewTracerProvider().Tracer("test"),
		env.DB,
		nil,
		clock.NewFakeClock(t0),
	)
}

// failConcurrently records n failed logins in parallel and returns how many
// of them reported a lock.
func failConcurrently(t *testing.T, svc *userservice.UserService, env *testutils.TestEnvironment, user *userdb.User, n int) int {
	t.Helper()
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		locked int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := svc.RecordFailedLogin(env.Ctx, user.UUID)
			mu.Lock()
			defer mu.Unlock()
			if assert.NoError(t, err) && state.LockedUntil != nil {
				locked++
			}
		}()
	}
	wg.Wait()
	return locked
}

func TestRecordFailedLoginCountsEveryConcurrentFailure(t *testing.T) {
	env := testutils.Env(t)
	gen := testutils.NewTestDataGenerator(51)
	user := gen.CreateUser(t, env.Ctx, env.DB, t0)
	svc := newService(env)

	locked := failConcurrently(t, svc, env, user, userdomain.MaxFailedAttempts-1)
	assert.Zero(t, locked)

	stored, err := userdb.NewRepository(env.DB).GetByUUID(env.Ctx, nil, user.UUID)
	require.NoError(t, err)
	assert.Equal(t, userdomain.MaxFailedAttempts-1, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestRecordFailedLoginLocksUnderConcurrentFailures(t *testing.T) {
	env := testutils.Env(t)
	gen := testutils.NewTestDataGenerator(52)
	user := gen.CreateUser(t, env.Ctx, env.DB, t0)
	svc := newService(env)

	locked := failConcurrently(t, svc, env, user, userdomain.MaxFailedAttempts)
	assert.Equal(t, 1, locked)

	stored, err := userdb.NewRepository(env.DB).GetByUUID(env.Ctx, nil, user.UUID)
	require.NoError(t, err)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.Equal(t0.Add(userdomain.LockDuration)))
	assert.Zero(t, stored.FailedAttempts)
}
