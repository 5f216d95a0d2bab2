package userservice

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/dingleup/app/events"
	userdomain "github.com/Black-And-White-Club/dingleup/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *FakeUserRepo, pub *FakePublisher, clk clock.Clock) *UserService {
	return NewUserService(
		repo,
		slog.Default(),
		observability.NewNoopMetrics(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
		pub,
		clk,
	)
}

func TestCreateUser(t *testing.T) {
	existing := userdb.User{UUID: uuid.New(), Username: "taken_name", Role: "player", DeviceID: ptr("device-1")}

	tests := []struct {
		name       string
		req        CreateUserRequest
		wantErr    error
		wantPrefix string
		wantTopics []string
	}{
		{
			name:       "registers named user",
			req:        CreateUserRequest{Username: "quiz_master", PINHash: "hash"},
			wantTopics: []string{events.UserCreatedV1},
		},
		{
			name:       "generates guest name",
			req:        CreateUserRequest{Guest: true, DeviceID: "device-2"},
			wantPrefix: "guest_",
			wantTopics: []string{events.UserCreatedV1},
		},
		{
			name:    "rejects invalid username",
			req:     CreateUserRequest{Username: "x!"},
			wantErr: userdomain.ErrInvalidUsername,
		},
		{
			name:    "username taken case insensitive",
			req:     CreateUserRequest{Username: "TAKEN_NAME"},
			wantErr: userdomain.ErrUsernameTaken,
		},
		{
			name:    "device already registered",
			req:     CreateUserRequest{Username: "fresh_name", DeviceID: "device-1"},
			wantErr: userdomain.ErrDeviceRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeUserRepo()
			repo.seed(existing)
			pub := &FakePublisher{}
			svc := newTestService(repo, pub, clock.NewFakeClock(t0))

			user, err := svc.CreateUser(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pub.Topics())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(userdomain.RolePlayer), user.Role)
			if tt.wantPrefix != "" {
				assert.Regexp(t, "^"+tt.wantPrefix+"[0-9a-f]{8}$", user.Username)
			}
			assert.Equal(t, tt.wantTopics, pub.Topics())
		})
	}
}

func TestCreateUser_GuestNameCollisionRetries(t *testing.T) {
	repo := NewFakeUserRepo()
	calls := 0
	repo.CreateUserFunc = func(_ context.Context, _ bun.IDB, user *userdb.User) error {
		calls++
		if calls < guestNameAttempts {
			return userdb.ErrUsernameTaken
		}
		return nil
	}
	svc := newTestService(repo, &FakePublisher{}, nil)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{Guest: true})
	require.NoError(t, err)
	assert.Equal(t, guestNameAttempts, calls)
}

func TestGetUser(t *testing.T) {
	repo := NewFakeUserRepo()
	u := userdb.User{UUID: uuid.New(), Username: gofakeit.Regex("[a-z]{10}"), DeviceID: ptr("dev-x")}
	repo.seed(u)
	svc := newTestService(repo, &FakePublisher{}, nil)
	ctx := context.Background()

	got, err := svc.GetUserByUUID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)

	got, err = svc.GetUserByDeviceID(ctx, "dev-x")
	require.NoError(t, err)
	assert.Equal(t, u.UUID, got.UUID)

	_, err = svc.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, userdb.ErrNotFound)
}

func TestUpdateDisplayName(t *testing.T) {
	repo := NewFakeUserRepo()
	u := userdb.User{UUID: uuid.New(), Username: "player_one"}
	repo.seed(u)
	svc := newTestService(repo, &FakePublisher{}, nil)

	got, err := svc.UpdateDisplayName(context.Background(), u.UUID, "  Player One ")
	require.NoError(t, err)
	require.NotNil(t, got.DisplayName)
	assert.Equal(t, "Player One", *got.DisplayName)

	_, err = svc.UpdateDisplayName(context.Background(), u.UUID, "   ")
	assert.ErrorIs(t, err, userdomain.ErrInvalidDisplayName)

	_, err = svc.UpdateDisplayName(context.Background(), uuid.New(), "Ghost")
	assert.ErrorIs(t, err, userdb.ErrNotFound)
}

func TestRecordFailedLogin_LocksAfterFiveAttempts(t *testing.T) {
	repo := NewFakeUserRepo()
	u := userdb.User{UUID: uuid.New(), Username: "locky"}
	repo.seed(u)
	clk := clock.NewFakeClock(t0)
	svc := newTestService(repo, &FakePublisher{}, clk)
	ctx := context.Background()

	var state userdomain.LockState
	var err error
	for i := 0; i < userdomain.MaxFailedAttempts; i++ {
		state, err = svc.RecordFailedLogin(ctx, u.UUID)
		require.NoError(t, err)
	}
	require.NotNil(t, state.LockedUntil)
	assert.Equal(t, t0.Add(userdomain.LockDuration), *state.LockedUntil)
	assert.True(t, state.IsLocked(t0.Add(time.Minute)))
	assert.Contains(t, repo.Trace(), "GetByUUIDForUpdate")
	assert.NotContains(t, repo.Trace(), "GetByUUID")

	require.NoError(t, svc.ResetFailedLogins(ctx, u.UUID))
	stored, _ := repo.GetByUUID(ctx, nil, u.UUID)
	assert.Zero(t, stored.FailedAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestRecordFailedLogin_RepoError(t *testing.T) {
	repo := NewFakeUserRepo()
	u := userdb.User{UUID: uuid.New(), Username: "broken"}
	repo.seed(u)
	repo.UpdateLockStateFunc = func(context.Context, bun.IDB, uuid.UUID, int, *time.Time) error {
		return errors.New("db down")
	}
	svc := newTestService(repo, &FakePublisher{}, nil)

	_, err := svc.RecordFailedLogin(context.Background(), u.UUID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RecordFailedLogin")
}

func ptr[T any](v T) *T { return &v }
