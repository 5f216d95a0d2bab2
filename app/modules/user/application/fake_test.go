package userservice

import (
	"context"
	"strings"
	"sync"
	"time"

	userdb "github.com/Black-And-White-Club/dingleup/app/modules/user/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake User Repo
// ------------------------

// FakeUserRepo keeps users in memory unless a Func override is set.
type FakeUserRepo struct {
	trace []string
	users map[uuid.UUID]userdb.User

	CreateUserFunc      func(ctx context.Context, db bun.IDB, user *userdb.User) error
	UpdateLockStateFunc func(ctx context.Context, db bun.IDB, userUUID uuid.UUID, failedAttempts int, lockedUntil *time.Time) error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		trace: []string{},
		users: map[uuid.UUID]userdb.User{},
	}
}

func (f *FakeUserRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeUserRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeUserRepo) seed(u userdb.User) {
	f.users[u.UUID] = u
}

func (f *FakeUserRepo) CreateUser(ctx context.Context, db bun.IDB, user *userdb.User) error {
	f.record("CreateUser")
	if f.CreateUserFunc != nil {
		return f.CreateUserFunc(ctx, db, user)
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Username, user.Username) {
			return userdb.ErrUsernameTaken
		}
		if u.DeviceID != nil && user.DeviceID != nil && *u.DeviceID == *user.DeviceID {
			return userdb.ErrDeviceTaken
		}
	}
	f.users[user.UUID] = *user
	return nil
}

func (f *FakeUserRepo) find(match func(userdb.User) bool) (*userdb.User, error) {
	for _, u := range f.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, userdb.ErrNotFound
}

func (f *FakeUserRepo) GetByUUID(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*userdb.User, error) {
	f.record("GetByUUID")
	return f.find(func(u userdb.User) bool { return u.UUID == userUUID })
}

func (f *FakeUserRepo) GetByUUIDForUpdate(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*userdb.User, error) {
	f.record("GetByUUIDForUpdate")
	return f.find(func(u userdb.User) bool { return u.UUID == userUUID })
}

func (f *FakeUserRepo) GetByUsername(ctx context.Context, db bun.IDB, username string) (*userdb.User, error) {
	f.record("GetByUsername")
	return f.find(func(u userdb.User) bool { return strings.EqualFold(u.Username, username) })
}

func (f *FakeUserRepo) GetByDeviceID(ctx context.Context, db bun.IDB, deviceID string) (*userdb.User, error) {
	f.record("GetByDeviceID")
	return f.find(func(u userdb.User) bool { return u.DeviceID != nil && *u.DeviceID == deviceID })
}

func (f *FakeUserRepo) UpdateDisplayName(ctx context.Context, db bun.IDB, userUUID uuid.UUID, displayName string) error {
	f.record("UpdateDisplayName")
	u, ok := f.users[userUUID]
	if !ok {
		return userdb.ErrNotFound
	}
	u.DisplayName = &displayName
	f.users[userUUID] = u
	return nil
}

func (f *FakeUserRepo) UpdatePINHash(ctx context.Context, db bun.IDB, userUUID uuid.UUID, pinHash string) error {
	f.record("UpdatePINHash")
	u, ok := f.users[userUUID]
	if !ok {
		return userdb.ErrNotFound
	}
	u.PINHash = &pinHash
	f.users[userUUID] = u
	return nil
}

func (f *FakeUserRepo) UpdateLockState(ctx context.Context, db bun.IDB, userUUID uuid.UUID, failedAttempts int, lockedUntil *time.Time) error {
	f.record("UpdateLockState")
	if f.UpdateLockStateFunc != nil {
		return f.UpdateLockStateFunc(ctx, db, userUUID, failedAttempts, lockedUntil)
	}
	u, ok := f.users[userUUID]
	if !ok {
		return userdb.ErrNotFound
	}
	u.FailedAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	f.users[userUUID] = u
	return nil
}

var _ userdb.Repository = (*FakeUserRepo)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *FakePublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for range messages {
		p.topics = append(p.topics, topic)
	}
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

var _ message.Publisher = (*FakePublisher)(nil)
