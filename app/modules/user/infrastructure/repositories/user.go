package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when a user is not found.
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrDeviceTaken   = errors.New("device already registered")
)

const uniqueViolation = "23505"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new user repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateUser(ctx context.Context, db bun.IDB, user *User) error {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if user.UUID == uuid.Nil {
		user.UUID = uuid.New()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	if _, err := db.NewInsert().Model(user).Exec(ctx); err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if strings.Contains(constraint, "device") {
				return ErrDeviceTaken
			}
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Impl) GetByUUID(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*User, error) {
	return r.getOne(ctx, db, "uuid = ?", userUUID)
}

// GetByUsername matches case-insensitively.
func (r *Impl) GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error) {
	return r.getOne(ctx, db, "lower(username) = lower(?)", username)
}

func (r *Impl) GetByDeviceID(ctx context.Context, db bun.IDB, deviceID string) (*User, error) {
	return r.getOne(ctx, db, "device_id = ?", deviceID)
}

func (r *Impl) GetByUUIDForUpdate(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	err := db.NewSelect().
		Model(user).
		Where("uuid = ?", userUUID).
		For("UPDATE").
		Scan(ctx)
	return scanned(user, err)
}

func (r *Impl) getOne(ctx context.Context, db bun.IDB, where string, arg any) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	err := db.NewSelect().
		Model(user).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	return scanned(user, err)
}

func scanned(user *User, err error) (*User, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *Impl) UpdateDisplayName(ctx context.Context, db bun.IDB, userUUID uuid.UUID, displayName string) error {
	return r.update(ctx, db, userUUID, "display_name = ?", displayName)
}

func (r *Impl) UpdatePINHash(ctx context.Context, db bun.IDB, userUUID uuid.UUID, pinHash string) error {
	return r.update(ctx, db, userUUID, "pin_hash = ?", pinHash)
}

func (r *Impl) UpdateLockState(ctx context.Context, db bun.IDB, userUUID uuid.UUID, failedAttempts int, lockedUntil *time.Time) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*User)(nil)).
		Set("failed_attempts = ?", failedAttempts).
		Set("locked_until = ?", lockedUntil).
		Set("updated_at = ?", time.Now().UTC()).
		Where("uuid = ?", userUUID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update lock state: %w", err)
	}
	return checkAffected(res)
}

func (r *Impl) update(ctx context.Context, db bun.IDB, userUUID uuid.UUID, set string, value any) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*User)(nil)).
		Set(set, value).
		Set("updated_at = ?", time.Now().UTC()).
		Where("uuid = ?", userUUID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// uniqueConstraint extracts the violated constraint name from either driver.
func uniqueConstraint(err error) (string, bool) {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
		return pgErr.Field('n'), true
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == uniqueViolation {
		return pgxErr.ConstraintName, true
	}
	return "", false
}
