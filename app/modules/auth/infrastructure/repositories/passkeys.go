package authdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a session or credential is not found.
var ErrNotFound = errors.New("not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new passkey repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) PutSession(ctx context.Context, db bun.IDB, session *PasskeySession) error {
	db = r.resolveDB(db)
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := db.NewInsert().
		Model(session).
		On("CONFLICT (id) DO UPDATE").
		Set("kind = EXCLUDED.kind").
		Set("user_uuid = EXCLUDED.user_uuid").
		Set("session_json = EXCLUDED.session_json").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store passkey session: %w", err)
	}
	return nil
}

func (r *Impl) GetSession(ctx context.Context, db bun.IDB, id string) (*PasskeySession, error) {
	db = r.resolveDB(db)
	session := new(PasskeySession)
	err := db.NewSelect().Model(session).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get passkey session: %w", err)
	}
	return session, nil
}

func (r *Impl) DeleteSession(ctx context.Context, db bun.IDB, id string) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().Model((*PasskeySession)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete passkey session: %w", err)
	}
	return nil
}

func (r *Impl) DeleteExpiredSessions(ctx context.Context, db bun.IDB, now time.Time) (int, error) {
	db = r.resolveDB(db)
	res, err := db.NewDelete().Model((*PasskeySession)(nil)).Where("expires_at < ?", now).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired passkey sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (r *Impl) GetCredential(ctx context.Context, db bun.IDB, credentialID string) (*PasskeyCredential, error) {
	db = r.resolveDB(db)
	credential := new(PasskeyCredential)
	err := db.NewSelect().Model(credential).Where("credential_id = ?", credentialID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get passkey credential: %w", err)
	}
	return credential, nil
}

func (r *Impl) ListCredentials(ctx context.Context, db bun.IDB, userUUID uuid.UUID) ([]PasskeyCredential, error) {
	db = r.resolveDB(db)
	var credentials []PasskeyCredential
	err := db.NewSelect().
		Model(&credentials).
		Where("user_uuid = ?", userUUID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list passkey credentials: %w", err)
	}
	return credentials, nil
}

func (r *Impl) UpsertCredential(ctx context.Context, db bun.IDB, credential *PasskeyCredential) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(credential).
		On("CONFLICT (credential_id) DO UPDATE").
		Set("credential_json = EXCLUDED.credential_json").
		Set("updated_at = EXCLUDED.updated_at").
		Set("last_used_at = EXCLUDED.last_used_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store passkey credential: %w", err)
	}
	return nil
}
