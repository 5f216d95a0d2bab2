package authdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for passkey persistence.
type Repository interface {
	PutSession(ctx context.Context, db bun.IDB, session *PasskeySession) error
	GetSession(ctx context.Context, db bun.IDB, id string) (*PasskeySession, error)
	DeleteSession(ctx context.Context, db bun.IDB, id string) error
	// DeleteExpiredSessions removes sessions that expired before now.
	DeleteExpiredSessions(ctx context.Context, db bun.IDB, now time.Time) (int, error)

	GetCredential(ctx context.Context, db bun.IDB, credentialID string) (*PasskeyCredential, error)
	ListCredentials(ctx context.Context, db bun.IDB, userUUID uuid.UUID) ([]PasskeyCredential, error)
	// UpsertCredential inserts or replaces the stored credential JSON.
	UpsertCredential(ctx context.Context, db bun.IDB, credential *PasskeyCredential) error
}
