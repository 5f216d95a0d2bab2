package authdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasskeySession stores the WebAuthn ceremony state between begin and finish.
type PasskeySession struct {
	bun.BaseModel `bun:"table:passkey_sessions,alias:ps"`

	ID          string     `bun:"id,pk"`
	Kind        string     `bun:"kind,notnull"`
	UserUUID    *uuid.UUID `bun:"user_uuid,type:uuid"`
	SessionJSON string     `bun:"session_json,notnull"`
	ExpiresAt   time.Time  `bun:"expires_at,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

// PasskeyCredential is a registered WebAuthn credential.
type PasskeyCredential struct {
	bun.BaseModel `bun:"table:passkey_credentials,alias:pc"`

	CredentialID   string     `bun:"credential_id,pk"`
	UserUUID       uuid.UUID  `bun:"user_uuid,type:uuid,notnull"`
	CredentialJSON string     `bun:"credential_json,notnull"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	LastUsedAt     *time.Time `bun:"last_used_at"`
}
