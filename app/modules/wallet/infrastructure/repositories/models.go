package walletdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Wallet holds a user's coins, lives and active booster.
type Wallet struct {
	bun.BaseModel `bun:"table:wallets,alias:w"`

	UserUUID           uuid.UUID  `bun:"user_uuid,pk,type:uuid" json:"user_uuid"`
	Coins              int64      `bun:"coins,notnull,default:0" json:"coins"`
	Lives              int        `bun:"lives,notnull,default:0" json:"lives"`
	LastRegenAt        time.Time  `bun:"last_regen_at,notnull" json:"last_regen_at"`
	BoosterType        *string    `bun:"booster_type" json:"booster_type,omitempty"`
	BoosterActivatedAt *time.Time `bun:"booster_activated_at" json:"booster_activated_at,omitempty"`
	BoosterExpiresAt   *time.Time `bun:"booster_expires_at" json:"booster_expires_at,omitempty"`
	CreatedAt          time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// LedgerEntry records one idempotent balance change.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:wallet_ledger,alias:wl"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	UserUUID       uuid.UUID `bun:"user_uuid,notnull,type:uuid" json:"user_uuid"`
	IdempotencyKey string    `bun:"idempotency_key,notnull,unique" json:"idempotency_key"`
	CoinsDelta     int64     `bun:"coins_delta,notnull" json:"coins_delta"`
	LivesDelta     int       `bun:"lives_delta,notnull" json:"lives_delta"`
	Reason         string    `bun:"reason,notnull" json:"reason"`
	CoinsAfter     int64     `bun:"coins_after,notnull" json:"coins_after"`
	LivesAfter     int       `bun:"lives_after,notnull" json:"lives_after"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
