package walletdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for wallet persistence.
type Repository interface {
	// GetWallet retrieves a wallet by user UUID.
	GetWallet(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*Wallet, error)

	// GetWalletForUpdate retrieves a wallet and locks the row for the transaction.
	GetWalletForUpdate(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*Wallet, error)

	// CreateWallet inserts a wallet unless one already exists. It reports
	// whether a row was inserted.
	CreateWallet(ctx context.Context, db bun.IDB, wallet *Wallet) (bool, error)

	// UpdateWallet persists balances, the regen clock and booster columns.
	UpdateWallet(ctx context.Context, db bun.IDB, wallet *Wallet) error

	// InsertLedgerEntry stores entry unless its idempotency key was already
	// used. It reports whether a row was inserted.
	InsertLedgerEntry(ctx context.Context, db bun.IDB, entry *LedgerEntry) (bool, error)

	// LedgerEntryExists reports whether an idempotency key was already used.
	LedgerEntryExists(ctx context.Context, db bun.IDB, idempotencyKey string) (bool, error)

	// ListExpiredBoosters returns wallets whose booster expired before now.
	ListExpiredBoosters(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]Wallet, error)
}
