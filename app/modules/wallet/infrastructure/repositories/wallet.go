package walletdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a wallet is not found.
var ErrNotFound = errors.New("wallet not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new wallet repository.
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

func (r *Impl) GetWallet(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*Wallet, error) {
	db = r.resolveDB(db)
	wallet := new(Wallet)
	err := db.NewSelect().
		Model(wallet).
		Where("user_uuid = ?", userUUID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (r *Impl) GetWalletForUpdate(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*Wallet, error) {
	db = r.resolveDB(db)
	wallet := new(Wallet)
	err := db.NewSelect().
		Model(wallet).
		Where("user_uuid = ?", userUUID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return wallet, nil
}

func (r *Impl) CreateWallet(ctx context.Context, db bun.IDB, wallet *Wallet) (bool, error) {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = now
	}
	wallet.UpdatedAt = now
	res, err := db.NewInsert().
		Model(wallet).
		On("CONFLICT (user_uuid) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to create wallet: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *Impl) UpdateWallet(ctx context.Context, db bun.IDB, wallet *Wallet) error {
	db = r.resolveDB(db)
	wallet.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(wallet).
		Column("coins", "lives", "last_regen_at", "booster_type", "booster_activated_at", "booster_expires_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) InsertLedgerEntry(ctx context.Context, db bun.IDB, entry *LedgerEntry) (bool, error) {
	db = r.resolveDB(db)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := db.NewInsert().
		Model(entry).
		On("CONFLICT (idempotency_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *Impl) LedgerEntryExists(ctx context.Context, db bun.IDB, idempotencyKey string) (bool, error) {
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*LedgerEntry)(nil)).
		Where("idempotency_key = ?", idempotencyKey).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger entry: %w", err)
	}
	return exists, nil
}

func (r *Impl) ListExpiredBoosters(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]Wallet, error) {
	db = r.resolveDB(db)
	var wallets []Wallet
	err := db.NewSelect().
		Model(&wallets).
		Where("booster_expires_at IS NOT NULL").
		Where("booster_expires_at <= ?", now).
		OrderExpr("booster_expires_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired boosters: %w", err)
	}
	return wallets, nil
}
