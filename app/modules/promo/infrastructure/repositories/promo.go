package promodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new promo repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) ListShownSince(ctx context.Context, db bun.IDB, userUUID uuid.UUID, since time.Time) ([]time.Time, error) {
	db = r.resolveDB(db)
	var shown []time.Time
	err := db.NewSelect().
		Model((*Impression)(nil)).
		Column("shown_at").
		Where("user_uuid = ?", userUUID).
		Where("shown_at > ?", since).
		OrderExpr("shown_at ASC").
		Scan(ctx, &shown)
	if err != nil {
		return nil, fmt.Errorf("failed to list impressions: %w", err)
	}
	return shown, nil
}

func (r *Impl) InsertImpression(ctx context.Context, db bun.IDB, userUUID uuid.UUID, shownAt time.Time) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(&Impression{UserUUID: userUUID, ShownAt: shownAt}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert impression: %w", err)
	}
	return nil
}

func (r *Impl) LockUser(ctx context.Context, db bun.IDB, userUUID uuid.UUID) error {
	db = r.resolveDB(db)
	if _, err := db.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", "promo:"+userUUID.String()); err != nil {
		return fmt.Errorf("failed to lock promo user: %w", err)
	}
	return nil
}

func (r *Impl) DeleteBefore(ctx context.Context, db bun.IDB, before time.Time) (int, error) {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Impression)(nil)).
		Where("shown_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune impressions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned rows: %w", err)
	}
	return int(n), nil
}
