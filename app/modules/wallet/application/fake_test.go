package walletservice

import (
	"context"
	"sync"
	"time"

	walletdb "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Wallet Repo
// ------------------------

// FakeWalletRepo keeps wallets in memory unless a Func override is set.
type FakeWalletRepo struct {
	trace []string

	wallets map[uuid.UUID]walletdb.Wallet
	ledger  map[string]walletdb.LedgerEntry

	GetWalletFunc           func(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*walletdb.Wallet, error)
	UpdateWalletFunc        func(ctx context.Context, db bun.IDB, wallet *walletdb.Wallet) error
	ListExpiredBoostersFunc func(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]walletdb.Wallet, error)
}

func NewFakeWalletRepo() *FakeWalletRepo {
	return &FakeWalletRepo{
		trace:   []string{},
		wallets: map[uuid.UUID]walletdb.Wallet{},
		ledger:  map[string]walletdb.LedgerEntry{},
	}
}

func (f *FakeWalletRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeWalletRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeWalletRepo) seed(w walletdb.Wallet) {
	f.wallets[w.UserUUID] = w
}

func (f *FakeWalletRepo) GetWallet(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*walletdb.Wallet, error) {
	f.record("GetWallet")
	if f.GetWalletFunc != nil {
		return f.GetWalletFunc(ctx, db, userUUID)
	}
	w, ok := f.wallets[userUUID]
	if !ok {
		return nil, walletdb.ErrNotFound
	}
	return &w, nil
}

func (f *FakeWalletRepo) GetWalletForUpdate(ctx context.Context, db bun.IDB, userUUID uuid.UUID) (*walletdb.Wallet, error) {
	f.record("GetWalletForUpdate")
	if f.GetWalletFunc != nil {
		return f.GetWalletFunc(ctx, db, userUUID)
	}
	w, ok := f.wallets[userUUID]
	if !ok {
		return nil, walletdb.ErrNotFound
	}
	return &w, nil
}

func (f *FakeWalletRepo) CreateWallet(_ context.Context, _ bun.IDB, wallet *walletdb.Wallet) (bool, error) {
	f.record("CreateWallet")
	if _, ok := f.wallets[wallet.UserUUID]; ok {
		return false, nil
	}
	f.wallets[wallet.UserUUID] = *wallet
	return true, nil
}

func (f *FakeWalletRepo) UpdateWallet(ctx context.Context, db bun.IDB, wallet *walletdb.Wallet) error {
	f.record("UpdateWallet")
	if f.UpdateWalletFunc != nil {
		return f.UpdateWalletFunc(ctx, db, wallet)
	}
	if _, ok := f.wallets[wallet.UserUUID]; !ok {
		return walletdb.ErrNotFound
	}
	f.wallets[wallet.UserUUID] = *wallet
	return nil
}

func (f *FakeWalletRepo) InsertLedgerEntry(_ context.Context, _ bun.IDB, entry *walletdb.LedgerEntry) (bool, error) {
	f.record("InsertLedgerEntry")
	if _, ok := f.ledger[entry.IdempotencyKey]; ok {
		return false, nil
	}
	f.ledger[entry.IdempotencyKey] = *entry
	return true, nil
}

func (f *FakeWalletRepo) LedgerEntryExists(_ context.Context, _ bun.IDB, key string) (bool, error) {
	f.record("LedgerEntryExists")
	_, ok := f.ledger[key]
	return ok, nil
}

func (f *FakeWalletRepo) ListExpiredBoosters(ctx context.Context, db bun.IDB, now time.Time, limit int) ([]walletdb.Wallet, error) {
	f.record("ListExpiredBoosters")
	if f.ListExpiredBoostersFunc != nil {
		return f.ListExpiredBoostersFunc(ctx, db, now, limit)
	}
	var out []walletdb.Wallet
	for _, w := range f.wallets {
		if w.BoosterExpiresAt != nil && !w.BoosterExpiresAt.After(now) {
			out = append(out, w)
		}
	}
	return out, nil
}

var _ walletdb.Repository = (*FakeWalletRepo)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for range msgs {
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

// ------------------------
// Fake Scheduler
// ------------------------

type FakeScheduler struct {
	scheduled map[uuid.UUID]time.Time
	err       error
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{scheduled: map[uuid.UUID]time.Time{}}
}

func (f *FakeScheduler) ScheduleBoosterExpiry(_ context.Context, userUUID uuid.UUID, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled[userUUID] = expiresAt
	return nil
}

var _ ExpiryScheduler = (*FakeScheduler)(nil)
