package walletservice

import (
	"context"
	"time"

	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	"github.com/google/uuid"
)

// Service is the wallet application API.
type Service interface {
	EnsureWallet(ctx context.Context, userUUID uuid.UUID) (*WalletView, error)
	GetWallet(ctx context.Context, userUUID uuid.UUID) (*WalletView, error)
	Credit(ctx context.Context, req LedgerRequest) (*WalletView, error)
	Debit(ctx context.Context, req LedgerRequest) (*WalletView, error)
	ConsumeLife(ctx context.Context, userUUID uuid.UUID, reason, idempotencyKey string) (*WalletView, error)
	ActivateBooster(ctx context.Context, userUUID uuid.UUID, boosterType walletdomain.BoosterType) (*WalletView, error)
	ExpireBooster(ctx context.Context, userUUID uuid.UUID) (*WalletView, error)
	SweepExpiredBoosters(ctx context.Context) (int, error)
	ListBoosters() []walletdomain.BoosterSpec
}

// ExpiryScheduler schedules the booster expiry job.
type ExpiryScheduler interface {
	ScheduleBoosterExpiry(ctx context.Context, userUUID uuid.UUID, expiresAt time.Time) error
}

// LedgerRequest describes one idempotent balance change.
type LedgerRequest struct {
	UserUUID       uuid.UUID
	Coins          int64
	Lives          int
	Reason         string
	IdempotencyKey string
}

// WalletView is the wallet as returned to clients.
type WalletView struct {
	UserUUID             uuid.UUID    `json:"user_uuid"`
	Coins                int64        `json:"coins"`
	Lives                int          `json:"lives"`
	ActiveCap            int          `json:"active_cap"`
	RegenIntervalSeconds int64        `json:"regen_interval_seconds"`
	LastRegenAt          time.Time    `json:"last_regen_at"`
	NextLifeAt           *time.Time   `json:"next_life_at,omitempty"`
	Countdown            string       `json:"countdown,omitempty"`
	Booster              *BoosterView `json:"booster,omitempty"`
	ServerTime           time.Time    `json:"server_time"`
}

// BoosterView describes the running booster.
type BoosterView struct {
	Type       walletdomain.BoosterType `json:"type"`
	Multiplier int                      `json:"multiplier"`
	MaxLives   int                      `json:"max_lives"`
	ExpiresAt  time.Time                `json:"expires_at"`
}
