package events

import "time"

const (
	WalletUpdatedV1          = "wallet.updated.v1"
	WalletBoosterExpiredV1   = "wallet.booster_expired.v1"
	WalletBoosterActivatedV1 = "wallet.booster_activated.v1"
)

// WalletUpdatedPayloadV1 carries the balances after a mutation.
type WalletUpdatedPayloadV1 struct {
	UserUUID   string     `json:"user_uuid"`
	Coins      int64      `json:"coins"`
	Lives      int        `json:"lives"`
	ActiveCap  int        `json:"active_cap"`
	NextLifeAt *time.Time `json:"next_life_at,omitempty"`
	Reason     string     `json:"reason"`
}

// WalletBoosterPayloadV1 describes a booster activation or expiry.
type WalletBoosterPayloadV1 struct {
	UserUUID    string    `json:"user_uuid"`
	BoosterType string    `json:"booster_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
