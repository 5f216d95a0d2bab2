package userdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a player account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UUID           uuid.UUID  `bun:"uuid,pk,type:uuid,default:gen_random_uuid()" json:"uuid"`
	Username       string     `bun:"username,notnull,unique" json:"username"`
	PINHash        *string    `bun:"pin_hash" json:"-"`
	DeviceID       *string    `bun:"device_id,unique" json:"-"`
	DisplayName    *string    `bun:"display_name" json:"display_name,omitempty"`
	Role           string     `bun:"role,notnull,default:'player'" json:"role"`
	FailedAttempts int        `bun:"failed_attempts,notnull,default:0" json:"-"`
	LockedUntil    *time.Time `bun:"locked_until" json:"-"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
