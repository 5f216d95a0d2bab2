package promodb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impression records one popup shown to a user.
type Impression struct {
	bun.BaseModel `bun:"table:promo_impressions,alias:pi"`

	ID       int64     `bun:"id,pk,autoincrement" json:"id"`
	UserUUID uuid.UUID `bun:"user_uuid,notnull,type:uuid" json:"user_uuid"`
	ShownAt  time.Time `bun:"shown_at,notnull" json:"shown_at"`
}
