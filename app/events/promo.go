package events

import "time"

const (
	PromoEligibleV1 = "promo.eligible.v1"
)

// PromoEligiblePayloadV1 tells a connected client it may show the promo.
type PromoEligiblePayloadV1 struct {
	UserUUID    string    `json:"user_uuid"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
