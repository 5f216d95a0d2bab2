package promoservice

import (
	"context"

	promodomain "github.com/Black-And-White-Club/dingleup/app/modules/promo/domain"
	"github.com/google/uuid"
)

// Service decides when a client may show the promo popup.
type Service interface {
	Evaluate(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (*promodomain.Decision, error)

	// RecordShown stores an impression. It fails with ErrNotEligible when the
	// popup was not allowed at this moment.
	RecordShown(ctx context.Context, userUUID uuid.UUID, tzOffsetMinutes int) (*promodomain.Decision, error)

	// CheckOnline evaluates connected users and announces those who just
	// became eligible. It returns how many were announced.
	CheckOnline(ctx context.Context, users []OnlineUser) (int, error)

	// Prune drops impressions that can no longer affect a decision.
	Prune(ctx context.Context) (int, error)
}

// OnlineUser is a connected client and its UTC offset.
type OnlineUser struct {
	UserUUID        uuid.UUID
	TZOffsetMinutes int
}
