package promoservice

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/dingleup/app/events"
	promodomain "github.com/Black-And-White-Club/dingleup/app/modules/promo/domain"
	"github.com/Black-And-White-Club/dingleup/internal/clock"
	"github.com/Black-And-White-Club/dingleup/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// 09:00 UTC on a Monday, inside the morning window.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestService(repo *FakePromoRepo, pub *FakePublisher, clk *clock.FakeClock) Service {
	return NewService(
		repo,
		nil,
		pub,
		promodomain.DefaultPolicy(),
		clk,
		slog.Default(),
		observability.NewNoopMetrics(),
		noop.NewTracerProvider().Tracer("test"),
	)
}

func TestEvaluate(t *testing.T) {
	user := uuid.New()

	tests := []struct {
		name       string
		at         time.Time
		offset     int
		shown      []time.Time
		wantErr    error
		wantReason promodomain.Reason
	}{
		{name: "fresh user in window", at: t0, wantReason: promodomain.ReasonEligible},
		{name: "outside active hours", at: t0.Add(4 * time.Hour), wantReason: promodomain.ReasonOutsideActiveHours},
		{name: "local offset moves into window", at: t0.Add(4 * time.Hour), offset: 300, wantReason: promodomain.ReasonEligible},
		{name: "cooldown", at: t0, shown: []time.Time{t0.Add(-time.Hour)}, wantReason: promodomain.ReasonCooldown},
		{name: "invalid offset", at: t0, offset: 15 * 60, wantErr: promodomain.ErrInvalidOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakePromoRepo()
			repo.shown[user] = tt.shown
			svc := newTestService(repo, &FakePublisher{}, clock.NewFakeClock(tt.at))

			d, err := svc.Evaluate(context.Background(), user, tt.offset)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantReason == promodomain.ReasonEligible, d.Eligible)
		})
	}
}

func TestRecordShown(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	repo := NewFakePromoRepo()
	clk := clock.NewFakeClock(t0)
	svc := newTestService(repo, &FakePublisher{}, clk)

	d, err := svc.RecordShown(ctx, user, 0)
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, promodomain.ReasonCooldown, d.Reason)
	assert.Equal(t, 1, d.ShownToday)
	assert.Equal(t, t0.Add(promodomain.DefaultCooldown), d.NextCheck)
	assert.Equal(t, []string{"LockUser", "ListShownSince", "InsertImpression", "ListShownSince"}, repo.Trace())

	_, err = svc.RecordShown(ctx, user, 0)
	require.ErrorIs(t, err, promodomain.ErrNotEligible)
	assert.Contains(t, err.Error(), string(promodomain.ReasonCooldown))
	assert.Len(t, repo.shown[user], 1)

	clk.Advance(promodomain.DefaultCooldown)
	d, err = svc.RecordShown(ctx, user, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, d.ShownToday)
}

func TestCheckOnline(t *testing.T) {
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	repo := NewFakePromoRepo()
	pub := &FakePublisher{}
	clk := clock.NewFakeClock(t0)
	svc := newTestService(repo, pub, clk)

	// bob is in cooldown.
	repo.shown[bob] = []time.Time{t0.Add(-30 * time.Minute)}
	online := []OnlineUser{{UserUUID: alice}, {UserUUID: bob}}

	n, err := svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Equal(t, []string{events.PromoEligibleV1}, pub.Topics())

	var payload events.PromoEligiblePayloadV1
	require.NoError(t, pub.Decode(0, &payload))
	assert.Equal(t, alice.String(), payload.UserUUID)
	assert.True(t, payload.EvaluatedAt.Equal(t0))

	// Still eligible: no repeat announcement.
	clk.Advance(time.Minute)
	n, err = svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// bob leaves cooldown.
	clk.Set(t0.Add(90 * time.Minute))
	n, err = svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// alice reconnects after going offline and is announced again.
	_, err = svc.CheckOnline(ctx, []OnlineUser{{UserUUID: bob}})
	require.NoError(t, err)
	n, err = svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, pub.Topics(), 3)
}

func TestCheckOnlineAfterShown(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	repo := NewFakePromoRepo()
	pub := &FakePublisher{}
	clk := clock.NewFakeClock(t0)
	svc := newTestService(repo, pub, clk)
	online := []OnlineUser{{UserUUID: user}}

	n, err := svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = svc.RecordShown(ctx, user, 0)
	require.NoError(t, err)

	n, err = svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clk.Advance(promodomain.DefaultCooldown)
	n, err = svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCheckOnlinePublishFailureRetries(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	pub := &FakePublisher{Err: errBroker}
	svc := newTestService(NewFakePromoRepo(), pub, clock.NewFakeClock(t0))
	online := []OnlineUser{{UserUUID: user}}

	n, err := svc.CheckOnline(ctx, online)
	require.ErrorIs(t, err, errBroker)
	assert.Equal(t, 0, n)

	pub.Err = nil
	n, err = svc.CheckOnline(ctx, online)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPrune(t *testing.T) {
	user := uuid.New()
	repo := NewFakePromoRepo()
	repo.shown[user] = []time.Time{t0.Add(-72 * time.Hour), t0.Add(-time.Hour)}
	svc := newTestService(repo, &FakePublisher{}, clock.NewFakeClock(t0))

	n, err := svc.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, repo.shown[user], 1)
}
