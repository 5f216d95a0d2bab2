package walletservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/dingleup/app/events"
	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	walletdb "github.com/Black-And-White-Club/dingleup/app/modules/wallet/infrastructure/repositories"
	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/Black-And-White-Club/dingleup/internal/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const sweepBatchSize = 100

// EnsureWallet creates the wallet with starting balances if it is missing.
func (s *WalletService) EnsureWallet(ctx context.Context, userUUID uuid.UUID) (*WalletView, error) {
	result, err := withTelemetry(s, ctx, "EnsureWallet", userUUID.String(), func(ctx context.Context) (results.OperationResult[*outcome, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome, error], error) {
			now := s.clock.Now()
			w, created, err := s.loadOrCreate(ctx, db, userUUID, now)
			if err != nil {
				return results.OperationResult[*outcome, error]{}, err
			}
			out := &outcome{view: s.buildView(now, w)}
			if created {
				out.events = append(out.events, s.updatedEvent(now, w, "wallet_created"))
			}
			return results.SuccessResult[*outcome, error](out), nil
		})
	})
	return s.finish(ctx, result, err)
}

// GetWallet regenerates lives, persists them and returns the wallet.
func (s *WalletService) GetWallet(ctx context.Context, userUUID uuid.UUID) (*WalletView, error) {
	result, err := withTelemetry(s, ctx, "GetWallet", userUUID.String(), func(ctx context.Context) (results.OperationResult[*outcome, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome, error], error) {
			now := s.clock.Now()
			w, _, err := s.loadOrCreate(ctx, db, userUUID, now)
			if err != nil {
				return results.OperationResult[*outcome, error]{}, err
			}
			out := &outcome{}
			gained, expired := s.regenerate(now, w)
			if gained > 0 || expired != nil {
				if err := s.repo.UpdateWallet(ctx, db, w); err != nil {
					return results.OperationResult[*outcome, error]{}, err
				}
				out.events = append(out.events, s.updatedEvent(now, w, "regeneration"))
			}
			if expired != nil {
				out.events = append(out.events, expiredEvent(userUUID, expired))
			}
			out.view = s.buildView(now, w)
			return results.SuccessResult[*outcome, error](out), nil
		})
	})
	return s.finish(ctx, result, err)
}

// Credit adds coins and lives. A repeated idempotency key is a no-op.
func (s *WalletService) Credit(ctx context.Context, req LedgerRequest) (*WalletView, error) {
	return s.applyLedger(ctx, "Credit", req, 1)
}

// Debit removes coins and lives. A repeated idempotency key is a no-op.
func (s *WalletService) Debit(ctx context.Context, req LedgerRequest) (*WalletView, error) {
	return s.applyLedger(ctx, "Debit", req, -1)
}

func (s *WalletService) applyLedger(ctx context.Context, operation string, req LedgerRequest, sign int) (*WalletView, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%s: idempotency key is required", operation)
	}
	result, err := withTelemetry(s, ctx, operation, req.UserUUID.String(), func(ctx context.Context) (results.OperationResult[*outcome, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome, error], error) {
			now := s.clock.Now()
			w, _, err := s.loadOrCreate(ctx, db, req.UserUUID, now)
			if err != nil {
				return results.OperationResult[*outcome, error]{}, err
			}
			_, expired := s.regenerate(now, w)
			return s.ledgerLogic(ctx, db, now, w, req, sign, expired)
		})
	})
	return s.finish(ctx, result, err)
}

// ConsumeLife regenerates first and then takes one life.
func (s *WalletService) ConsumeLife(ctx context.Context, userUUID uuid.UUID, reason, idempotencyKey string) (*WalletView, error) {
	return s.applyLedger(ctx, "ConsumeLife", LedgerRequest{
		UserUUID:       userUUID,
		Lives:          1,
		Reason:         reason,
		IdempotencyKey: idempotencyKey,
	}, -1)
}

// ledgerLogic applies a signed change to a locked, regenerated wallet.
func (s *WalletService) ledgerLogic(
	ctx context.Context,
	db bun.IDB,
	now time.Time,
	w *walletdb.Wallet,
	req LedgerRequest,
	sign int,
	expired *walletdomain.ActiveBooster,
) (results.OperationResult[*outcome, error], error) {
	exists, err := s.repo.LedgerEntryExists(ctx, db, req.IdempotencyKey)
	if err != nil {
		return results.OperationResult[*outcome, error]{}, err
	}
	if exists {
		s.logger.InfoContext(ctx, "Ledger key already applied",
			attr.ExtractCorrelationID(ctx),
			attr.String("idempotency_key", req.IdempotencyKey),
		)
		return results.SuccessResult[*outcome, error](&outcome{view: s.buildView(now, w)}), nil
	}

	balance := walletdomain.Balance{Coins: w.Coins, Lives: w.Lives}
	if sign > 0 {
		balance, err = walletdomain.ApplyCredit(balance, req.Coins, req.Lives)
	} else {
		balance, err = walletdomain.ApplyDebit(balance, req.Coins, req.Lives)
	}
	if err != nil {
		return results.FailureResult[*outcome, error](err), nil
	}

	inserted, err := s.repo.InsertLedgerEntry(ctx, db, &walletdb.LedgerEntry{
		UserUUID:       w.UserUUID,
		IdempotencyKey: req.IdempotencyKey,
		CoinsDelta:     int64(sign) * req.Coins,
		LivesDelta:     sign * req.Lives,
		Reason:         req.Reason,
		CoinsAfter:     balance.Coins,
		LivesAfter:     balance.Lives,
		CreatedAt:      now,
	})
	if err != nil {
		return results.OperationResult[*outcome, error]{}, err
	}
	if !inserted {
		return results.SuccessResult[*outcome, error](&outcome{view: s.buildView(now, w)}), nil
	}

	w.Coins, w.Lives = balance.Coins, balance.Lives
	if err := s.repo.UpdateWallet(ctx, db, w); err != nil {
		return results.OperationResult[*outcome, error]{}, err
	}

	out := &outcome{
		view:   s.buildView(now, w),
		events: []pendingEvent{s.updatedEvent(now, w, req.Reason)},
	}
	if expired != nil {
		out.events = append(out.events, expiredEvent(w.UserUUID, expired))
	}
	return results.SuccessResult[*outcome, error](out), nil
}

// ActivateBooster buys a booster and schedules its expiry.
func (s *WalletService) ActivateBooster(ctx context.Context, userUUID uuid.UUID, boosterType walletdomain.BoosterType) (*WalletView, error) {
	spec, err := walletdomain.LookupBooster(boosterType)
	if err != nil {
		return nil, err
	}

	var activated *walletdomain.ActiveBooster
	result, err := withTelemetry(s, ctx, "ActivateBooster", userUUID.String(), func(ctx context.Context) (results.OperationResult[*outcome, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome, error], error) {
			now := s.clock.Now()
			w, _, err := s.loadOrCreate(ctx, db, userUUID, now)
			if err != nil {
				return results.OperationResult[*outcome, error]{}, err
			}

			_, expired := s.regenerate(now, w)
			if boosterFromRow(w).ActiveAt(now) {
				return results.FailureResult[*outcome, error](walletdomain.ErrBoosterAlreadyActive), nil
			}

			activated = walletdomain.Activate(spec, now)
			state := walletdomain.Rebase(now,
				walletdomain.LifeState{Lives: w.Lives, LastRegenAt: w.LastRegenAt},
				s.cfg.RegenInterval,
				walletdomain.RegenInterval(now, s.cfg.RegenInterval, activated),
			)
			w.LastRegenAt = state.LastRegenAt
			setBooster(w, activated)

			res, err := s.ledgerLogic(ctx, db, now, w, LedgerRequest{
				UserUUID:       userUUID,
				Coins:          spec.Price,
				Reason:         "booster_" + string(spec.Type),
				IdempotencyKey: fmt.Sprintf("booster:%s:%d", userUUID, now.UnixNano()),
			}, -1, expired)
			if err != nil || res.IsFailure() {
				return res, err
			}
			out := *res.Success
			out.events = append(out.events, pendingEvent{
				topic: events.WalletBoosterActivatedV1,
				payload: events.WalletBoosterPayloadV1{
					UserUUID:    userUUID.String(),
					BoosterType: string(spec.Type),
					ExpiresAt:   activated.ExpiresAt,
				},
			})
			return results.SuccessResult[*outcome, error](out), nil
		})
	})

	view, err := s.finish(ctx, result, err)
	if err != nil {
		return nil, err
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleBoosterExpiry(ctx, userUUID, activated.ExpiresAt); err != nil {
			// The periodic sweep still expires the booster.
			s.logger.ErrorContext(ctx, "Failed to schedule booster expiry",
				attr.ExtractCorrelationID(ctx),
				attr.UserUUID(userUUID),
				attr.Error(err),
			)
		}
	}
	return view, nil
}

// ExpireBooster clears an expired booster and notifies the user. It is a
// no-op while the booster is still running.
func (s *WalletService) ExpireBooster(ctx context.Context, userUUID uuid.UUID) (*WalletView, error) {
	result, err := withTelemetry(s, ctx, "ExpireBooster", userUUID.String(), func(ctx context.Context) (results.OperationResult[*outcome, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*outcome, error], error) {
			now := s.clock.Now()
			w, err := s.repo.GetWalletForUpdate(ctx, db, userUUID)
			if err != nil {
				if errors.Is(err, walletdb.ErrNotFound) {
					return results.FailureResult[*outcome, error](err), nil
				}
				return results.OperationResult[*outcome, error]{}, err
			}

			gained, expired := s.regenerate(now, w)
			out := &outcome{}
			if gained > 0 || expired != nil {
				if err := s.repo.UpdateWallet(ctx, db, w); err != nil {
					return results.OperationResult[*outcome, error]{}, err
				}
				out.events = append(out.events, s.updatedEvent(now, w, "booster_expired"))
			}
			if expired != nil {
				out.events = append(out.events, expiredEvent(userUUID, expired))
			}
			out.view = s.buildView(now, w)
			return results.SuccessResult[*outcome, error](out), nil
		})
	})
	return s.finish(ctx, result, err)
}

// SweepExpiredBoosters expires boosters whose job was missed.
func (s *WalletService) SweepExpiredBoosters(ctx context.Context) (int, error) {
	wallets, err := s.repo.ListExpiredBoosters(ctx, nil, s.clock.Now(), sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("SweepExpiredBoosters: %w", err)
	}
	expired := 0
	for _, w := range wallets {
		if _, err := s.ExpireBooster(ctx, w.UserUUID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to expire booster during sweep",
				attr.UserUUID(w.UserUUID),
				attr.Error(err),
			)
			continue
		}
		expired++
	}
	return expired, nil
}

// ListBoosters returns the booster table.
func (s *WalletService) ListBoosters() []walletdomain.BoosterSpec {
	return walletdomain.Boosters()
}

// loadOrCreate locks the wallet row, creating it with starting balances first
// when it does not exist yet.
func (s *WalletService) loadOrCreate(ctx context.Context, db bun.IDB, userUUID uuid.UUID, now time.Time) (*walletdb.Wallet, bool, error) {
	w, err := s.repo.GetWalletForUpdate(ctx, db, userUUID)
	if err == nil {
		return w, false, nil
	}
	if !errors.Is(err, walletdb.ErrNotFound) {
		return nil, false, err
	}

	created, err := s.repo.CreateWallet(ctx, db, &walletdb.Wallet{
		UserUUID:    userUUID,
		Coins:       s.cfg.StartingCoins,
		Lives:       s.cfg.StartingLives,
		LastRegenAt: now,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, false, err
	}
	w, err = s.repo.GetWalletForUpdate(ctx, db, userUUID)
	if err != nil {
		return nil, false, err
	}
	return w, created, nil
}

func (s *WalletService) policy(w *walletdb.Wallet) walletdomain.Policy {
	return walletdomain.Policy{
		BaseCap:      s.cfg.BaseCap,
		BaseInterval: s.cfg.RegenInterval,
		Booster:      boosterFromRow(w),
	}
}

// regenerate credits earned lives in place and clears a booster that has
// run out, returning it.
func (s *WalletService) regenerate(now time.Time, w *walletdb.Wallet) (int, *walletdomain.ActiveBooster) {
	policy := s.policy(w)
	state, gained := walletdomain.Regenerate(now, walletdomain.LifeState{Lives: w.Lives, LastRegenAt: w.LastRegenAt}, policy)
	w.Lives, w.LastRegenAt = state.Lives, state.LastRegenAt

	if policy.Booster != nil && !policy.Booster.ActiveAt(now) {
		setBooster(w, nil)
		return gained, policy.Booster
	}
	return gained, nil
}

func (s *WalletService) buildView(now time.Time, w *walletdb.Wallet) *WalletView {
	policy := s.policy(w)
	state := walletdomain.LifeState{Lives: w.Lives, LastRegenAt: w.LastRegenAt}
	view := &WalletView{
		UserUUID:             w.UserUUID,
		Coins:                w.Coins,
		Lives:                w.Lives,
		ActiveCap:            walletdomain.ActiveCap(now, policy.BaseCap, policy.Booster),
		RegenIntervalSeconds: int64(walletdomain.RegenInterval(now, policy.BaseInterval, policy.Booster) / time.Second),
		LastRegenAt:          w.LastRegenAt,
		NextLifeAt:           walletdomain.NextLifeAt(now, state, policy),
		ServerTime:           now,
	}
	if view.NextLifeAt != nil {
		view.Countdown = walletdomain.FormatCountdown(view.NextLifeAt.Sub(now))
	}
	if b := policy.Booster; b.ActiveAt(now) {
		view.Booster = &BoosterView{
			Type:       b.Spec.Type,
			Multiplier: b.Spec.Multiplier,
			MaxLives:   b.Spec.MaxLives,
			ExpiresAt:  b.ExpiresAt,
		}
	}
	return view
}

func (s *WalletService) updatedEvent(now time.Time, w *walletdb.Wallet, reason string) pendingEvent {
	view := s.buildView(now, w)
	return pendingEvent{
		topic: events.WalletUpdatedV1,
		payload: events.WalletUpdatedPayloadV1{
			UserUUID:   w.UserUUID.String(),
			Coins:      view.Coins,
			Lives:      view.Lives,
			ActiveCap:  view.ActiveCap,
			NextLifeAt: view.NextLifeAt,
			Reason:     reason,
		},
	}
}

func expiredEvent(userUUID uuid.UUID, b *walletdomain.ActiveBooster) pendingEvent {
	return pendingEvent{
		topic: events.WalletBoosterExpiredV1,
		payload: events.WalletBoosterPayloadV1{
			UserUUID:    userUUID.String(),
			BoosterType: string(b.Spec.Type),
			ExpiresAt:   b.ExpiresAt,
		},
	}
}

// boosterFromRow rebuilds the booster stored on w. Unknown types are ignored.
func boosterFromRow(w *walletdb.Wallet) *walletdomain.ActiveBooster {
	if w.BoosterType == nil || w.BoosterActivatedAt == nil || w.BoosterExpiresAt == nil {
		return nil
	}
	spec, err := walletdomain.LookupBooster(walletdomain.BoosterType(*w.BoosterType))
	if err != nil {
		return nil
	}
	return &walletdomain.ActiveBooster{
		Spec:        spec,
		ActivatedAt: *w.BoosterActivatedAt,
		ExpiresAt:   *w.BoosterExpiresAt,
	}
}

func setBooster(w *walletdb.Wallet, b *walletdomain.ActiveBooster) {
	if b == nil {
		w.BoosterType, w.BoosterActivatedAt, w.BoosterExpiresAt = nil, nil, nil
		return
	}
	t := string(b.Spec.Type)
	activated, expires := b.ActivatedAt, b.ExpiresAt
	w.BoosterType, w.BoosterActivatedAt, w.BoosterExpiresAt = &t, &activated, &expires
}
