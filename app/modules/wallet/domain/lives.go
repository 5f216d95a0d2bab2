package walletdomain

import (
	"fmt"
	"time"
)

const (
	DefaultBaseCap       = 15
	DefaultRegenInterval = 12 * time.Minute
	DefaultStartingLives = 15
)

// Policy is the regeneration configuration in force for a wallet.
type Policy struct {
	BaseCap      int
	BaseInterval time.Duration
	Booster      *ActiveBooster
}

// DefaultPolicy returns the unboosted policy.
func DefaultPolicy() Policy {
	return Policy{BaseCap: DefaultBaseCap, BaseInterval: DefaultRegenInterval}
}

// LifeState is the persisted part of the lives timer.
type LifeState struct {
	Lives       int
	LastRegenAt time.Time
}

// ActiveCap is the base cap, raised to the booster cap while a booster runs.
func ActiveCap(now time.Time, base int, booster *ActiveBooster) int {
	if booster.ActiveAt(now) && booster.Spec.MaxLives > base {
		return booster.Spec.MaxLives
	}
	return base
}

// RegenInterval divides the base interval by the active booster multiplier.
func RegenInterval(now time.Time, base time.Duration, booster *ActiveBooster) time.Duration {
	if booster.ActiveAt(now) && booster.Spec.Multiplier > 1 {
		return base / time.Duration(booster.Spec.Multiplier)
	}
	return base
}

// Countdown returns the time until the next life. It is disabled when the
// wallet is at or above cap or regeneration is off.
func Countdown(now, lastRegen time.Time, interval time.Duration, lives, lifeCap int) (time.Duration, bool) {
	if interval <= 0 || lives >= lifeCap {
		return 0, false
	}
	elapsed := now.Sub(lastRegen)
	if elapsed < 0 {
		elapsed = 0
	}
	return interval - elapsed%interval, true
}

// FormatCountdown renders d as M:SS, or H:MM:SS from one hour up.
// Partial seconds are dropped.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// NextLifeAt returns when the next life is credited, or nil when the
// countdown is disabled.
func NextLifeAt(now time.Time, state LifeState, policy Policy) *time.Time {
	interval := RegenInterval(now, policy.BaseInterval, policy.Booster)
	lifeCap := ActiveCap(now, policy.BaseCap, policy.Booster)
	remaining, ok := Countdown(now, state.LastRegenAt, interval, state.Lives, lifeCap)
	if !ok {
		return nil
	}
	at := now.Add(remaining)
	return &at
}

// Rebase moves LastRegenAt so the share of the next life already earned
// under interval from is kept when the interval changes to to at now.
func Rebase(now time.Time, state LifeState, from, to time.Duration) LifeState {
	if from <= 0 || to <= 0 || from == to || state.LastRegenAt.After(now) {
		return state
	}
	progress := now.Sub(state.LastRegenAt) % from
	scaled := time.Duration(float64(progress) * float64(to) / float64(from))
	state.LastRegenAt = now.Add(-scaled)
	return state
}

// Regenerate credits the lives earned since state.LastRegenAt. A booster
// that expired in between is applied up to its expiry and the base policy
// afterwards. Lives above the cap are kept.
func Regenerate(now time.Time, state LifeState, policy Policy) (LifeState, int) {
	if state.LastRegenAt.IsZero() || state.LastRegenAt.After(now) {
		state.LastRegenAt = now
	}

	gained := 0
	if b := policy.Booster; b != nil && b.ExpiresAt.After(state.LastRegenAt) && !b.ExpiresAt.After(now) {
		var g int
		state, g = regenSegment(b.ExpiresAt, state,
			ActiveCap(b.ActivatedAt, policy.BaseCap, b),
			RegenInterval(b.ActivatedAt, policy.BaseInterval, b),
		)
		gained += g
	}

	var g int
	state, g = regenSegment(now, state,
		ActiveCap(now, policy.BaseCap, policy.Booster),
		RegenInterval(now, policy.BaseInterval, policy.Booster),
	)
	return state, gained + g
}

func regenSegment(at time.Time, state LifeState, lifeCap int, interval time.Duration) (LifeState, int) {
	if interval <= 0 {
		return state, 0
	}
	if state.Lives >= lifeCap {
		state.LastRegenAt = at
		return state, 0
	}
	elapsed := at.Sub(state.LastRegenAt)
	if elapsed <= 0 {
		return state, 0
	}
	n := int(elapsed / interval)
	if n == 0 {
		return state, 0
	}
	if state.Lives+n >= lifeCap {
		gained := lifeCap - state.Lives
		state.Lives = lifeCap
		state.LastRegenAt = at
		return state, gained
	}
	state.Lives += n
	state.LastRegenAt = state.LastRegenAt.Add(time.Duration(n) * interval)
	return state, n
}
