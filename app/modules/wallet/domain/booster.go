package walletdomain

import (
	"fmt"
	"sort"
	"time"
)

// BoosterType names a purchasable regeneration booster.
type BoosterType string

const (
	DoubleSpeed BoosterType = "DoubleSpeed"
	MegaSpeed   BoosterType = "MegaSpeed"
	GigaSpeed   BoosterType = "GigaSpeed"
	DingleSpeed BoosterType = "DingleSpeed"
)

// BoosterSpec is one row of the static booster table.
type BoosterSpec struct {
	Type       BoosterType   `json:"type"`
	Multiplier int           `json:"multiplier"`
	MaxLives   int           `json:"max_lives"`
	Duration   time.Duration `json:"duration"`
	Price      int64         `json:"price"`
}

var boosterTable = map[BoosterType]BoosterSpec{
	DoubleSpeed: {Type: DoubleSpeed, Multiplier: 2, MaxLives: 25, Duration: time.Hour, Price: 300},
	MegaSpeed:   {Type: MegaSpeed, Multiplier: 4, MaxLives: 35, Duration: time.Hour, Price: 600},
	GigaSpeed:   {Type: GigaSpeed, Multiplier: 12, MaxLives: 75, Duration: time.Hour, Price: 2000},
	DingleSpeed: {Type: DingleSpeed, Multiplier: 24, MaxLives: 135, Duration: time.Hour, Price: 4000},
}

// LookupBooster returns the table entry for t.
func LookupBooster(t BoosterType) (BoosterSpec, error) {
	spec, ok := boosterTable[t]
	if !ok {
		return BoosterSpec{}, fmt.Errorf("%w: %q", ErrUnknownBooster, t)
	}
	return spec, nil
}

// Boosters lists every booster ordered by price.
func Boosters() []BoosterSpec {
	out := make([]BoosterSpec, 0, len(boosterTable))
	for _, spec := range boosterTable {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// ActiveBooster is a booster bought by a user.
type ActiveBooster struct {
	Spec        BoosterSpec
	ActivatedAt time.Time
	ExpiresAt   time.Time
}

// Activate starts spec at now.
func Activate(spec BoosterSpec, now time.Time) *ActiveBooster {
	return &ActiveBooster{
		Spec:        spec,
		ActivatedAt: now,
		ExpiresAt:   now.Add(spec.Duration),
	}
}

// ActiveAt reports whether the booster is unexpired at now.
func (b *ActiveBooster) ActiveAt(now time.Time) bool {
	return b != nil && now.Before(b.ExpiresAt)
}
