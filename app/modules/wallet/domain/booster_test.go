package walletdomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupBooster(t *testing.T) {
	tests := []struct {
		booster        BoosterType
		wantMultiplier int
		wantMaxLives   int
		wantPrice      int64
	}{
		{DoubleSpeed, 2, 25, 300},
		{MegaSpeed, 4, 35, 600},
		{GigaSpeed, 12, 75, 2000},
		{DingleSpeed, 24, 135, 4000},
	}
	for _, tt := range tests {
		t.Run(string(tt.booster), func(t *testing.T) {
			spec, err := LookupBooster(tt.booster)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMultiplier, spec.Multiplier)
			assert.Equal(t, tt.wantMaxLives, spec.MaxLives)
			assert.Equal(t, tt.wantPrice, spec.Price)
			assert.Equal(t, time.Hour, spec.Duration)
		})
	}

	_, err := LookupBooster("TurboSpeed")
	assert.ErrorIs(t, err, ErrUnknownBooster)
}

func TestBoostersOrderedByPrice(t *testing.T) {
	list := Boosters()
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Price, list[i].Price)
	}
}

func TestActiveBoosterActiveAt(t *testing.T) {
	spec, _ := LookupBooster(DoubleSpeed)
	b := Activate(spec, t0)

	assert.True(t, b.ActiveAt(t0))
	assert.True(t, b.ActiveAt(t0.Add(59*time.Minute)))
	assert.False(t, b.ActiveAt(t0.Add(time.Hour)))

	var none *ActiveBooster
	assert.False(t, none.ActiveAt(t0))
}

func TestLedgerArithmetic(t *testing.T) {
	b, err := ApplyCredit(Balance{Coins: 10, Lives: 1}, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, Balance{Coins: 15, Lives: 3}, b)

	_, err = ApplyDebit(b, 16, 0)
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	_, err = ApplyDebit(b, 0, 4)
	assert.ErrorIs(t, err, ErrNoLives)

	_, err = ApplyCredit(b, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	b, err = ApplyDebit(b, 15, 3)
	require.NoError(t, err)
	assert.Equal(t, Balance{}, b)
}
