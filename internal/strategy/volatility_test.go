package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtle_bot/internal/models"
)

func TestTrueRange(t *testing.T) {
	tests := []struct {
		name            string
		high, low, prev float64
		want            float64
	}{
		{name: "inside bar", high: 10, low: 8, prev: 9, want: 2},
		{name: "gap up", high: 15, low: 14, prev: 10, want: 5},
		{name: "gap down", high: 6, low: 5, prev: 10, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TrueRange(tt.high, tt.low, tt.prev), 1e-12)
		})
	}
}

func TestVolatilityInitializeConstantRange(t *testing.T) {
	const r = 3.5
	candles := make([]models.Candle, 0, 25)
	for i := 0; i < 25; i++ {
		// close посередине: ни один гэп не больше high-low
		candles = append(candles, models.Candle{High: 100 + r, Low: 100, Close: 100 + r/2, CloseTime: int64(i)})
	}

	v := NewVolatility(20)
	require.NoError(t, v.Initialize(candles))
	assert.InDelta(t, r, v.N(), 1e-12)
	assert.Equal(t, 100+r/2, v.PrevClose())
}

func TestVolatilityInitializeNeedsWindowPlusOne(t *testing.T) {
	v := NewVolatility(20)
	err := v.Initialize(make([]models.Candle, 20))
	require.ErrorIs(t, err, ErrInsufficientSeedData)
}

func TestVolatilityUpdateWilder(t *testing.T) {
	v := &Volatility{window: 20, n: 10, prevClose: 100}
	// TR = max(30, 0, 30) = 30
	got := v.Update(130, 100, 120)
	assert.InDelta(t, 14.0, got, 1e-12)
	assert.InDelta(t, 14.0, v.N(), 1e-12)
	assert.Equal(t, 120.0, v.PrevClose())
}
