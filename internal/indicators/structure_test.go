package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

func candlesFromLows(lows ...float64) []types.OHLCV {
	out := make([]types.OHLCV, len(lows))
	for i, l := range lows {
		out[i] = types.OHLCV{Low: l, High: l + 5, Open: l + 2, Close: l + 2}
	}
	return out
}

// TestNearestSupport_FindsClosestSwingLow returns the highest swing
// low below the reference price.
func TestNearestSupport_FindsClosestSwingLow(t *testing.T) {
	// Swing lows at 95 and 98.
	candles := candlesFromLows(100, 95, 99, 102, 98, 103, 104)

	support := NearestSupport(candles, 0, 101)
	assert.Equal(t, 98.0, support)

	// Reference below both swing lows: nothing qualifies.
	assert.Equal(t, 0.0, NearestSupport(candles, 0, 94))
}

// TestNearestResistance_FindsClosestSwingHigh returns the lowest swing
// high above the reference price.
func TestNearestResistance_FindsClosestSwingHigh(t *testing.T) {
	// Highs are lows+5: the only swing high is 107.
	candles := candlesFromLows(100, 95, 99, 102, 98, 103, 104)

	resistance := NearestResistance(candles, 0, 100)
	assert.Equal(t, 107.0, resistance)

	assert.Equal(t, 0.0, NearestResistance(candles, 0, 200))
}

// TestNearestSupport_LookbackWindow only considers the most recent
// candles.
func TestNearestSupport_LookbackWindow(t *testing.T) {
	candles := candlesFromLows(100, 90, 100, 101, 98, 103, 104)

	// Full history sees the deep swing low at 90.
	assert.Equal(t, 98.0, NearestSupport(candles, 0, 99))
	full := NearestSupport(candles, 0, 95)
	assert.Equal(t, 90.0, full)

	// A 4-candle window excludes it.
	assert.Equal(t, 0.0, NearestSupport(candles, 4, 95))
}

// TestAdaptiveMultiplier clamps the volatility ratio into [1, 3].
func TestAdaptiveMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, AdaptiveMultiplier(50, 100))  // calm
	assert.Equal(t, 1.5, AdaptiveMultiplier(150, 100)) // mid
	assert.Equal(t, 3.0, AdaptiveMultiplier(500, 100)) // volatile
	assert.Equal(t, 1.0, AdaptiveMultiplier(100, 0))   // no baseline
}

// TestLatestATR_RequiresWarmup returns 0 until a full period exists.
func TestLatestATR_RequiresWarmup(t *testing.T) {
	short := candlesFromLows(100, 101)
	assert.Equal(t, 0.0, LatestATR(14, short))

	long := candlesFromLows(
		100, 102, 101, 103, 105, 104, 106, 108,
		107, 109, 111, 110, 112, 114, 113, 115,
	)
	assert.Greater(t, LatestATR(14, long), 0.0)
}
