package indicators

import (
	"github.com/cinar/indicator"

	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// DefaultATRPeriod is the standard lookback for Average True Range.
const DefaultATRPeriod = 14

// ATR computes the Average True Range series over the given candles.
// The result has one value per candle; the first period-1 values are
// warm-up and should not be relied on.
func ATR(period int, candles []types.OHLCV) []float64 {
	if period <= 0 || len(candles) == 0 {
		return nil
	}
	_, atr := indicator.Atr(period, types.Highs(candles), types.Lows(candles), types.Closes(candles))
	return atr
}

// LatestATR returns the most recent ATR value, or 0 when there is not
// enough data.
func LatestATR(period int, candles []types.OHLCV) float64 {
	atr := ATR(period, candles)
	if len(atr) < period {
		return 0
	}
	return atr[len(atr)-1]
}

// AverageATR returns the mean of the ATR series over the last window
// values. Used as the baseline for the adaptive stop multiplier.
func AverageATR(period, window int, candles []types.OHLCV) float64 {
	atr := ATR(period, candles)
	if len(atr) < period {
		return 0
	}
	// Skip the warm-up values
	usable := atr[period-1:]
	if window > 0 && len(usable) > window {
		usable = usable[len(usable)-window:]
	}
	if len(usable) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range usable {
		sum += v
	}
	return sum / float64(len(usable))
}

// AdaptiveMultiplier scales an ATR stop distance by current volatility
// relative to its average: calm markets tighten toward 1x, volatile
// markets widen up to 3x.
func AdaptiveMultiplier(currentATR, avgATR float64) float64 {
	if avgATR <= 0 {
		return 1
	}
	m := currentATR / avgATR
	if m < 1 {
		return 1
	}
	if m > 3 {
		return 3
	}
	return m
}
