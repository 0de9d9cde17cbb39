package indicators

import (
	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// Structure levels are swing highs/lows inside a lookback window.
// A swing low is a low with a higher low on both sides; symmetric for
// swing highs.

// NearestSupport returns the closest swing low below the reference
// price within the lookback window, or 0 when none exists.
func NearestSupport(candles []types.OHLCV, lookback int, price float64) float64 {
	lows := swingLows(window(candles, lookback))
	best := 0.0
	for _, l := range lows {
		if l < price && l > best {
			best = l
		}
	}
	return best
}

// NearestResistance returns the closest swing high above the reference
// price within the lookback window, or 0 when none exists.
func NearestResistance(candles []types.OHLCV, lookback int, price float64) float64 {
	highs := swingHighs(window(candles, lookback))
	best := 0.0
	for _, h := range highs {
		if h > price && (best == 0 || h < best) {
			best = h
		}
	}
	return best
}

func window(candles []types.OHLCV, lookback int) []types.OHLCV {
	if lookback > 0 && len(candles) > lookback {
		return candles[len(candles)-lookback:]
	}
	return candles
}

func swingLows(candles []types.OHLCV) []float64 {
	var out []float64
	for i := 1; i < len(candles)-1; i++ {
		if candles[i].Low < candles[i-1].Low && candles[i].Low < candles[i+1].Low {
			out = append(out, candles[i].Low)
		}
	}
	return out
}

func swingHighs(candles []types.OHLCV) []float64 {
	var out []float64
	for i := 1; i < len(candles)-1; i++ {
		if candles[i].High > candles[i-1].High && candles[i].High > candles[i+1].High {
			out = append(out, candles[i].High)
		}
	}
	return out
}
