package indicators

import (
	"github.com/cinar/indicator"

	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// ParabolicSAR computes the latest parabolic stop-and-reverse value
// over the candle history. Returns 0 when there is not enough data.
func ParabolicSAR(candles []types.OHLCV) float64 {
	if len(candles) < 2 {
		return 0
	}
	psar, _ := indicator.ParabolicSar(types.Highs(candles), types.Lows(candles), types.Closes(candles))
	if len(psar) == 0 {
		return 0
	}
	return psar[len(psar)-1]
}

// ParabolicSARSeries returns the full SAR series and the trend at each
// point (true = rising).
func ParabolicSARSeries(candles []types.OHLCV) ([]float64, []bool) {
	if len(candles) < 2 {
		return nil, nil
	}
	psar, trends := indicator.ParabolicSar(types.Highs(candles), types.Lows(candles), types.Closes(candles))
	rising := make([]bool, len(trends))
	for i, t := range trends {
		rising[i] = t == indicator.Rising
	}
	return psar, rising
}
