package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAnalyzeDrawdowns_SingleRecoveredPeriod detects one dip and its
// recovery.
func TestAnalyzeDrawdowns_SingleRecoveredPeriod(t *testing.T) {
	equity := equityCurve(100, 110, 99, 105, 112)

	maxDD, currentDD, periods := AnalyzeDrawdowns(equity)

	assert.InDelta(t, 10.0, maxDD, 1e-9)
	assert.Equal(t, 0.0, currentDD)
	assert.Len(t, periods, 1)
	assert.True(t, periods[0].Recovered)
	assert.InDelta(t, 10.0, periods[0].DepthPercent, 1e-9)
}

// TestAnalyzeDrawdowns_OngoingPeriod leaves the final period open when
// equity never regains the peak.
func TestAnalyzeDrawdowns_OngoingPeriod(t *testing.T) {
	equity := equityCurve(100, 120, 108, 110)

	maxDD, currentDD, periods := AnalyzeDrawdowns(equity)

	assert.InDelta(t, 10.0, maxDD, 1e-9)
	assert.InDelta(t, 8.3333, currentDD, 0.001)
	assert.Len(t, periods, 1)
	assert.False(t, periods[0].Recovered)
}

// TestAnalyzeDrawdowns_IgnoresNoise does not open a period for dips
// below the trigger threshold.
func TestAnalyzeDrawdowns_IgnoresNoise(t *testing.T) {
	equity := equityCurve(10000, 9995, 10002, 9998, 10010)

	maxDD, _, periods := AnalyzeDrawdowns(equity)

	assert.Less(t, maxDD, drawdownTriggerPercent)
	assert.Empty(t, periods)
}

// TestAnalyzeDrawdowns_Empty handles no data.
func TestAnalyzeDrawdowns_Empty(t *testing.T) {
	maxDD, currentDD, periods := AnalyzeDrawdowns(nil)

	assert.Equal(t, 0.0, maxDD)
	assert.Equal(t, 0.0, currentDD)
	assert.Empty(t, periods)
}

// TestAnalyzeDrawdowns_MonotonicDecline keeps a single deepening
// period.
func TestAnalyzeDrawdowns_MonotonicDecline(t *testing.T) {
	equity := equityCurve(100, 95, 90, 85)

	maxDD, currentDD, periods := AnalyzeDrawdowns(equity)

	assert.InDelta(t, 15.0, maxDD, 1e-9)
	assert.InDelta(t, 15.0, currentDD, 1e-9)
	assert.Len(t, periods, 1)
}

// TestVaR_Percentile picks the return at the (1-confidence) percentile
// and averages the tail for CVaR.
func TestVaR_Percentile(t *testing.T) {
	// 20 returns: -10%..+9% in 1% steps.
	var returns []float64
	for i := -10; i < 10; i++ {
		returns = append(returns, float64(i)/100)
	}

	varValue, cvar := VaR(returns, 0.95)

	// 5% of 20 = index 1 of the sorted series.
	assert.InDelta(t, -0.09, varValue, 1e-9)
	assert.InDelta(t, -0.095, cvar, 1e-9)
	assert.LessOrEqual(t, cvar, varValue)
}

// TestVaR_DegenerateInputs returns zeros for empty series or invalid
// confidence.
func TestVaR_DegenerateInputs(t *testing.T) {
	varValue, cvar := VaR(nil, 0.95)
	assert.Equal(t, 0.0, varValue)
	assert.Equal(t, 0.0, cvar)

	varValue, cvar = VaR([]float64{0.01}, 1.5)
	assert.Equal(t, 0.0, varValue)
	assert.Equal(t, 0.0, cvar)
}
