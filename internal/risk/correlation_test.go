package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPearson_PerfectPositive returns 1 for a linear relationship.
func TestPearson_PerfectPositive(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	assert.InDelta(t, 1.0, Pearson(x, y), 1e-9)
}

// TestPearson_PerfectNegative returns -1 for an inverse relationship.
func TestPearson_PerfectNegative(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{10, 8, 6, 4, 2}

	assert.InDelta(t, -1.0, Pearson(x, y), 1e-9)
}

// TestPearson_Symmetric is order-independent.
func TestPearson_Symmetric(t *testing.T) {
	x := []float64{0.5, -0.2, 1.3, 0.1, -0.7}
	y := []float64{0.3, 0.1, 0.9, -0.4, -0.2}

	assert.InDelta(t, Pearson(x, y), Pearson(y, x), 1e-12)
}

// TestPearson_Bounded stays within [-1, 1].
func TestPearson_Bounded(t *testing.T) {
	x := []float64{3.2, -1.1, 0.0, 7.5, -2.2, 4.4}
	y := []float64{-0.5, 2.1, 1.1, -3.3, 0.7, 0.2}

	r := Pearson(x, y)
	assert.GreaterOrEqual(t, r, -1.0)
	assert.LessOrEqual(t, r, 1.0)
}

// TestPearson_DegenerateInputs returns 0 instead of NaN for empty,
// mismatched or constant series.
func TestPearson_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Pearson(nil, nil))
	assert.Equal(t, 0.0, Pearson([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, Pearson([]float64{5, 5, 5}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, Pearson([]float64{1, 2, 3}, []float64{7, 7, 7}))
}

// TestCountCorrelated applies the absolute-value threshold.
func TestCountCorrelated(t *testing.T) {
	candidate := []float64{1, 2, 3, 4, 5}
	open := map[string][]float64{
		"ETHUSDT": {2, 4, 6, 8, 10},   // +1.0
		"SOLUSDT": {5, 4, 3, 2, 1},    // -1.0, counts via absolute value
		"XRPUSDT": {1, -1, 2, -2, 1},  // near zero
	}

	assert.Equal(t, 2, CountCorrelated(candidate, open, 0.7))
	assert.Equal(t, 3, CountCorrelated(candidate, open, 0.0))
}

// TestCheckCorrelation_Limit rejects once enough open positions
// correlate with the candidate.
func TestCheckCorrelation_Limit(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MaxCorrelatedPositions = 2
	e := NewEnforcer(cfg, 10000, testStart)

	candidate := []float64{1, 2, 3, 4, 5}
	open := map[string][]float64{
		"ETHUSDT": {2, 4, 6, 8, 10},
		"SOLUSDT": {1.1, 2.2, 3.1, 4.2, 5.1},
	}

	res := e.CheckCorrelation("BTCUSDT", candidate, open)
	assert.False(t, res.Allowed)
	assert.Equal(t, RuleCorrelation, res.Rule)
	assert.Equal(t, 2.0, res.CurrentValue)
}

// TestCheckCorrelation_ExcludesSelf never counts the candidate's own
// series.
func TestCheckCorrelation_ExcludesSelf(t *testing.T) {
	e := NewEnforcer(testRiskConfig(), 10000, testStart)

	candidate := []float64{1, 2, 3, 4, 5}
	open := map[string][]float64{
		"BTCUSDT": candidate,
		"ETHUSDT": {2, 4, 6, 8, 10},
	}

	res := e.CheckCorrelation("BTCUSDT", candidate, open)
	assert.True(t, res.Allowed)
	// The caller's map is left intact.
	assert.Contains(t, open, "BTCUSDT")
	assert.Len(t, open, 2)
}

// TestCheckCorrelation_Disabled allows everything when the limit is
// off or no series is supplied.
func TestCheckCorrelation_Disabled(t *testing.T) {
	cfg := testRiskConfig()
	cfg.MaxCorrelatedPositions = 0
	e := NewEnforcer(cfg, 10000, testStart)

	assert.True(t, e.CheckCorrelation("BTCUSDT", []float64{1, 2}, nil).Allowed)

	e2 := NewEnforcer(testRiskConfig(), 10000, testStart)
	assert.True(t, e2.CheckCorrelation("BTCUSDT", nil, nil).Allowed)
}
