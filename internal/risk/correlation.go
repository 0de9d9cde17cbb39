package risk

import "math"

// Pearson computes the Pearson correlation coefficient between two
// equal-length return series. It returns 0 when either series is
// empty, the lengths differ, or either series has zero variance.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	meanX, meanY := mean(x), mean(y)

	var sumXY, sumXX, sumYY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}

	if sumXX == 0 || sumYY == 0 {
		return 0
	}
	return sumXY / math.Sqrt(sumXX*sumYY)
}

// CountCorrelated counts open-position return series whose correlation
// with the candidate series meets or exceeds the threshold.
func CountCorrelated(candidate []float64, open map[string][]float64, threshold float64) int {
	count := 0
	for _, series := range open {
		if math.Abs(Pearson(candidate, series)) >= threshold {
			count++
		}
	}
	return count
}

// CheckCorrelation caps the number of simultaneously open positions
// correlated with the candidate symbol. Series must be aligned,
// equal-length per-period returns; the candidate's own symbol is
// skipped and the map is never modified.
func (e *Enforcer) CheckCorrelation(symbol string, candidate []float64, open map[string][]float64) LimitCheckResult {
	if e.cfg.MaxCorrelatedPositions <= 0 || len(candidate) == 0 {
		return allowed()
	}
	count := 0
	for sym, series := range open {
		if sym == symbol {
			continue
		}
		if math.Abs(Pearson(candidate, series)) >= e.cfg.CorrelationThreshold {
			count++
		}
	}
	if count >= e.cfg.MaxCorrelatedPositions {
		res := LimitCheckResult{
			Allowed:      false,
			Rule:         RuleCorrelation,
			Reason:       "too many open positions correlated with " + symbol,
			CurrentValue: float64(count),
			LimitValue:   float64(e.cfg.MaxCorrelatedPositions),
		}
		e.recordBreach(res)
		return res
	}
	return allowed()
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}
