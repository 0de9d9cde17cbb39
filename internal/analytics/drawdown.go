package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// drawdownTriggerPercent is the decline from peak that opens a
// drawdown period; shallower dips are ignored as noise.
const drawdownTriggerPercent = 0.1

// DrawdownPeriod is one contiguous decline from a peak. End is the
// zero time while the period is still ongoing.
type DrawdownPeriod struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end,omitempty"`
	DepthPercent float64   `json:"depth_percent"`
	Recovered    bool      `json:"recovered"`
}

// AnalyzeDrawdowns walks the equity curve once, tracking the running
// peak. It returns the maximum drawdown, the drawdown at the final
// point, and every detected period. A period opens when the decline
// exceeds the trigger threshold and closes when equity exceeds the
// prior peak.
func AnalyzeDrawdowns(equity []domain.EquityPoint) (maxDD, currentDD float64, periods []DrawdownPeriod) {
	if len(equity) == 0 {
		return 0, 0, nil
	}

	peak := equity[0].Equity
	var open *DrawdownPeriod

	for _, point := range equity {
		if point.Equity > peak {
			if open != nil {
				open.End = point.Timestamp
				open.Recovered = true
				periods = append(periods, *open)
				open = nil
			}
			peak = point.Equity
			currentDD = 0
			continue
		}

		dd := 0.0
		if peak > 0 {
			dd = (peak - point.Equity) / peak * 100
		}
		currentDD = dd

		if open == nil && dd >= drawdownTriggerPercent {
			open = &DrawdownPeriod{Start: point.Timestamp, DepthPercent: dd}
		}
		if open != nil && dd > open.DepthPercent {
			open.DepthPercent = dd
		}
		if dd > maxDD {
			maxDD = dd
		}
	}

	if open != nil {
		periods = append(periods, *open)
	}
	return maxDD, currentDD, periods
}

// VaR returns the historical Value-at-Risk and Conditional VaR at the
// given confidence: the return at the (1-confidence) percentile of the
// sorted series, and the mean of everything at or below it.
func VaR(returns []float64, confidence float64) (varValue, cvar float64) {
	if len(returns) == 0 || confidence <= 0 || confidence >= 1 {
		return 0, 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor(float64(len(sorted)) * (1 - confidence)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	varValue = sorted[idx]

	sum, count := 0.0, 0
	for _, r := range sorted {
		if r <= varValue {
			sum += r
			count++
		}
	}
	if count > 0 {
		cvar = sum / float64(count)
	}
	return varValue, cvar
}
