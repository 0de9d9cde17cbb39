package exits

import (
	"sort"
	"time"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
	"github.com/quantlab/crypto-paper-bot/internal/indicators"
	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// ComputeInitialStop returns the initial stop-loss price for a freshly
// opened position. Candles supply the market state for the ATR,
// structure and SAR variants. A zero return means the variant places
// no price stop (time_based).
func ComputeInitialStop(pos *domain.Position, params StopParams, candles []types.OHLCV) float64 {
	entry := pos.EntryPrice
	sign := pos.Side.Sign()

	switch params.Type {
	case StopFixed:
		return entry * (1 - sign*params.Percent/100)

	case StopATRBased, StopATRTrailing:
		atr, mult := adaptiveATR(params, candles)
		if atr == 0 {
			return entry * (1 - sign*params.Percent/100)
		}
		return entry - sign*atr*mult

	case StopTrailing:
		return entry * (1 - sign*params.TrailingDistancePercent/100)

	case StopStructureBased:
		level := structureStop(pos, params, candles)
		if level > 0 {
			return level
		}
		return entry * (1 - sign*params.Percent/100)

	case StopParabolicSAR:
		sar := indicators.ParabolicSAR(candles)
		if sar > 0 && isProtective(pos.Side, entry, sar) {
			return sar
		}
		return entry * (1 - sign*params.Percent/100)

	case StopTimeBased:
		return 0

	case StopSteppedTrailing:
		return entry * (1 - sign*params.Percent/100)
	}

	return entry * (1 - sign*params.Percent/100)
}

// UpdateTrailingStop recomputes the stop from the running highest (or
// lowest, for shorts) price since entry and applies the ratchet: a
// long stop only ever moves up, a short stop only down. The second
// return reports whether the stop actually moved.
func UpdateTrailingStop(pos *domain.Position, params StopParams, candles []types.OHLCV) (float64, bool) {
	var candidate float64

	switch params.Type {
	case StopFixed, StopATRBased, StopStructureBased, StopTimeBased:
		return pos.StopLoss, false

	case StopTrailing:
		if !trailingActive(pos, params) {
			return pos.StopLoss, false
		}
		candidate = trailFromExtreme(pos, params.TrailingDistancePercent)

	case StopATRTrailing:
		atr, mult := adaptiveATR(params, candles)
		if atr == 0 {
			return pos.StopLoss, false
		}
		if pos.Side == domain.SideLong {
			candidate = pos.HighestPrice - atr*mult
		} else {
			candidate = pos.LowestPrice + atr*mult
		}

	case StopParabolicSAR:
		candidate = indicators.ParabolicSAR(candles)
		if candidate == 0 {
			return pos.StopLoss, false
		}

	case StopSteppedTrailing:
		var ok bool
		candidate, ok = steppedStop(pos, params)
		if !ok {
			return pos.StopLoss, false
		}

	default:
		return pos.StopLoss, false
	}

	if !tightens(pos.Side, pos.StopLoss, candidate) {
		return pos.StopLoss, false
	}
	return candidate, true
}

// IsStopTriggered checks the stop against the current price: a long
// triggers at or below the stop, a short at or above it.
func IsStopTriggered(pos *domain.Position, price float64) bool {
	if pos.StopLoss == 0 {
		return false
	}
	if pos.Side == domain.SideLong {
		return price <= pos.StopLoss
	}
	return price >= pos.StopLoss
}

// IsTimeExitDue reports whether a time-based exit has elapsed. It is
// independent of price and applies only to the time_based variant.
func IsTimeExitDue(pos *domain.Position, params StopParams, now time.Time) bool {
	if params.Type != StopTimeBased || params.MaxHoldingTime <= 0 {
		return false
	}
	return now.Sub(pos.OpenedAt) >= params.MaxHoldingTime
}

// adaptiveATR returns the latest ATR and the volatility-adaptive
// multiplier min(3, max(1, current/average)).
func adaptiveATR(params StopParams, candles []types.OHLCV) (float64, float64) {
	period := params.ATRPeriod
	if period <= 0 {
		period = indicators.DefaultATRPeriod
	}
	current := indicators.LatestATR(period, candles)
	if current == 0 {
		return 0, 0
	}
	avg := indicators.AverageATR(period, 0, candles)
	return current, indicators.AdaptiveMultiplier(current, avg)
}

// structureStop finds the nearest support (long) or resistance (short)
// within the lookback window and offsets it by 0.1% past the level.
func structureStop(pos *domain.Position, params StopParams, candles []types.OHLCV) float64 {
	lookback := params.StructureLookback
	if lookback <= 0 {
		lookback = 50
	}
	if pos.Side == domain.SideLong {
		support := indicators.NearestSupport(candles, lookback, pos.EntryPrice)
		if support == 0 {
			return 0
		}
		return support * (1 - structureOffsetPercent/100)
	}
	resistance := indicators.NearestResistance(candles, lookback, pos.EntryPrice)
	if resistance == 0 {
		return 0
	}
	return resistance * (1 + structureOffsetPercent/100)
}

// trailingActive reports whether the position has reached the
// activation profit, using the best price seen rather than the mark.
func trailingActive(pos *domain.Position, params StopParams) bool {
	if params.ActivationPercent <= 0 {
		return true
	}
	return bestProfitPercent(pos) >= params.ActivationPercent
}

func trailFromExtreme(pos *domain.Position, distancePercent float64) float64 {
	if pos.Side == domain.SideLong {
		return pos.HighestPrice * (1 - distancePercent/100)
	}
	return pos.LowestPrice * (1 + distancePercent/100)
}

// steppedStop picks the highest tier whose profit threshold the
// position has reached. Tiers are evaluated in descending threshold
// order so an earlier (lower) tier can never undercut a later one.
func steppedStop(pos *domain.Position, params StopParams) (float64, bool) {
	if len(params.Steps) == 0 {
		return 0, false
	}
	steps := make([]TrailingStep, len(params.Steps))
	copy(steps, params.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].ProfitPercent > steps[j].ProfitPercent })

	achieved := bestProfitPercent(pos)
	for _, step := range steps {
		if achieved >= step.ProfitPercent {
			sign := pos.Side.Sign()
			return pos.EntryPrice * (1 + sign*step.LockPercent/100), true
		}
	}
	return 0, false
}

// bestProfitPercent is the profit at the most favorable price seen
// since entry.
func bestProfitPercent(pos *domain.Position) float64 {
	if pos.Side == domain.SideLong {
		return pos.ProfitPercentAt(pos.HighestPrice)
	}
	return pos.ProfitPercentAt(pos.LowestPrice)
}

// tightens reports whether the candidate stop is strictly tighter than
// the current one for the given side.
func tightens(side domain.Side, current, candidate float64) bool {
	if candidate <= 0 {
		return false
	}
	if current == 0 {
		return true
	}
	if side == domain.SideLong {
		return candidate > current
	}
	return candidate < current
}

// isProtective reports whether a stop candidate sits on the protective
// side of the entry price.
func isProtective(side domain.Side, entry, stop float64) bool {
	if side == domain.SideLong {
		return stop < entry
	}
	return stop > entry
}
