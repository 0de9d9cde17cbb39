package exits

import (
	"github.com/quantlab/crypto-paper-bot/internal/domain"
	errs "github.com/quantlab/crypto-paper-bot/internal/errors"
	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// ValidateStopParams checks a stop configuration against the market
// state it will run with. Every violation is reported; nothing is
// thrown and no state is touched.
func ValidateStopParams(params StopParams, candles []types.OHLCV) error {
	v := errs.NewValidationErrors("exits")

	switch params.Type {
	case StopFixed:
		if params.Percent <= 0 || params.Percent >= 100 {
			v.Addf("fixed stop percent must be in (0, 100), got %.4f", params.Percent)
		}

	case StopATRBased, StopATRTrailing:
		if len(candles) == 0 {
			v.Addf("%s stop requires OHLCV data", params.Type)
		}

	case StopTrailing:
		if params.TrailingDistancePercent <= 0 || params.TrailingDistancePercent >= 100 {
			v.Addf("trailing distance must be in (0, 100), got %.4f", params.TrailingDistancePercent)
		}

	case StopStructureBased:
		if len(candles) == 0 {
			v.Addf("structure_based stop requires OHLCV data")
		}

	case StopParabolicSAR:
		if len(candles) < 2 {
			v.Addf("parabolic_sar stop requires at least 2 candles")
		}

	case StopTimeBased:
		if params.MaxHoldingTime <= 0 {
			v.Addf("time_based stop requires a positive max holding time")
		}

	case StopSteppedTrailing:
		if len(params.Steps) == 0 {
			v.Addf("stepped_trailing stop requires at least one step")
		}
		for i, step := range params.Steps {
			if step.ProfitPercent <= 0 {
				v.Addf("step %d: profit threshold must be greater than 0, got %.4f", i, step.ProfitPercent)
			}
			if step.LockPercent < 0 || step.LockPercent >= step.ProfitPercent {
				v.Addf("step %d: lock percent must be in [0, profit threshold), got %.4f", i, step.LockPercent)
			}
		}

	default:
		v.Addf("unknown stop type %q", params.Type)
	}

	return v.ErrOrNil()
}

// ValidateTakeProfits checks a take-profit ladder: levels must sit on
// the profitable side of entry, be strictly ordered in trigger
// direction, and close exactly 100% of the quantity within tolerance.
func ValidateTakeProfits(side domain.Side, entry float64, levels []domain.TakeProfitLevel) error {
	v := errs.NewValidationErrors("exits")
	if len(levels) == 0 {
		return nil
	}

	for i, level := range levels {
		if level.Price <= 0 {
			v.Addf("level %d: price must be greater than 0, got %.4f", i, level.Price)
			continue
		}
		if side == domain.SideLong && level.Price <= entry {
			v.Addf("level %d: price %.4f must be above entry %.4f for a long", i, level.Price, entry)
		}
		if side == domain.SideShort && level.Price >= entry {
			v.Addf("level %d: price %.4f must be below entry %.4f for a short", i, level.Price, entry)
		}
		if level.ClosePercent <= 0 || level.ClosePercent > 100 {
			v.Addf("level %d: close percent must be in (0, 100], got %.4f", i, level.ClosePercent)
		}
	}

	for i := 1; i < len(levels); i++ {
		prev, cur := levels[i-1].Price, levels[i].Price
		if side == domain.SideLong && cur <= prev {
			v.Addf("levels must be strictly ascending for a long: level %d (%.4f) <= level %d (%.4f)", i, cur, i-1, prev)
		}
		if side == domain.SideShort && cur >= prev {
			v.Addf("levels must be strictly descending for a short: level %d (%.4f) >= level %d (%.4f)", i, cur, i-1, prev)
		}
	}

	if !closePercentsSumTo100(levels) {
		v.Addf("close percents must sum to 100 within %.2f, got %.4f", closePercentTolerance, SumClosePercent(levels))
	}

	return v.ErrOrNil()
}
