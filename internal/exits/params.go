// Package exits computes and maintains stop-loss and take-profit
// levels for simulated positions. Level math is pure; the only state
// lives on the position itself (stop price, trailing extremes, hit
// flags on take-profit levels).
package exits

import (
	"time"
)

// StopType is the closed set of stop-loss variants. Compute and update
// switch exhaustively over it; adding a type without handling it is a
// compile-visible change, not a silent fall-through.
type StopType string

const (
	StopFixed            StopType = "fixed"
	StopATRBased         StopType = "atr_based"
	StopTrailing         StopType = "trailing"
	StopStructureBased   StopType = "structure_based"
	StopParabolicSAR     StopType = "parabolic_sar"
	StopTimeBased        StopType = "time_based"
	StopATRTrailing      StopType = "atr_trailing"
	StopSteppedTrailing  StopType = "stepped_trailing"
)

// TrailingStep is one tier of a stepped trailing stop: once the
// position's best profit reaches ProfitPercent, the stop is raised to
// lock in LockPercent of profit from entry.
type TrailingStep struct {
	ProfitPercent float64 `json:"profit_percent"`
	LockPercent   float64 `json:"lock_percent"`
}

// StopParams configures one position's stop-loss behavior.
type StopParams struct {
	Type StopType `json:"type"`

	// Percent is the fixed stop distance from entry, also the fallback
	// when a structure level cannot be found.
	Percent float64 `json:"percent,omitempty"`

	// ATR settings for atr_based and atr_trailing stops.
	ATRPeriod int `json:"atr_period,omitempty"`

	// Trailing settings.
	TrailingDistancePercent float64 `json:"trailing_distance_percent,omitempty"`
	ActivationPercent       float64 `json:"activation_percent,omitempty"`

	// Structure settings.
	StructureLookback int `json:"structure_lookback,omitempty"`

	// Time-based exit.
	MaxHoldingTime time.Duration `json:"max_holding_time,omitempty"`

	// Stepped trailing tiers. Kept sorted by descending profit
	// threshold; the highest reached tier wins.
	Steps []TrailingStep `json:"steps,omitempty"`
}

// structureOffsetPercent nudges a structure stop past the level so a
// wick touching support does not immediately trigger it.
const structureOffsetPercent = 0.1
