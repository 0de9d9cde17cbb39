// Package sizing converts balance and risk parameters into a position
// size. All functions are pure.
package sizing

import (
	errs "github.com/quantlab/crypto-paper-bot/internal/errors"
)

// Method selects the sizing algorithm.
type Method string

const (
	MethodFixed      Method = "fixed"
	MethodPercentage Method = "percentage"
	MethodATRBased   Method = "atr_based"
	MethodKelly      Method = "kelly"
)

// Params is the input to Calculate.
type Params struct {
	Method              Method
	Balance             float64
	RiskPerTradePercent float64
	EntryPrice          float64

	// StopLossPercent is the stop distance as a percent of entry.
	// Used by the fixed and percentage methods.
	StopLossPercent float64

	// ATR stop distance inputs, used by the atr_based method.
	ATR           float64
	ATRMultiplier float64

	// Kelly inputs.
	WinRate         float64 // in [0, 1]
	AvgWinLossRatio float64 // average win / average loss, > 0

	// MaxPositionSizePercent caps the Kelly fraction.
	MaxPositionSizePercent float64
}

// Result is the computed position size.
type Result struct {
	Size     float64 // notional in quote currency
	Quantity float64 // Size / EntryPrice
}

// Calculate computes the position size for the given parameters.
func Calculate(p Params) (Result, error) {
	if err := validate(p); err != nil {
		return Result{}, err
	}

	var size float64
	switch p.Method {
	case MethodFixed, MethodPercentage:
		size = riskBasedSize(p.Balance, p.RiskPerTradePercent, p.StopLossPercent)
	case MethodATRBased:
		stopPercent := p.ATR * p.ATRMultiplier / p.EntryPrice * 100
		size = riskBasedSize(p.Balance, p.RiskPerTradePercent, stopPercent)
	case MethodKelly:
		size = kellySize(p)
	default:
		v := errs.NewValidationErrors("sizing")
		v.Addf("unknown sizing method %q", p.Method)
		return Result{}, v
	}

	if size < 0 {
		size = 0
	}
	return Result{Size: size, Quantity: size / p.EntryPrice}, nil
}

// riskBasedSize converts a fixed risk amount and a stop distance into
// a notional: losing stopLossPercent of the notional loses exactly the
// risk amount.
func riskBasedSize(balance, riskPerTrade, stopLossPercent float64) float64 {
	riskAmount := balance * riskPerTrade / 100
	if stopLossPercent <= 0 {
		return riskAmount
	}
	return riskAmount / (stopLossPercent / 100)
}

// kellySize applies the Kelly criterion, clamped to the configured
// maximum position fraction.
func kellySize(p Params) float64 {
	fraction := p.WinRate - (1-p.WinRate)/p.AvgWinLossRatio
	if fraction < 0 {
		fraction = 0
	}
	maxFraction := p.MaxPositionSizePercent / 100
	if maxFraction > 0 && fraction > maxFraction {
		fraction = maxFraction
	}
	return p.Balance * fraction
}

func validate(p Params) error {
	v := errs.NewValidationErrors("sizing")
	if p.EntryPrice <= 0 {
		v.Addf("entry price must be greater than 0, got %.4f", p.EntryPrice)
	}
	if p.RiskPerTradePercent <= 0 && p.Method != MethodKelly {
		v.Addf("risk per trade must be greater than 0, got %.4f", p.RiskPerTradePercent)
	}
	if p.Balance <= 0 {
		v.Addf("balance must be greater than 0, got %.2f", p.Balance)
	}
	if p.Method == MethodKelly {
		if p.WinRate < 0 || p.WinRate > 1 {
			v.Addf("win rate must be in [0, 1], got %.4f", p.WinRate)
		}
		if p.AvgWinLossRatio <= 0 {
			v.Addf("average win/loss ratio must be greater than 0, got %.4f", p.AvgWinLossRatio)
		}
	}
	if p.Method == MethodATRBased && p.ATR <= 0 {
		v.Addf("atr must be greater than 0 for atr_based sizing, got %.4f", p.ATR)
	}
	return v.ErrOrNil()
}
