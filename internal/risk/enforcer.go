// Package risk enforces portfolio-level limits over the paper trading
// engine. The enforcer owns the balance, peak-equity and daily-window
// state plus the per-symbol exposure map; the engine registers and
// releases exposure as positions open and close.
package risk

import (
	"fmt"
	"time"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
	"github.com/quantlab/crypto-paper-bot/pkg/config"
)

// LimitCheckResult is the structured outcome of a single risk rule.
// A rejection is data, not an error: the caller decides what to do.
type LimitCheckResult struct {
	Allowed      bool    `json:"allowed"`
	Rule         string  `json:"rule,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	CurrentValue float64 `json:"current_value,omitempty"`
	LimitValue   float64 `json:"limit_value,omitempty"`
}

func allowed() LimitCheckResult {
	return LimitCheckResult{Allowed: true}
}

// Rule names used in results and events.
const (
	RulePositionSize  = "max_position_size"
	RuleMaxPositions  = "max_positions"
	RuleDailyLoss     = "max_daily_loss"
	RuleTotalDrawdown = "max_total_drawdown"
	RuleAssetExposure = "max_asset_exposure"
	RuleCorrelation   = "max_correlated_positions"
)

// maxEvents bounds the risk event ring buffer.
const maxEvents = 200

// Enforcer tracks balance, peak equity, the daily loss window and open
// exposure, and answers whether a new position may be opened. Checks
// run in a fixed order and short-circuit on the first failure. Config
// is re-read on every check, so updates apply immediately.
type Enforcer struct {
	cfg config.RiskConfig

	balance           float64
	initialBalance    float64
	peakBalance       float64
	dailyStartBalance float64
	dailyDate         time.Time // UTC midnight of the current window

	exposure  map[string]float64 // symbol -> open notional
	openCount int

	emergencyStop bool

	events []domain.RiskEvent
}

// NewEnforcer creates an enforcer with the given limits and starting
// balance. The daily window opens at the UTC date of now.
func NewEnforcer(cfg config.RiskConfig, initialBalance float64, now time.Time) *Enforcer {
	return &Enforcer{
		cfg:               cfg,
		balance:           initialBalance,
		initialBalance:    initialBalance,
		peakBalance:       initialBalance,
		dailyStartBalance: initialBalance,
		dailyDate:         utcMidnight(now),
		exposure:          make(map[string]float64),
	}
}

// UpdateConfig swaps in new limits; the next check uses them.
func (e *Enforcer) UpdateConfig(cfg config.RiskConfig) {
	e.cfg = cfg
}

// Config returns the limits currently in force.
func (e *Enforcer) Config() config.RiskConfig {
	return e.cfg
}

// CanOpenPosition runs the limit checks in their fixed order: position
// size, concurrent positions, daily loss, total drawdown, per-asset
// exposure. The first failing check is returned.
func (e *Enforcer) CanOpenPosition(symbol string, size float64) LimitCheckResult {
	if e.emergencyStop {
		return LimitCheckResult{
			Allowed: false,
			Rule:    "emergency_stop",
			Reason:  "emergency stop is active; no new positions",
		}
	}

	if res := e.checkPositionSize(size); !res.Allowed {
		e.recordBreach(res)
		return res
	}
	if res := e.checkMaxPositions(); !res.Allowed {
		e.recordBreach(res)
		return res
	}
	if res := e.CheckDailyLoss(); !res.Allowed {
		e.recordBreach(res)
		return res
	}
	if res := e.checkTotalDrawdown(); !res.Allowed {
		e.recordBreach(res)
		return res
	}
	if res := e.checkAssetExposure(symbol, size); !res.Allowed {
		e.recordBreach(res)
		return res
	}
	return allowed()
}

func (e *Enforcer) checkPositionSize(size float64) LimitCheckResult {
	limit := e.balance * e.cfg.MaxPositionSizePercent / 100
	if size > limit {
		return LimitCheckResult{
			Allowed:      false,
			Rule:         RulePositionSize,
			Reason:       fmt.Sprintf("position size %.2f exceeds maximum %.2f (%.1f%% of balance)", size, limit, e.cfg.MaxPositionSizePercent),
			CurrentValue: size,
			LimitValue:   limit,
		}
	}
	return allowed()
}

func (e *Enforcer) checkMaxPositions() LimitCheckResult {
	if e.openCount >= e.cfg.MaxPositions {
		return LimitCheckResult{
			Allowed:      false,
			Rule:         RuleMaxPositions,
			Reason:       fmt.Sprintf("Maximum number of positions reached (%d)", e.cfg.MaxPositions),
			CurrentValue: float64(e.openCount),
			LimitValue:   float64(e.cfg.MaxPositions),
		}
	}
	return allowed()
}

// CheckDailyLoss compares today's PnL against the daily loss limit.
// The baseline resets at UTC midnight via Tick.
func (e *Enforcer) CheckDailyLoss() LimitCheckResult {
	if e.dailyStartBalance <= 0 {
		return allowed()
	}
	dailyPnLPercent := (e.balance - e.dailyStartBalance) / e.dailyStartBalance * 100
	if dailyPnLPercent <= -e.cfg.MaxDailyLossPercent {
		return LimitCheckResult{
			Allowed:      false,
			Rule:         RuleDailyLoss,
			Reason:       fmt.Sprintf("daily loss %.2f%% has reached the %.2f%% limit", -dailyPnLPercent, e.cfg.MaxDailyLossPercent),
			CurrentValue: -dailyPnLPercent,
			LimitValue:   e.cfg.MaxDailyLossPercent,
		}
	}
	return allowed()
}

func (e *Enforcer) checkTotalDrawdown() LimitCheckResult {
	dd := e.DrawdownPercent()
	if dd >= e.cfg.MaxTotalDrawdownPercent {
		return LimitCheckResult{
			Allowed:      false,
			Rule:         RuleTotalDrawdown,
			Reason:       fmt.Sprintf("drawdown %.2f%% has reached the %.2f%% limit", dd, e.cfg.MaxTotalDrawdownPercent),
			CurrentValue: dd,
			LimitValue:   e.cfg.MaxTotalDrawdownPercent,
		}
	}
	return allowed()
}

func (e *Enforcer) checkAssetExposure(symbol string, size float64) LimitCheckResult {
	if e.balance <= 0 {
		return allowed()
	}
	exposurePercent := (e.exposure[symbol] + size) / e.balance * 100
	if exposurePercent > e.cfg.MaxAssetExposurePercent {
		return LimitCheckResult{
			Allowed:      false,
			Rule:         RuleAssetExposure,
			Reason:       fmt.Sprintf("%s exposure %.2f%% would exceed the %.2f%% limit", symbol, exposurePercent, e.cfg.MaxAssetExposurePercent),
			CurrentValue: exposurePercent,
			LimitValue:   e.cfg.MaxAssetExposurePercent,
		}
	}
	return allowed()
}

// CheckWarnings evaluates every limit at its warning threshold
// (WarningRatio of the limit, 80% by default). Warnings are recorded
// as events and never block.
func (e *Enforcer) CheckWarnings() []domain.RiskEvent {
	ratio := e.cfg.WarningRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.8
	}

	var warnings []domain.RiskEvent
	warn := func(rule, format string, args ...interface{}) {
		ev := domain.RiskEvent{
			Type:      "warning:" + rule,
			Message:   fmt.Sprintf(format, args...),
			Timestamp: time.Now().UTC(),
		}
		warnings = append(warnings, ev)
		e.record(ev)
	}

	if float64(e.openCount) >= float64(e.cfg.MaxPositions)*ratio {
		warn(RuleMaxPositions, "open positions %d approaching limit %d", e.openCount, e.cfg.MaxPositions)
	}
	if e.dailyStartBalance > 0 {
		dailyLoss := -(e.balance - e.dailyStartBalance) / e.dailyStartBalance * 100
		if dailyLoss >= e.cfg.MaxDailyLossPercent*ratio {
			warn(RuleDailyLoss, "daily loss %.2f%% approaching limit %.2f%%", dailyLoss, e.cfg.MaxDailyLossPercent)
		}
	}
	if dd := e.DrawdownPercent(); dd >= e.cfg.MaxTotalDrawdownPercent*ratio {
		warn(RuleTotalDrawdown, "drawdown %.2f%% approaching limit %.2f%%", dd, e.cfg.MaxTotalDrawdownPercent)
	}
	if e.balance > 0 {
		for symbol, notional := range e.exposure {
			exposurePercent := notional / e.balance * 100
			if exposurePercent >= e.cfg.MaxAssetExposurePercent*ratio {
				warn(RuleAssetExposure, "%s exposure %.2f%% approaching limit %.2f%%", symbol, exposurePercent, e.cfg.MaxAssetExposurePercent)
			}
		}
	}
	return warnings
}

// RegisterPosition records a newly opened position's exposure.
func (e *Enforcer) RegisterPosition(symbol string, size float64) {
	e.exposure[symbol] += size
	e.openCount++
}

// ReduceExposure shrinks a symbol's exposure after a partial close.
func (e *Enforcer) ReduceExposure(symbol string, size float64) {
	e.exposure[symbol] -= size
	if e.exposure[symbol] < 0 {
		e.exposure[symbol] = 0
	}
}

// ReleasePosition removes a fully closed position.
func (e *Enforcer) ReleasePosition(symbol string, size float64) {
	e.ReduceExposure(symbol, size)
	if e.openCount > 0 {
		e.openCount--
	}
}

// UpdateBalance records a balance change. The peak only ever moves up.
func (e *Enforcer) UpdateBalance(balance float64) {
	e.balance = balance
	if balance > e.peakBalance {
		e.peakBalance = balance
	}
}

// Tick advances the clock; when the UTC date changes the daily loss
// baseline resets to the current balance. The host calls this, the
// enforcer runs no timers of its own.
func (e *Enforcer) Tick(now time.Time) {
	day := utcMidnight(now)
	if day.After(e.dailyDate) {
		e.dailyDate = day
		e.dailyStartBalance = e.balance
	}
}

// SetEmergencyStop halts new position openings. Existing positions are
// unaffected and continue to be monitored.
func (e *Enforcer) SetEmergencyStop(stop bool) {
	e.emergencyStop = stop
	if stop {
		e.record(domain.RiskEvent{
			Type:      "emergency_stop",
			Message:   "emergency stop activated; position opening halted",
			Timestamp: time.Now().UTC(),
		})
	}
}

// EmergencyStopped reports whether the emergency stop is active.
func (e *Enforcer) EmergencyStopped() bool {
	return e.emergencyStop
}

// Balance returns the tracked balance.
func (e *Enforcer) Balance() float64 { return e.balance }

// PeakBalance returns the monotonic peak.
func (e *Enforcer) PeakBalance() float64 { return e.peakBalance }

// DailyStartBalance returns the balance at the opening of the current
// UTC day.
func (e *Enforcer) DailyStartBalance() float64 { return e.dailyStartBalance }

// DrawdownPercent returns the decline from peak as a percentage.
func (e *Enforcer) DrawdownPercent() float64 {
	if e.peakBalance <= 0 {
		return 0
	}
	dd := (e.peakBalance - e.balance) / e.peakBalance * 100
	if dd < 0 {
		return 0
	}
	return dd
}

// OpenCount returns the number of registered open positions.
func (e *Enforcer) OpenCount() int { return e.openCount }

// Events returns up to limit most recent risk events, newest last.
// limit <= 0 returns everything retained.
func (e *Enforcer) Events(limit int) []domain.RiskEvent {
	evs := e.events
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	out := make([]domain.RiskEvent, len(evs))
	copy(out, evs)
	return out
}

// Reset clears all state back to the initial balance. The only
// destructive operation.
func (e *Enforcer) Reset(initialBalance float64, now time.Time) {
	e.balance = initialBalance
	e.initialBalance = initialBalance
	e.peakBalance = initialBalance
	e.dailyStartBalance = initialBalance
	e.dailyDate = utcMidnight(now)
	e.exposure = make(map[string]float64)
	e.openCount = 0
	e.emergencyStop = false
	e.events = nil
}

func (e *Enforcer) recordBreach(res LimitCheckResult) {
	e.record(domain.RiskEvent{
		Type:      "breach:" + res.Rule,
		Message:   res.Reason,
		Timestamp: time.Now().UTC(),
	})
}

func (e *Enforcer) record(ev domain.RiskEvent) {
	e.events = append(e.events, ev)
	if len(e.events) > maxEvents {
		e.events = e.events[len(e.events)-maxEvents:]
	}
}

func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
