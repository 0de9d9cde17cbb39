package paper

import (
	"sort"
	"time"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
	"github.com/quantlab/crypto-paper-bot/internal/exits"
	"github.com/quantlab/crypto-paper-bot/internal/risk"
	"github.com/quantlab/crypto-paper-bot/pkg/config"
)

// AccountBalance is the balance snapshot returned by GetBalance.
type AccountBalance struct {
	Cash          float64 `json:"cash"`
	Locked        float64 `json:"locked"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Equity        float64 `json:"equity"`
}

// GetBalance returns the current account balance.
func (e *Engine) GetBalance() AccountBalance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return AccountBalance{
		Cash:          e.cash,
		Locked:        e.locked,
		UnrealizedPnL: e.positionsValue() - e.locked,
		Equity:        e.equityValue(),
	}
}

// GetPositions returns copies of all open and pending positions,
// ordered by open time.
func (e *Engine) GetPositions() []domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		if pos.Status != domain.StatusClosed {
			out = append(out, *snapshot(pos))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

// GetPosition returns a copy of one position by id.
func (e *Engine) GetPosition(id string) (domain.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.positions[id]
	if !ok {
		return domain.Position{}, false
	}
	return *snapshot(pos), true
}

// GetOrders returns copies of all orders in creation order, filled and
// cancelled ones included.
func (e *Engine) GetOrders() []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Order, 0, len(e.orders))
	for _, order := range e.orders {
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// GetClosedTrades returns the trade log in close order.
func (e *Engine) GetClosedTrades() []domain.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// GetEquityCurve returns the equity history in time order.
func (e *Engine) GetEquityCurve() []domain.EquityPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.EquityPoint, len(e.equity))
	copy(out, e.equity)
	return out
}

// GetEvents returns up to limit most recent domain events.
func (e *Engine) GetEvents(limit int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.tail(limit)
}

// GetRiskEvents returns up to limit most recent risk events.
func (e *Engine) GetRiskEvents(limit int) []domain.RiskEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enforcer.Events(limit)
}

// Stats is the summary returned by GetStats. It is a pure function of
// engine state: two calls with no mutation in between are identical.
type Stats struct {
	Equity        float64 `json:"equity"`
	Cash          float64 `json:"cash"`
	Locked        float64 `json:"locked"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`

	OpenPositions int `json:"open_positions"`
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	WinRate         float64 `json:"win_rate"`
	TotalPnL        float64 `json:"total_pnl"`
	TotalFees       float64 `json:"total_fees"`
	DrawdownPercent float64 `json:"drawdown_percent"`
	PeakEquity      float64 `json:"peak_equity"`

	EmergencyStop bool `json:"emergency_stop"`
}

// GetStats returns the summary statistics of the account.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		Equity:        e.equityValue(),
		Cash:          e.cash,
		Locked:        e.locked,
		UnrealizedPnL: e.positionsValue() - e.locked,
		OpenPositions: e.enforcer.OpenCount(),
		TotalTrades:   len(e.trades),

		DrawdownPercent: e.enforcer.DrawdownPercent(),
		PeakEquity:      e.enforcer.PeakBalance(),
		EmergencyStop:   e.enforcer.EmergencyStopped(),
	}
	for _, t := range e.trades {
		s.TotalPnL += t.PnL
		s.TotalFees += t.Fees
		if t.PnL > 0 {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
	return s
}

// CheckWarnings evaluates the warning thresholds and returns any new
// warnings. Warnings are also queued as RiskWarning events.
func (e *Engine) CheckWarnings() []domain.RiskEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	warnings := e.enforcer.CheckWarnings()
	for _, w := range warnings {
		e.events.push(Event{
			Type:      EventRiskWarning,
			Timestamp: w.Timestamp,
			Message:   w.Message,
		})
	}
	return warnings
}

// CanOpenPosition exposes the limit check without side effects on the
// account; strategies use it to pre-screen decisions.
func (e *Engine) CanOpenPosition(symbol string, size float64) risk.LimitCheckResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enforcer.CanOpenPosition(symbol, size)
}

// UpdateConfig applies a partial risk-config update. The enforcer
// reads the new limits on its next check.
func (e *Engine) UpdateConfig(patch config.RiskConfigPatch) config.RiskConfig {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg.Risk = e.cfg.Risk.Apply(patch)
	e.enforcer.UpdateConfig(e.cfg.Risk)
	return e.cfg.Risk
}

// SetEmergencyStop halts all position opening. Open positions keep
// their stop-loss/take-profit monitoring.
func (e *Engine) SetEmergencyStop(stop bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enforcer.SetEmergencyStop(stop)
}

// Reset clears all state back to the initial balance: positions,
// orders, trades, equity curve and events. The only destructive
// operation.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	e.cash = e.cfg.InitialBalance
	e.locked = 0
	e.positions = make(map[string]*domain.Position)
	e.orders = make(map[string]*domain.Order)
	e.stopParams = make(map[string]exits.StopParams)
	e.entryFees = make(map[string]float64)
	e.pendingMeta = make(map[string]pendingOpen)
	e.trades = nil
	e.equity = nil
	e.events.clear()
	e.enforcer.Reset(e.cfg.InitialBalance, now)
	e.appendEquityPoint()
}

// Now returns the engine clock, for hosts that schedule around it.
func (e *Engine) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock()
}
