package domain

import "time"

// Trade is the immutable record of a closed position (or a partial
// close). Created exactly once at close time, never mutated afterward.
type Trade struct {
	ID         string `json:"id"`
	PositionID string `json:"position_id"`
	Symbol     string `json:"symbol"`
	Side       Side   `json:"side"`
	Strategy   string `json:"strategy,omitempty"`

	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Quantity   float64 `json:"quantity"`

	PnL        float64 `json:"pnl"`
	PnLPercent float64 `json:"pnl_percent"`
	Fees       float64 `json:"fees"`
	Slippage   float64 `json:"slippage"`

	ExitReason ExitReason `json:"exit_reason,omitempty"`

	EntryTime time.Time `json:"entry_time"`
	ExitTime  time.Time `json:"exit_time"`
}

// EquityPoint is a timestamped snapshot of account value, appended
// whenever balance changes.
type EquityPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	Equity          float64   `json:"equity"`
	Cash            float64   `json:"cash"`
	PositionsValue  float64   `json:"positions_value"`
	DrawdownPercent float64   `json:"drawdown_percent"`
}

// RiskEvent is an append-only log entry recording a limit breach or
// warning.
type RiskEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
