package domain

import "time"

// TakeProfitLevel is one rung of a multi-level take-profit ladder.
// ClosePercent is the fraction of the original quantity to close when
// the level triggers; the percents across a ladder sum to 100.
type TakeProfitLevel struct {
	Price        float64 `json:"price"`
	ClosePercent float64 `json:"close_percent"`
	Hit          bool    `json:"hit"`
}

// Position is a simulated holding. It is owned by the paper engine and
// referenced by its opaque ID; callers receive copies, never pointers
// into the engine's map.
type Position struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Side   Side   `json:"side"`

	EntryPrice        float64 `json:"entry_price"`
	Quantity          float64 `json:"quantity"`
	RemainingQuantity float64 `json:"remaining_quantity"`
	Size              float64 `json:"size"` // notional at entry

	StopLoss    float64           `json:"stop_loss"`
	TakeProfits []TakeProfitLevel `json:"take_profits"`

	// Trailing state: running extremes since entry.
	HighestPrice float64 `json:"highest_price"`
	LowestPrice  float64 `json:"lowest_price"`

	MarkPrice     float64 `json:"mark_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`

	Status   PositionStatus `json:"status"`
	Strategy string         `json:"strategy"`

	OpenedAt time.Time `json:"opened_at"`
	ClosedAt time.Time `json:"closed_at"`
}

// IsOpen checks if the position status is open.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// PnLAt returns the unrealized PnL of the remaining quantity at the
// given price.
func (p *Position) PnLAt(price float64) float64 {
	return (price - p.EntryPrice) * p.RemainingQuantity * p.Side.Sign()
}

// ProfitPercentAt returns the price move from entry as a signed
// percentage in the direction of the position.
func (p *Position) ProfitPercentAt(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100 * p.Side.Sign()
}

// UpdateExtremes records a new price into the trailing high/low state.
func (p *Position) UpdateExtremes(price float64) {
	if price > p.HighestPrice {
		p.HighestPrice = price
	}
	if p.LowestPrice == 0 || price < p.LowestPrice {
		p.LowestPrice = price
	}
}
