package domain

import "time"

// Order is a requested action the paper engine fills synchronously
// (market) or when price crosses the limit. An order opens or closes a
// position; it is not the position itself.
type Order struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Side       Side        `json:"side"`
	Type       OrderType   `json:"type"`
	Quantity   float64     `json:"quantity"`
	LimitPrice float64     `json:"limit_price,omitempty"`
	Status     OrderStatus `json:"status"`
	PositionID string      `json:"position_id,omitempty"`
	FillPrice  float64     `json:"fill_price,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	FilledAt   time.Time   `json:"filled_at,omitempty"`
}
