package domain

// Side is the direction of a position or order.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Sign returns +1 for long and -1 for short, the multiplier applied to
// price moves when computing PnL.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// PositionStatus tracks the position lifecycle.
type PositionStatus string

const (
	StatusPending PositionStatus = "pending"
	StatusOpen    PositionStatus = "open"
	StatusClosed  PositionStatus = "closed"
)

// OrderType distinguishes immediate from price-conditional fills.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ExitReason records why a position (or part of it) was closed.
type ExitReason string

const (
	ExitReasonStopLoss   ExitReason = "stop-loss"
	ExitReasonTakeProfit ExitReason = "take-profit"
	ExitReasonSignal     ExitReason = "signal"
	ExitReasonTimeLimit  ExitReason = "time-limit"
	ExitReasonManual     ExitReason = "manual"
)
