package paper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
	errs "github.com/quantlab/crypto-paper-bot/internal/errors"
	"github.com/quantlab/crypto-paper-bot/internal/exits"
	"github.com/quantlab/crypto-paper-bot/pkg/config"
	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// testEngine builds an engine with deterministic fees: 0.1% both
// sides, no slippage, wide-open risk limits unless a test tightens
// them.
func testEngine() *Engine {
	cfg := config.DefaultEngineConfig()
	cfg.Fees = config.FeeConfig{MakerFeePercent: 0.1, TakerFeePercent: 0.1, SlippagePercent: 0}
	cfg.Risk.MaxPositionSizePercent = 100
	cfg.Risk.MaxAssetExposurePercent = 100
	cfg.Risk.DefaultTakeProfitPercent = 0
	return NewEngine(cfg, nil)
}

func openLong(t *testing.T, e *Engine, qty float64) *domain.Position {
	t.Helper()
	pos, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Quantity: qty,
	})
	assert.NoError(t, err)
	return pos
}

// TestOpenClose_Accounting walks a full round trip and checks every
// balance leg: buy 0.1 BTC at 50000 with 0.1% fees, sell at 52000.
func TestOpenClose_Accounting(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)

	pos := openLong(t, e, 0.1)
	assert.Equal(t, domain.StatusOpen, pos.Status)
	assert.Equal(t, 50000.0, pos.EntryPrice)
	assert.Equal(t, 5000.0, pos.Size)

	bal := e.GetBalance()
	// Entry fee 5000*0.1% = 5 debited up front.
	assert.InDelta(t, 4995.0, bal.Cash, 1e-9)
	assert.InDelta(t, 5000.0, bal.Locked, 1e-9)

	trade, err := e.ClosePosition(pos.ID, 52000)
	assert.NoError(t, err)

	// Gross 200, exit fee 5.2, entry fee 5 -> net 189.8.
	assert.InDelta(t, 189.8, trade.PnL, 1e-9)
	assert.Equal(t, domain.ExitReasonManual, trade.ExitReason)

	bal = e.GetBalance()
	assert.InDelta(t, 10189.8, bal.Cash, 1e-9)
	assert.InDelta(t, 0.0, bal.Locked, 1e-9)
	assert.InDelta(t, 10189.8, bal.Equity, 1e-9)
}

// TestStopLoss_ClosesAtStopPrice fills the stop at the stop price, not
// at the price that pierced it.
func TestStopLoss_ClosesAtStopPrice(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)

	pos := openLong(t, e, 0.1)
	// Default fixed stop 2% below entry.
	assert.InDelta(t, 49000.0, pos.StopLoss, 1e-9)

	e.OnPrice("BTCUSDT", 48900, t0.Add(time.Minute))

	trades := e.GetClosedTrades()
	assert.Len(t, trades, 1)
	assert.Equal(t, domain.ExitReasonStopLoss, trades[0].ExitReason)
	assert.InDelta(t, 49000.0, trades[0].ExitPrice, 1e-9)

	got, ok := e.GetPosition(pos.ID)
	assert.True(t, ok)
	assert.Equal(t, domain.StatusClosed, got.Status)
}

// TestTakeProfit_PartialClose closes the configured fraction at each
// ladder level and leaves the rest running.
func TestTakeProfit_PartialClose(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Quantity: 10,
		TakeProfits: []domain.TakeProfitLevel{
			{Price: 102, ClosePercent: 50},
			{Price: 104, ClosePercent: 50},
		},
	})
	assert.NoError(t, err)

	// First level only.
	e.OnPrice("BTCUSDT", 102.5, t0.Add(time.Minute))

	got, ok := e.GetPosition(pos.ID)
	assert.True(t, ok)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.InDelta(t, 5.0, got.RemainingQuantity, 1e-9)
	assert.True(t, got.TakeProfits[0].Hit)
	assert.False(t, got.TakeProfits[1].Hit)

	trades := e.GetClosedTrades()
	assert.Len(t, trades, 1)
	assert.Equal(t, domain.ExitReasonTakeProfit, trades[0].ExitReason)
	assert.InDelta(t, 102.0, trades[0].ExitPrice, 1e-9)

	// Second level closes the remainder.
	e.OnPrice("BTCUSDT", 104.2, t0.Add(2*time.Minute))

	got, _ = e.GetPosition(pos.ID)
	assert.Equal(t, domain.StatusClosed, got.Status)
	assert.Len(t, e.GetClosedTrades(), 2)
}

// TestTakeProfit_GapCrossesWholeLadder fills every level when one tick
// jumps past the entire ladder.
func TestTakeProfit_GapCrossesWholeLadder(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Quantity: 10,
		TakeProfits: []domain.TakeProfitLevel{
			{Price: 102, ClosePercent: 50},
			{Price: 104, ClosePercent: 50},
		},
	})
	assert.NoError(t, err)

	e.OnPrice("BTCUSDT", 110, t0.Add(time.Minute))

	got, _ := e.GetPosition(pos.ID)
	assert.Equal(t, domain.StatusClosed, got.Status)

	trades := e.GetClosedTrades()
	assert.Len(t, trades, 2)
	// Each level fills at its own price.
	assert.InDelta(t, 102.0, trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, 104.0, trades[1].ExitPrice, 1e-9)
}

// TestLimitOrder_RestsUntilCrossed keeps a limit buy pending until the
// price touches it.
func TestLimitOrder_RestsUntilCrossed(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:     "BTCUSDT",
		Side:       domain.SideLong,
		OrderType:  domain.OrderTypeLimit,
		LimitPrice: 49500,
		Quantity:   0.1,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusPending, pos.Status)

	// Above the limit: still resting.
	e.OnPrice("BTCUSDT", 49800, t0.Add(time.Minute))
	got, _ := e.GetPosition(pos.ID)
	assert.Equal(t, domain.StatusPending, got.Status)

	// At the limit: fills at the limit price with the maker fee.
	e.OnPrice("BTCUSDT", 49500, t0.Add(2*time.Minute))
	got, _ = e.GetPosition(pos.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.InDelta(t, 49500.0, got.EntryPrice, 1e-9)
}

// TestLimitOrder_CancelWhilePending cancels a resting order through
// ClosePosition.
func TestLimitOrder_CancelWhilePending(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:     "BTCUSDT",
		Side:       domain.SideLong,
		OrderType:  domain.OrderTypeLimit,
		LimitPrice: 49000,
		Quantity:   0.1,
	})
	assert.NoError(t, err)

	trade, err := e.ClosePosition(pos.ID, 0)
	assert.NoError(t, err)
	assert.Nil(t, trade)

	_, ok := e.GetPosition(pos.ID)
	assert.False(t, ok)
	assert.InDelta(t, 10000.0, e.GetBalance().Cash, 1e-9)
}

// TestOpenPosition_InsufficientBalance rejects an order the cash
// cannot cover, fee included.
func TestOpenPosition_InsufficientBalance(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)

	_, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Size:     10000, // fee pushes the total past cash
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
	assert.Empty(t, e.GetPositions())
}

// TestOpenPosition_NoKnownPrice refuses a market order before any
// price has been seen.
func TestOpenPosition_NoKnownPrice(t *testing.T) {
	e := testEngine()

	_, err := e.OpenPosition(OpenRequest{Symbol: "BTCUSDT", Side: domain.SideLong, Quantity: 1})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

// TestOpenPosition_RiskRejected surfaces the limit reason and leaves
// state untouched.
func TestOpenPosition_RiskRejected(t *testing.T) {
	e := testEngine()
	e.cfg.Risk.MaxPositionSizePercent = 10
	e.OnPrice("BTCUSDT", 100, t0)

	_, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Size:     2000,
	})
	assert.ErrorIs(t, err, errs.ErrLimitExceeded)
	assert.Empty(t, e.GetPositions())
	assert.InDelta(t, 10000.0, e.GetBalance().Cash, 1e-9)
}

// TestEmergencyStop_BlocksOpens halts new entries but keeps exits
// working.
func TestEmergencyStop_BlocksOpens(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)
	pos := openLong(t, e, 0.05)

	e.SetEmergencyStop(true)

	_, err := e.OpenPosition(OpenRequest{Symbol: "BTCUSDT", Side: domain.SideLong, Quantity: 0.05})
	assert.ErrorIs(t, err, errs.ErrLimitExceeded)

	// The open position still honors its stop.
	e.OnPrice("BTCUSDT", 48000, t0.Add(time.Minute))
	got, _ := e.GetPosition(pos.ID)
	assert.Equal(t, domain.StatusClosed, got.Status)
}

// TestShortPosition_ProfitsOnDecline verifies the short-side PnL sign.
func TestShortPosition_ProfitsOnDecline(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideShort,
		Quantity: 10,
	})
	assert.NoError(t, err)
	// Default 2% stop sits above entry for a short.
	assert.InDelta(t, 102.0, pos.StopLoss, 1e-9)

	trade, err := e.ClosePosition(pos.ID, 95)
	assert.NoError(t, err)
	assert.Greater(t, trade.PnL, 0.0)
}

// TestSlippage_AdverseToClose fills a long exit below the trigger
// price.
func TestSlippage_AdverseToClose(t *testing.T) {
	e := testEngine()
	e.cfg.Fees.SlippagePercent = 0.1
	e.OnPrice("BTCUSDT", 100, t0)

	pos := openLong(t, e, 10)
	trade, err := e.ClosePosition(pos.ID, 110)
	assert.NoError(t, err)

	assert.InDelta(t, 109.89, trade.ExitPrice, 1e-9)
	assert.Greater(t, trade.Slippage, 0.0)
}

// TestTimeExit_FiresOnTick closes a time-limited position on a clock
// tick with no price movement.
func TestTimeExit_FiresOnTick(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Quantity: 10,
		Stop:     &exits.StopParams{Type: exits.StopTimeBased, MaxHoldingTime: 4 * time.Hour},
	})
	assert.NoError(t, err)

	e.Tick(t0.Add(3 * time.Hour))
	got, _ := e.GetPosition(pos.ID)
	assert.Equal(t, domain.StatusOpen, got.Status)

	e.Tick(t0.Add(5 * time.Hour))
	got, _ = e.GetPosition(pos.ID)
	assert.Equal(t, domain.StatusClosed, got.Status)

	trades := e.GetClosedTrades()
	assert.Len(t, trades, 1)
	assert.Equal(t, domain.ExitReasonTimeLimit, trades[0].ExitReason)
}

// TestUpdatePosition_MovesStop adjusts exit levels in place.
func TestUpdatePosition_MovesStop(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)
	pos := openLong(t, e, 10)

	newStop := 99.0
	got, err := e.UpdatePosition(pos.ID, UpdateRequest{StopLoss: &newStop})
	assert.NoError(t, err)
	assert.Equal(t, 99.0, got.StopLoss)

	// An invalid ladder is rejected wholesale.
	_, err = e.UpdatePosition(pos.ID, UpdateRequest{
		TakeProfits: []domain.TakeProfitLevel{{Price: 90, ClosePercent: 100}},
	})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

// TestEvents_EmittedOnLifecycle queues events for fills, opens and
// closes.
func TestEvents_EmittedOnLifecycle(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)
	pos := openLong(t, e, 10)
	_, err := e.ClosePosition(pos.ID, 101)
	assert.NoError(t, err)

	events := e.GetEvents(0)
	var kinds []EventType
	for _, ev := range events {
		kinds = append(kinds, ev.Type)
	}
	assert.Contains(t, kinds, EventOrderFilled)
	assert.Contains(t, kinds, EventPositionOpened)
	assert.Contains(t, kinds, EventPositionClosed)
}

// TestGetStats_Idempotent returns identical stats on repeated calls.
func TestGetStats_Idempotent(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)
	pos := openLong(t, e, 10)
	_, err := e.ClosePosition(pos.ID, 103)
	assert.NoError(t, err)

	first := e.GetStats()
	second := e.GetStats()
	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.TotalTrades)
	assert.Equal(t, 1, first.WinningTrades)
}

// TestReset_RestoresInitialState wipes everything back to the starting
// balance.
func TestReset_RestoresInitialState(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)
	pos := openLong(t, e, 10)
	_, err := e.ClosePosition(pos.ID, 103)
	assert.NoError(t, err)

	e.Reset()

	bal := e.GetBalance()
	assert.Equal(t, 10000.0, bal.Cash)
	assert.Equal(t, 0.0, bal.Locked)
	assert.Empty(t, e.GetPositions())
	assert.Empty(t, e.GetClosedTrades())
	assert.Empty(t, e.GetEvents(0))
	assert.Len(t, e.GetEquityCurve(), 1)
}

// TestEquityCurve_AppendsOnBalanceChanges records points at open and
// close, not on every tick.
func TestEquityCurve_AppendsOnBalanceChanges(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 100, t0)

	start := len(e.GetEquityCurve())

	e.OnPrice("BTCUSDT", 101, t0.Add(time.Minute))
	e.OnPrice("BTCUSDT", 102, t0.Add(2*time.Minute))
	assert.Len(t, e.GetEquityCurve(), start)

	pos := openLong(t, e, 10)
	assert.Len(t, e.GetEquityCurve(), start+1)

	_, err := e.ClosePosition(pos.ID, 105)
	assert.NoError(t, err)
	assert.Len(t, e.GetEquityCurve(), start+2)
}

// TestDefaultTakeProfit_Applied attaches the configured single target
// when the request carries none.
func TestDefaultTakeProfit_Applied(t *testing.T) {
	e := testEngine()
	e.cfg.Risk.DefaultTakeProfitPercent = 4.0
	e.OnPrice("BTCUSDT", 100, t0)

	pos := openLong(t, e, 10)
	assert.Len(t, pos.TakeProfits, 1)
	assert.InDelta(t, 104.0, pos.TakeProfits[0].Price, 1e-9)
	assert.Equal(t, 100.0, pos.TakeProfits[0].ClosePercent)
}

// seedCloses seeds a candle history whose closes follow the given
// series, one candle per minute ending at t0.
func seedCloses(e *Engine, symbol string, closes ...float64) {
	candles := make([]types.OHLCV, len(closes))
	for i, c := range closes {
		candles[i] = types.OHLCV{
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
			Timestamp: t0.Add(time.Duration(i-len(closes)) * time.Minute),
		}
	}
	e.SeedCandles(symbol, candles)
}

// TestTrailingStop_ConfigDefaults fills in the configured trailing
// distance and activation when the request names only the stop type.
func TestTrailingStop_ConfigDefaults(t *testing.T) {
	e := testEngine() // trailing defaults: 1.5% distance, 1% activation
	e.OnPrice("BTCUSDT", 50000, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Quantity: 0.1,
		Stop:     &exits.StopParams{Type: exits.StopTrailing},
	})
	assert.NoError(t, err)
	// Initial stop sits 1.5% below entry.
	assert.InDelta(t, 49250.0, pos.StopLoss, 1e-9)

	// 2% in profit clears the 1% activation; the stop trails 1.5%
	// behind the high.
	e.OnPrice("BTCUSDT", 51000, t0.Add(time.Minute))
	got, _ := e.GetPosition(pos.ID)
	assert.InDelta(t, 51000*0.985, got.StopLoss, 1e-9)
}

// TestTrailingStop_ExplicitDistanceWins keeps a request-level distance
// over the configured default.
func TestTrailingStop_ExplicitDistanceWins(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:   "BTCUSDT",
		Side:     domain.SideLong,
		Quantity: 0.1,
		Stop:     &exits.StopParams{Type: exits.StopTrailing, TrailingDistancePercent: 3},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 48500.0, pos.StopLoss, 1e-9)
}

// TestOpenPosition_CorrelationCapBlocks rejects an entry once too many
// open positions move with the candidate symbol.
func TestOpenPosition_CorrelationCapBlocks(t *testing.T) {
	e := testEngine()
	maxCorr := 1
	e.UpdateConfig(config.RiskConfigPatch{MaxCorrelatedPositions: &maxCorr})

	closes := []float64{100, 102, 101, 104, 103, 106}
	seedCloses(e, "ETHUSDT", closes...)
	seedCloses(e, "BTCUSDT", closes...)

	_, err := e.OpenPosition(OpenRequest{Symbol: "ETHUSDT", Side: domain.SideLong, Quantity: 1})
	assert.NoError(t, err)

	// BTC's returns track ETH's exactly; one correlated position hits
	// the cap of one.
	_, err = e.OpenPosition(OpenRequest{Symbol: "BTCUSDT", Side: domain.SideLong, Quantity: 0.01})
	assert.ErrorIs(t, err, errs.ErrLimitExceeded)
	assert.Contains(t, err.Error(), "correlated")

	// An uncorrelated symbol is unaffected.
	seedCloses(e, "SOLUSDT", 50, 51, 49, 50, 52, 49)
	_, err = e.OpenPosition(OpenRequest{Symbol: "SOLUSDT", Side: domain.SideLong, Quantity: 1})
	assert.NoError(t, err)
}

// TestLimitOrder_FillKeepsPositionID keeps the id handed out when the
// order was accepted once the fill replaces the placeholder.
func TestLimitOrder_FillKeepsPositionID(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)

	pos, err := e.OpenPosition(OpenRequest{
		Symbol:     "BTCUSDT",
		Side:       domain.SideLong,
		OrderType:  domain.OrderTypeLimit,
		LimitPrice: 49500,
		Quantity:   0.1,
	})
	assert.NoError(t, err)

	e.OnPrice("BTCUSDT", 49400, t0.Add(time.Minute))

	open := e.GetPositions()
	assert.Len(t, open, 1)
	assert.Equal(t, pos.ID, open[0].ID)
	assert.Equal(t, domain.StatusOpen, open[0].Status)
}

// TestGetOrders_TracksLifecycle exposes filled and cancelled orders
// with their position links.
func TestGetOrders_TracksLifecycle(t *testing.T) {
	e := testEngine()
	e.OnPrice("BTCUSDT", 50000, t0)

	pos := openLong(t, e, 0.1)

	orders := e.GetOrders()
	assert.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusFilled, orders[0].Status)
	assert.Equal(t, pos.ID, orders[0].PositionID)
	assert.InDelta(t, 50000.0, orders[0].FillPrice, 1e-9)

	resting, err := e.OpenPosition(OpenRequest{
		Symbol:     "BTCUSDT",
		Side:       domain.SideLong,
		OrderType:  domain.OrderTypeLimit,
		LimitPrice: 49000,
		Quantity:   0.1,
	})
	assert.NoError(t, err)
	assert.Len(t, e.GetOrders(), 2)

	_, err = e.ClosePosition(resting.ID, 0)
	assert.NoError(t, err)

	cancelled := 0
	for _, o := range e.GetOrders() {
		if o.Status == domain.OrderStatusCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 1, cancelled)
}
