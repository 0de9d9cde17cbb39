// Package paper implements the simulated order and position lifecycle:
// orders fill against the last known price, positions carry stop-loss
// and take-profit state, closes produce immutable trade records and
// equity-curve points. No real orders are ever routed.
package paper

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
	errs "github.com/quantlab/crypto-paper-bot/internal/errors"
	"github.com/quantlab/crypto-paper-bot/internal/exits"
	"github.com/quantlab/crypto-paper-bot/internal/logger"
	"github.com/quantlab/crypto-paper-bot/internal/monitoring"
	"github.com/quantlab/crypto-paper-bot/internal/risk"
	"github.com/quantlab/crypto-paper-bot/internal/sizing"
	"github.com/quantlab/crypto-paper-bot/pkg/config"
	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

const component = "paper"

// Engine owns the simulated account: orders, positions, trade log and
// equity curve. Every entry point takes the mutex, so calls from the
// host serialize and the core logic runs single-threaded to
// completion.
type Engine struct {
	mu sync.Mutex

	cfg *config.EngineConfig
	log *logger.Logger

	enforcer *risk.Enforcer

	cash   float64
	locked float64

	positions   map[string]*domain.Position
	orders      map[string]*domain.Order
	stopParams  map[string]exits.StopParams
	entryFees   map[string]float64
	pendingMeta map[string]pendingOpen

	trades []domain.Trade
	equity []domain.EquityPoint

	events *eventQueue

	lastPrice map[string]float64
	candles   map[string][]types.OHLCV

	now time.Time
}

// NewEngine creates a paper trading engine with the given
// configuration. The enforcer is constructed here and owned by the
// engine; collaborators talk to it through the engine's API.
func NewEngine(cfg *config.EngineConfig, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	now := time.Now().UTC()
	e := &Engine{
		cfg:         cfg,
		log:         log,
		enforcer:    risk.NewEnforcer(cfg.Risk, cfg.InitialBalance, now),
		cash:        cfg.InitialBalance,
		positions:   make(map[string]*domain.Position),
		orders:      make(map[string]*domain.Order),
		stopParams:  make(map[string]exits.StopParams),
		entryFees:   make(map[string]float64),
		pendingMeta: make(map[string]pendingOpen),
		events:      newEventQueue(cfg.MaxEvents),
		lastPrice:   make(map[string]float64),
		candles:     make(map[string][]types.OHLCV),
		now:         now,
	}
	e.appendEquityPoint()
	return e
}

// OpenRequest asks the engine to open a position. Quantity and Size
// are optional; when absent the configured sizing method decides.
// Stop and take-profit settings default from the risk config.
type OpenRequest struct {
	Symbol     string
	Side       domain.Side
	OrderType  domain.OrderType
	LimitPrice float64

	// Size is the notional to commit; Quantity wins if both are set.
	Size     float64
	Quantity float64

	// Stop configuration. When nil, a fixed stop at the configured
	// default percent is used.
	Stop *exits.StopParams

	// TakeProfits is an explicit ladder. When empty, a single target
	// at the configured default percent is used.
	TakeProfits []domain.TakeProfitLevel

	Strategy string
}

// OpenPosition validates, sizes and opens a position. The sequence is
// all-or-nothing: any rejection leaves the engine untouched.
func (e *Engine) OpenPosition(req OpenRequest) (*domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.OrderType == "" {
		req.OrderType = domain.OrderTypeMarket
	}
	if req.Side == "" {
		req.Side = domain.SideLong
	}

	price := e.lastPrice[req.Symbol]
	if req.OrderType == domain.OrderTypeLimit {
		price = req.LimitPrice
	}
	if price <= 0 {
		v := errs.NewValidationErrors(component)
		v.Addf("no known price for %s; feed a price update first or set a limit price", req.Symbol)
		return nil, v
	}

	stop := e.stopParamsFor(req)
	candles := e.candles[req.Symbol]
	if err := exits.ValidateStopParams(stop, candles); err != nil {
		return nil, err
	}

	size, quantity, err := e.resolveSize(req, price)
	if err != nil {
		return nil, err
	}

	ladder := req.TakeProfits
	if len(ladder) == 0 && e.cfg.Risk.DefaultTakeProfitPercent > 0 {
		ladder = exits.SingleTarget(price, req.Side, e.cfg.Risk.DefaultTakeProfitPercent)
	}
	exits.SortLevels(req.Side, ladder)
	if err := exits.ValidateTakeProfits(req.Side, price, ladder); err != nil {
		return nil, err
	}

	if res := e.enforcer.CanOpenPosition(req.Symbol, size); !res.Allowed {
		monitoring.RecordRiskEvent(res.Rule)
		return nil, errs.NewLimitExceededError(component, res.Reason)
	}
	if res := e.enforcer.CheckCorrelation(req.Symbol, e.returnSeries(req.Symbol), e.openReturnSeries()); !res.Allowed {
		monitoring.RecordRiskEvent(res.Rule)
		return nil, errs.NewLimitExceededError(component, res.Reason)
	}

	fee := size * e.feeRate(req.OrderType) / 100
	if size+fee > e.cash {
		return nil, errs.NewInsufficientBalanceError(component, size+fee, e.cash)
	}

	order := &domain.Order{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Type:       req.OrderType,
		Quantity:   quantity,
		LimitPrice: req.LimitPrice,
		Status:     domain.OrderStatusPending,
		CreatedAt:  e.clock(),
	}
	e.orders[order.ID] = order

	// Limit orders rest until the market crosses them.
	if req.OrderType == domain.OrderTypeLimit && !limitCrossed(req.Side, req.LimitPrice, e.lastPrice[req.Symbol]) {
		pos := &domain.Position{
			ID:       uuid.NewString(),
			Symbol:   req.Symbol,
			Side:     req.Side,
			Status:   domain.StatusPending,
			Strategy: req.Strategy,
		}
		order.PositionID = pos.ID
		e.positions[pos.ID] = pos
		e.stopParams[pos.ID] = stop
		e.pendingMeta[pos.ID] = pendingOpen{order: order, size: size, ladder: ladder}
		return snapshot(pos), nil
	}

	pos := e.fillOpen(order, price, size, quantity, stop, ladder, req.Strategy)
	return snapshot(pos), nil
}

// pendingOpen carries what a resting limit order needs to open its
// position once crossed.
type pendingOpen struct {
	order  *domain.Order
	size   float64
	ladder []domain.TakeProfitLevel
}

// fillOpen executes the open at the given price: debit cash into
// locked, compute levels, record the position, emit events.
func (e *Engine) fillOpen(order *domain.Order, price, size, quantity float64,
	stop exits.StopParams, ladder []domain.TakeProfitLevel, strategy string) *domain.Position {

	now := e.clock()
	fee := size * e.feeRate(order.Type) / 100

	pos := &domain.Position{
		ID:                uuid.NewString(),
		Symbol:            order.Symbol,
		Side:              order.Side,
		EntryPrice:        price,
		Quantity:          quantity,
		RemainingQuantity: quantity,
		Size:              size,
		TakeProfits:       ladder,
		HighestPrice:      price,
		LowestPrice:       price,
		MarkPrice:         price,
		Status:            domain.StatusOpen,
		Strategy:          strategy,
		OpenedAt:          now,
	}
	if order.PositionID != "" {
		// Reuse the id allocated when the limit order was accepted; the
		// placeholder entry is overwritten below.
		pos.ID = order.PositionID
	}
	pos.StopLoss = exits.ComputeInitialStop(pos, stop, e.candles[order.Symbol])

	e.cash -= size + fee
	e.locked += size
	e.entryFees[pos.ID] = fee

	order.Status = domain.OrderStatusFilled
	order.FillPrice = price
	order.FilledAt = now
	order.PositionID = pos.ID

	e.positions[pos.ID] = pos
	e.stopParams[pos.ID] = stop
	e.enforcer.RegisterPosition(pos.Symbol, size)
	e.enforcer.UpdateBalance(e.equityValue())
	e.appendEquityPoint()

	e.events.push(Event{Type: EventOrderFilled, Timestamp: now, Symbol: pos.Symbol, OrderID: order.ID, PositionID: pos.ID})
	e.events.push(Event{Type: EventPositionOpened, Timestamp: now, Symbol: pos.Symbol, PositionID: pos.ID})

	e.log.Trade("position opened", map[string]interface{}{
		"position": pos.ID,
		"symbol":   pos.Symbol,
		"side":     pos.Side,
		"entry":    price,
		"quantity": quantity,
		"size":     size,
		"stop":     pos.StopLoss,
	})
	monitoring.UpdateAccount(e.equityValue(), e.enforcer.DrawdownPercent(), e.enforcer.OpenCount())

	return pos
}

// ClosePosition closes the full remaining quantity at the given price.
// A zero exitPrice closes at the last known market price.
func (e *Engine) ClosePosition(id string, exitPrice float64) (*domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[id]
	if !ok || pos.Status == domain.StatusClosed {
		return nil, errs.NewNotFoundError(component, "position", id)
	}
	if pos.Status == domain.StatusPending {
		return nil, e.cancelPending(pos)
	}
	if exitPrice <= 0 {
		exitPrice = e.lastPrice[pos.Symbol]
	}
	if exitPrice <= 0 {
		v := errs.NewValidationErrors(component)
		v.Addf("no exit price available for %s", pos.Symbol)
		return nil, v
	}

	trade := e.closeQuantity(pos, pos.RemainingQuantity, exitPrice, domain.ExitReasonManual)
	return trade, nil
}

// cancelPending cancels a resting limit order and its placeholder
// position.
func (e *Engine) cancelPending(pos *domain.Position) error {
	meta, ok := e.pendingMeta[pos.ID]
	if ok {
		meta.order.Status = domain.OrderStatusCancelled
		delete(e.pendingMeta, pos.ID)
	}
	delete(e.positions, pos.ID)
	delete(e.stopParams, pos.ID)
	return nil
}

// UpdateRequest modifies the exit levels of an open position. Nil
// fields are left unchanged.
type UpdateRequest struct {
	StopLoss    *float64
	TakeProfits []domain.TakeProfitLevel
}

// UpdatePosition changes stop-loss and/or take-profit levels on an
// open position after validating them. All-or-nothing.
func (e *Engine) UpdatePosition(id string, req UpdateRequest) (*domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[id]
	if !ok || !pos.IsOpen() {
		return nil, errs.NewNotFoundError(component, "position", id)
	}

	if req.TakeProfits != nil {
		ladder := make([]domain.TakeProfitLevel, len(req.TakeProfits))
		copy(ladder, req.TakeProfits)
		exits.SortLevels(pos.Side, ladder)
		if err := exits.ValidateTakeProfits(pos.Side, pos.EntryPrice, ladder); err != nil {
			return nil, err
		}
		pos.TakeProfits = ladder
	}
	if req.StopLoss != nil {
		sl := *req.StopLoss
		if sl < 0 {
			v := errs.NewValidationErrors(component)
			v.Addf("stop loss must not be negative, got %.4f", sl)
			return nil, v
		}
		pos.StopLoss = sl
	}
	return snapshot(pos), nil
}

// OnPrice processes one price tick for a symbol: fill crossed limit
// orders, refresh marks and trailing state, and run every stop-loss /
// take-profit check. Runs to completion before the next call.
func (e *Engine) OnPrice(symbol string, price float64, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if price <= 0 {
		return
	}
	e.advance(now)
	e.lastPrice[symbol] = price
	monitoring.UpdatePrice(symbol, price)

	e.fillCrossedLimits(symbol, price)

	for _, pos := range e.openPositionsFor(symbol) {
		pos.MarkPrice = price
		pos.UpdateExtremes(price)
		pos.UnrealizedPnL = pos.PnLAt(price)

		e.applyExits(pos, price)
	}

	monitoring.UpdateAccount(e.equityValue(), e.enforcer.DrawdownPercent(), e.enforcer.OpenCount())
}

// OnCandle appends a candle to the symbol history (used by ATR,
// structure and SAR stops) and processes its close as a price tick.
func (e *Engine) OnCandle(symbol string, candle types.OHLCV) {
	e.mu.Lock()
	e.candles[symbol] = append(e.candles[symbol], candle)
	if len(e.candles[symbol]) > maxCandleHistory {
		e.candles[symbol] = e.candles[symbol][len(e.candles[symbol])-maxCandleHistory:]
	}
	e.mu.Unlock()

	e.OnPrice(symbol, candle.Close, candle.Timestamp)
}

// maxCandleHistory bounds per-symbol candle retention.
const maxCandleHistory = 1000

// SeedCandles replaces the candle history for a symbol, e.g. with a
// warm-up batch fetched before live ticks start.
func (e *Engine) SeedCandles(symbol string, candles []types.OHLCV) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([]types.OHLCV, len(candles))
	copy(cp, candles)
	e.candles[symbol] = cp
	if len(cp) > 0 {
		e.lastPrice[symbol] = cp[len(cp)-1].Close
	}
}

// Tick advances the engine clock without a price: daily risk windows
// roll over and time-based exits fire. The host owns all wall-clock
// scheduling.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.advance(now)
	for _, pos := range e.allOpenPositions() {
		params := e.stopParams[pos.ID]
		if exits.IsTimeExitDue(pos, params, now) {
			price := e.lastPrice[pos.Symbol]
			if price > 0 {
				e.closeQuantity(pos, pos.RemainingQuantity, price, domain.ExitReasonTimeLimit)
			}
		}
	}
}

// applyExits evaluates trailing updates, time exits, stop-loss and
// take-profit for one open position at the given price.
func (e *Engine) applyExits(pos *domain.Position, price float64) {
	params := e.stopParams[pos.ID]

	if newStop, updated := exits.UpdateTrailingStop(pos, params, e.candles[pos.Symbol]); updated {
		pos.StopLoss = newStop
	}

	if exits.IsTimeExitDue(pos, params, e.clock()) {
		e.closeQuantity(pos, pos.RemainingQuantity, price, domain.ExitReasonTimeLimit)
		return
	}

	if exits.IsStopTriggered(pos, price) {
		e.closeQuantity(pos, pos.RemainingQuantity, pos.StopLoss, domain.ExitReasonStopLoss)
		return
	}

	// Take-profit levels close their configured fraction each, in
	// ladder order, until the price stops triggering.
	for {
		idx, ok := exits.NextTriggeredLevel(pos, price)
		if !ok {
			break
		}
		level := &pos.TakeProfits[idx]
		level.Hit = true
		qty := pos.Quantity * level.ClosePercent / 100
		if qty > pos.RemainingQuantity {
			qty = pos.RemainingQuantity
		}
		if qty <= 0 {
			break
		}
		e.closeQuantity(pos, qty, level.Price, domain.ExitReasonTakeProfit)
		if pos.Status == domain.StatusClosed {
			break
		}
	}
}

// closeQuantity closes part or all of a position at the trigger price
// minus adverse slippage, applies fees, appends the trade record and
// equity point, and emits events. The trade is immutable once
// appended.
func (e *Engine) closeQuantity(pos *domain.Position, quantity, price float64, reason domain.ExitReason) *domain.Trade {
	if quantity > pos.RemainingQuantity {
		quantity = pos.RemainingQuantity
	}
	now := e.clock()

	execPrice := e.slip(pos.Side, price)
	slippageCost := (price - execPrice) * quantity * pos.Side.Sign()

	notional := execPrice * quantity
	exitFee := notional * e.feeRate(domain.OrderTypeMarket) / 100

	fraction := quantity / pos.Quantity
	entryFeeShare := e.entryFees[pos.ID] * fraction

	grossPnL := (execPrice - pos.EntryPrice) * quantity * pos.Side.Sign()
	pnl := grossPnL - exitFee - entryFeeShare

	entryNotional := pos.EntryPrice * quantity
	pnlPercent := 0.0
	if entryNotional > 0 {
		pnlPercent = pnl / entryNotional * 100
	}

	// Release the entry notional for the closed fraction plus the
	// realized result back into cash.
	released := pos.Size * fraction
	e.locked -= released
	e.cash += released + grossPnL - exitFee
	// Entry fee was debited at open; nothing more to move for it.

	pos.RemainingQuantity -= quantity
	if pos.RemainingQuantity <= 1e-12 {
		pos.RemainingQuantity = 0
		pos.Status = domain.StatusClosed
		pos.ClosedAt = now
	}
	pos.UnrealizedPnL = pos.PnLAt(e.lastPrice[pos.Symbol])

	trade := domain.Trade{
		ID:         uuid.NewString(),
		PositionID: pos.ID,
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		Strategy:   pos.Strategy,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  execPrice,
		Quantity:   quantity,
		PnL:        pnl,
		PnLPercent: pnlPercent,
		Fees:       exitFee + entryFeeShare,
		Slippage:   slippageCost,
		ExitReason: reason,
		EntryTime:  pos.OpenedAt,
		ExitTime:   now,
	}
	e.trades = append(e.trades, trade)

	if pos.Status == domain.StatusClosed {
		e.enforcer.ReleasePosition(pos.Symbol, released)
		delete(e.entryFees, pos.ID)
	} else {
		e.enforcer.ReduceExposure(pos.Symbol, released)
	}
	e.enforcer.UpdateBalance(e.equityValue())
	e.appendEquityPoint()

	e.events.push(Event{
		Type:       EventPositionClosed,
		Timestamp:  now,
		Symbol:     pos.Symbol,
		PositionID: pos.ID,
		Trade:      &trade,
	})

	e.log.Trade("position closed", map[string]interface{}{
		"position": pos.ID,
		"symbol":   pos.Symbol,
		"reason":   reason,
		"exit":     execPrice,
		"quantity": quantity,
		"pnl":      pnl,
	})
	monitoring.RecordTrade(pos.Symbol, string(pos.Side), string(reason), pnl)

	return &trade
}

// fillCrossedLimits opens positions for resting limit orders the price
// has crossed.
func (e *Engine) fillCrossedLimits(symbol string, price float64) {
	for id, meta := range e.pendingMeta {
		pos := e.positions[id]
		if pos == nil || pos.Symbol != symbol || pos.Status != domain.StatusPending {
			continue
		}
		if !limitCrossed(meta.order.Side, meta.order.LimitPrice, price) {
			continue
		}
		fee := meta.size * e.feeRate(meta.order.Type) / 100
		if meta.size+fee > e.cash {
			// Funds were not reserved while the order rested; cancel
			// rather than let cash go negative.
			e.cancelPending(pos)
			continue
		}
		delete(e.pendingMeta, id)

		stop := e.stopParams[id]
		e.fillOpen(meta.order, meta.order.LimitPrice, meta.size, meta.order.Quantity, stop, meta.ladder, pos.Strategy)
	}
}

// limitCrossed reports whether the market price satisfies a limit
// entry: buy at or below the limit, sell at or above it.
func limitCrossed(side domain.Side, limit, price float64) bool {
	if price <= 0 || limit <= 0 {
		return false
	}
	if side == domain.SideLong {
		return price <= limit
	}
	return price >= limit
}

// resolveSize turns an open request into (notional, quantity) using
// explicit values or the configured sizing method.
func (e *Engine) resolveSize(req OpenRequest, price float64) (float64, float64, error) {
	if req.Quantity > 0 {
		return req.Quantity * price, req.Quantity, nil
	}
	if req.Size > 0 {
		return req.Size, req.Size / price, nil
	}

	stopPercent := e.cfg.Risk.DefaultStopLossPercent
	if req.Stop != nil && req.Stop.Percent > 0 {
		stopPercent = req.Stop.Percent
	}
	res, err := sizing.Calculate(sizing.Params{
		Method:                 sizing.Method(e.cfg.Sizing.Method),
		Balance:                e.equityValue(),
		RiskPerTradePercent:    e.cfg.Sizing.RiskPerTradePercent,
		EntryPrice:             price,
		StopLossPercent:        stopPercent,
		MaxPositionSizePercent: e.cfg.Risk.MaxPositionSizePercent,
	})
	if err != nil {
		return 0, 0, err
	}
	return res.Size, res.Quantity, nil
}

// stopParamsFor resolves the stop configuration for a request. No stop
// at all means a fixed stop at the configured percent; a trailing stop
// without explicit distances picks up the configured trailing
// defaults.
func (e *Engine) stopParamsFor(req OpenRequest) exits.StopParams {
	if req.Stop == nil {
		return exits.StopParams{
			Type:    exits.StopFixed,
			Percent: e.cfg.Risk.DefaultStopLossPercent,
		}
	}
	params := *req.Stop
	if params.Type == exits.StopTrailing {
		if params.TrailingDistancePercent == 0 {
			params.TrailingDistancePercent = e.cfg.Risk.TrailingStopDistancePercent
		}
		if params.ActivationPercent == 0 {
			params.ActivationPercent = e.cfg.Risk.TrailingStopActivationPercent
		}
	}
	return params
}

// slip applies the configured slippage against the close direction:
// a long sells lower, a short buys back higher.
func (e *Engine) slip(side domain.Side, price float64) float64 {
	return price * (1 - side.Sign()*e.cfg.Fees.SlippagePercent/100)
}

// feeRate returns the percent fee for an order type: maker for limit,
// taker for market.
func (e *Engine) feeRate(orderType domain.OrderType) float64 {
	if orderType == domain.OrderTypeLimit {
		return e.cfg.Fees.MakerFeePercent
	}
	return e.cfg.Fees.TakerFeePercent
}

// equityValue is cash plus locked notional plus unrealized PnL.
func (e *Engine) equityValue() float64 {
	unrealized := 0.0
	for _, pos := range e.positions {
		if pos.IsOpen() {
			unrealized += pos.UnrealizedPnL
		}
	}
	return e.cash + e.locked + unrealized
}

// positionsValue is the open notional plus unrealized PnL.
func (e *Engine) positionsValue() float64 {
	unrealized := 0.0
	for _, pos := range e.positions {
		if pos.IsOpen() {
			unrealized += pos.UnrealizedPnL
		}
	}
	return e.locked + unrealized
}

func (e *Engine) appendEquityPoint() {
	equity := e.equityValue()
	peak := e.enforcer.PeakBalance()
	dd := 0.0
	if peak > 0 && equity < peak {
		dd = (peak - equity) / peak * 100
	}
	e.equity = append(e.equity, domain.EquityPoint{
		Timestamp:       e.clock(),
		Equity:          equity,
		Cash:            e.cash,
		PositionsValue:  e.positionsValue(),
		DrawdownPercent: dd,
	})
}

// correlationWindow is how many recent candle-to-candle returns feed
// the correlation cap.
const correlationWindow = 30

// returnSeries builds percent returns over the most recent candle
// closes for a symbol. Empty when the history is too short.
func (e *Engine) returnSeries(symbol string) []float64 {
	candles := e.candles[symbol]
	if len(candles) > correlationWindow+1 {
		candles = candles[len(candles)-correlationWindow-1:]
	}
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (candles[i].Close-prev)/prev*100)
	}
	return out
}

// openReturnSeries builds the return series for every symbol with an
// open position.
func (e *Engine) openReturnSeries() map[string][]float64 {
	out := make(map[string][]float64)
	for _, pos := range e.positions {
		if !pos.IsOpen() {
			continue
		}
		if _, done := out[pos.Symbol]; done {
			continue
		}
		out[pos.Symbol] = e.returnSeries(pos.Symbol)
	}
	return out
}

func (e *Engine) openPositionsFor(symbol string) []*domain.Position {
	var out []*domain.Position
	for _, pos := range e.positions {
		if pos.Symbol == symbol && pos.IsOpen() {
			out = append(out, pos)
		}
	}
	return out
}

func (e *Engine) allOpenPositions() []*domain.Position {
	var out []*domain.Position
	for _, pos := range e.positions {
		if pos.IsOpen() {
			out = append(out, pos)
		}
	}
	return out
}

// advance moves the engine clock forward and rolls the daily risk
// window. Time never moves backward.
func (e *Engine) advance(now time.Time) {
	if now.After(e.now) {
		e.now = now
		e.enforcer.Tick(now)
	}
}

func (e *Engine) clock() time.Time {
	if e.now.IsZero() {
		return time.Now().UTC()
	}
	return e.now
}

// snapshot copies a position so callers never hold a pointer into the
// engine's map.
func snapshot(pos *domain.Position) *domain.Position {
	cp := *pos
	cp.TakeProfits = make([]domain.TakeProfitLevel, len(pos.TakeProfits))
	copy(cp.TakeProfits, pos.TakeProfits)
	return &cp
}
