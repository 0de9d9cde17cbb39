package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_bot_trades_total",
			Help: "Total number of simulated trades closed",
		},
		[]string{"symbol", "side", "exit_reason"},
	)

	tradePnL = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_bot_trade_pnl",
			Help:    "Distribution of realized trade PnL",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
		},
		[]string{"symbol"},
	)

	// Account metrics
	accountEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paper_bot_equity",
			Help: "Current account equity (cash + positions value)",
		},
	)

	drawdownPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paper_bot_drawdown_percent",
			Help: "Current drawdown from peak equity",
		},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "paper_bot_open_positions",
			Help: "Number of currently open positions",
		},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paper_bot_current_price",
			Help: "Last observed price per symbol",
		},
		[]string{"symbol"},
	)

	// Risk metrics
	riskEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_bot_risk_events_total",
			Help: "Total number of risk warnings and limit breaches",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradePnL)
	prometheus.MustRegister(accountEquity)
	prometheus.MustRegister(drawdownPercent)
	prometheus.MustRegister(openPositions)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(riskEventsTotal)
}

// Handler returns the Prometheus metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTrade records a closed trade.
func RecordTrade(symbol, side, exitReason string, pnl float64) {
	tradesTotal.WithLabelValues(symbol, side, exitReason).Inc()
	if pnl < 0 {
		pnl = -pnl
	}
	tradePnL.WithLabelValues(symbol).Observe(pnl)
}

// UpdateAccount updates the equity, drawdown and open-position gauges.
func UpdateAccount(equity, drawdown float64, open int) {
	accountEquity.Set(equity)
	drawdownPercent.Set(drawdown)
	openPositions.Set(float64(open))
}

// UpdatePrice updates the last-price gauge for a symbol.
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// RecordRiskEvent records a risk warning or breach.
func RecordRiskEvent(eventType string) {
	riskEventsTotal.WithLabelValues(eventType).Inc()
}
