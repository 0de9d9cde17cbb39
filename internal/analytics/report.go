// Package analytics computes performance reports from the trade log
// and equity curve produced by the paper engine. Every function is a
// pure batch computation over its inputs; the package owns no state.
package analytics

import (
	"math"
	"time"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// Config tunes the report math.
type Config struct {
	// RiskFreeRate is the annual risk-free rate as a fraction.
	RiskFreeRate float64
	// PeriodsPerYear annualizes per-period statistics. Crypto trades
	// continuously, so 365.
	PeriodsPerYear float64
	// VaRConfidence is the Value-at-Risk confidence level, e.g. 0.95.
	VaRConfidence float64
}

// DefaultConfig returns the standard report settings.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:   0.0,
		PeriodsPerYear: 365,
		VaRConfidence:  0.95,
	}
}

// Report is a complete performance summary.
type Report struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	StartEquity float64 `json:"start_equity"`
	EndEquity   float64 `json:"end_equity"`

	TotalReturnPercent      float64 `json:"total_return_percent"`
	AnnualizedReturnPercent float64 `json:"annualized_return_percent"`
	VolatilityPercent       float64 `json:"volatility_percent"`

	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`

	MaxDrawdownPercent     float64          `json:"max_drawdown_percent"`
	CurrentDrawdownPercent float64          `json:"current_drawdown_percent"`
	DrawdownPeriods        []DrawdownPeriod `json:"drawdown_periods"`

	VaR  float64 `json:"var"`
	CVaR float64 `json:"cvar"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	TotalPnL      float64 `json:"total_pnl"`
	TotalFees     float64 `json:"total_fees"`

	ByStrategy []Breakdown `json:"by_strategy"`
	ByAsset    []Breakdown `json:"by_asset"`

	Correlations CorrelationMatrix `json:"correlations"`
}

// GenerateReport computes the full report. Both inputs may be empty;
// the result is then a zero report, not an error.
func GenerateReport(trades []domain.Trade, equity []domain.EquityPoint, cfg Config) *Report {
	r := &Report{}

	if len(equity) > 0 {
		first, last := equity[0], equity[len(equity)-1]
		r.StartTime = first.Timestamp
		r.EndTime = last.Timestamp
		r.StartEquity = first.Equity
		r.EndEquity = last.Equity

		if first.Equity > 0 {
			r.TotalReturnPercent = (last.Equity - first.Equity) / first.Equity * 100
		}
		r.AnnualizedReturnPercent = annualizedReturn(first, last, cfg.PeriodsPerYear)

		returns := equityReturns(equity)
		r.VolatilityPercent = stdDev(returns) * 100
		r.SharpeRatio = sharpe(returns, cfg)
		r.SortinoRatio = sortino(returns, cfg)

		r.MaxDrawdownPercent, r.CurrentDrawdownPercent, r.DrawdownPeriods = AnalyzeDrawdowns(equity)
		r.CalmarRatio = calmar(r.AnnualizedReturnPercent, r.MaxDrawdownPercent)

		r.VaR, r.CVaR = VaR(returns, cfg.VaRConfidence)
	}

	r.TotalTrades = len(trades)
	grossProfit, grossLoss := 0.0, 0.0
	for _, t := range trades {
		r.TotalPnL += t.PnL
		r.TotalFees += t.Fees
		if t.PnL > 0 {
			r.WinningTrades++
			grossProfit += t.PnL
		} else {
			r.LosingTrades++
			grossLoss += -t.PnL
		}
	}
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	}
	r.ProfitFactor = profitFactor(grossProfit, grossLoss)

	r.ByStrategy = BreakdownBy(trades, func(t domain.Trade) string { return t.Strategy })
	r.ByAsset = BreakdownBy(trades, func(t domain.Trade) string { return t.Symbol })
	r.Correlations = AssetCorrelations(trades)

	return r
}

// annualizedReturn computes CAGR from the first and last equity
// points using elapsed days against the configured year length.
func annualizedReturn(first, last domain.EquityPoint, periodsPerYear float64) float64 {
	if first.Equity <= 0 || periodsPerYear <= 0 {
		return 0
	}
	days := last.Timestamp.Sub(first.Timestamp).Hours() / 24
	if days <= 0 {
		return 0
	}
	ratio := last.Equity / first.Equity
	if ratio <= 0 {
		return -100
	}
	return (math.Pow(ratio, periodsPerYear/days) - 1) * 100
}

// equityReturns converts the curve into per-point simple returns.
func equityReturns(equity []domain.EquityPoint) []float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev > 0 {
			returns = append(returns, (equity[i].Equity-prev)/prev)
		}
	}
	return returns
}

// sharpe is the annualized Sharpe ratio over per-period returns.
func sharpe(returns []float64, cfg Config) float64 {
	if len(returns) == 0 {
		return 0
	}
	sd := stdDev(returns)
	if sd == 0 {
		return 0
	}
	excess := mean(returns) - cfg.RiskFreeRate/cfg.PeriodsPerYear
	return excess / sd * math.Sqrt(cfg.PeriodsPerYear)
}

// sortino uses only negative returns in the denominator. With no
// losing periods it is +Inf when the mean is positive, else 0.
func sortino(returns []float64, cfg Config) float64 {
	if len(returns) == 0 {
		return 0
	}
	avg := mean(returns)

	downsideVariance := 0.0
	downsideCount := 0
	for _, r := range returns {
		if r < 0 {
			downsideVariance += r * r
			downsideCount++
		}
	}
	if downsideCount == 0 {
		if avg > 0 {
			return math.Inf(1)
		}
		return 0
	}
	downsideDev := math.Sqrt(downsideVariance / float64(downsideCount))
	if downsideDev == 0 {
		return 0
	}
	excess := avg - cfg.RiskFreeRate/cfg.PeriodsPerYear
	return excess / downsideDev * math.Sqrt(cfg.PeriodsPerYear)
}

// calmar relates annualized return to the worst drawdown.
func calmar(annualizedReturnPercent, maxDrawdownPercent float64) float64 {
	if maxDrawdownPercent == 0 {
		if annualizedReturnPercent > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return annualizedReturnPercent / maxDrawdownPercent
}

// profitFactor is gross profit over gross loss, +Inf with profits and
// no losses, 0 otherwise.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// stdDev is the population standard deviation.
func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	avg := mean(xs)
	variance := 0.0
	for _, v := range xs {
		d := v - avg
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(xs)))
}
