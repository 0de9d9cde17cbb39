package analytics

import (
	"sort"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
	"github.com/quantlab/crypto-paper-bot/internal/risk"
)

// Breakdown is the per-group trade summary (per strategy or per
// asset).
type Breakdown struct {
	Key string `json:"key"`

	Trades        int     `json:"trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	TotalPnL      float64 `json:"total_pnl"`

	AverageWin  float64 `json:"average_win"`
	AverageLoss float64 `json:"average_loss"`
	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`
}

// BreakdownBy groups trades by key and recomputes the per-group
// statistics. Trades with an empty key are grouped under "unassigned".
// Groups come out sorted by key for deterministic output.
func BreakdownBy(trades []domain.Trade, key func(domain.Trade) string) []Breakdown {
	groups := make(map[string][]domain.Trade)
	for _, t := range trades {
		k := key(t)
		if k == "" {
			k = "unassigned"
		}
		groups[k] = append(groups[k], t)
	}

	out := make([]Breakdown, 0, len(groups))
	for k, group := range groups {
		out = append(out, summarize(k, group))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func summarize(key string, trades []domain.Trade) Breakdown {
	b := Breakdown{Key: key, Trades: len(trades)}

	grossProfit, grossLoss := 0.0, 0.0
	winStreak, lossStreak := 0, 0

	for _, t := range trades {
		b.TotalPnL += t.PnL
		if t.PnL > 0 {
			b.WinningTrades++
			grossProfit += t.PnL
			if t.PnL > b.LargestWin {
				b.LargestWin = t.PnL
			}
			winStreak++
			lossStreak = 0
			if winStreak > b.MaxConsecutiveWins {
				b.MaxConsecutiveWins = winStreak
			}
		} else {
			b.LosingTrades++
			grossLoss += -t.PnL
			if t.PnL < b.LargestLoss {
				b.LargestLoss = t.PnL
			}
			lossStreak++
			winStreak = 0
			if lossStreak > b.MaxConsecutiveLosses {
				b.MaxConsecutiveLosses = lossStreak
			}
		}
	}

	if b.Trades > 0 {
		b.WinRate = float64(b.WinningTrades) / float64(b.Trades) * 100
	}
	if b.WinningTrades > 0 {
		b.AverageWin = grossProfit / float64(b.WinningTrades)
	}
	if b.LosingTrades > 0 {
		b.AverageLoss = -grossLoss / float64(b.LosingTrades)
	}
	b.ProfitFactor = profitFactor(grossProfit, grossLoss)
	return b
}

// CorrelationMatrix is the pairwise Pearson correlation of per-asset
// trade returns. Matrix[i][j] corresponds to Symbols[i] and
// Symbols[j].
type CorrelationMatrix struct {
	Symbols []string    `json:"symbols"`
	Matrix  [][]float64 `json:"matrix"`
}

// AssetCorrelations builds the correlation matrix over each asset's
// per-trade pnlPercent series. Series are truncated to the shortest
// common length per pair so the computation stays defined.
func AssetCorrelations(trades []domain.Trade) CorrelationMatrix {
	series := make(map[string][]float64)
	for _, t := range trades {
		series[t.Symbol] = append(series[t.Symbol], t.PnLPercent)
	}

	symbols := make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	matrix := make([][]float64, len(symbols))
	for i := range symbols {
		matrix[i] = make([]float64, len(symbols))
		for j := range symbols {
			a, b := series[symbols[i]], series[symbols[j]]
			n := len(a)
			if len(b) < n {
				n = len(b)
			}
			matrix[i][j] = risk.Pearson(a[:n], b[:n])
		}
	}
	return CorrelationMatrix{Symbols: symbols, Matrix: matrix}
}
