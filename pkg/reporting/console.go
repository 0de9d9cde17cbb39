// Package reporting renders performance reports for human and machine
// consumption: console tables, JSON, CSV trade logs and Excel
// workbooks.
package reporting

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantlab/crypto-paper-bot/internal/analytics"
	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// ConsoleReporter prints reports to a writer, stdout by default.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a console reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a console reporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// PrintReport prints the full performance summary.
func (r *ConsoleReporter) PrintReport(report *analytics.Report) {
	fmt.Fprintln(r.out, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(r.out, "📊 PAPER TRADING RESULTS")
	fmt.Fprintln(r.out, strings.Repeat("=", 50))

	if !report.StartTime.IsZero() {
		fmt.Fprintf(r.out, "🕐 Period:             %s → %s\n",
			report.StartTime.Format("2006-01-02 15:04"),
			report.EndTime.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(r.out, "💰 Starting Equity:    $%.2f\n", report.StartEquity)
	fmt.Fprintf(r.out, "💰 Ending Equity:      $%.2f\n", report.EndEquity)
	fmt.Fprintf(r.out, "📈 Total Return:       %.2f%%\n", report.TotalReturnPercent)
	fmt.Fprintf(r.out, "📈 Annualized Return:  %.2f%%\n", report.AnnualizedReturnPercent)
	fmt.Fprintf(r.out, "📉 Max Drawdown:       %.2f%%\n", report.MaxDrawdownPercent)
	fmt.Fprintf(r.out, "📊 Sharpe Ratio:       %s\n", ratio(report.SharpeRatio))
	fmt.Fprintf(r.out, "📊 Sortino Ratio:      %s\n", ratio(report.SortinoRatio))
	fmt.Fprintf(r.out, "📊 Calmar Ratio:       %s\n", ratio(report.CalmarRatio))
	fmt.Fprintf(r.out, "📊 VaR / CVaR (95%%):   %.2f%% / %.2f%%\n", report.VaR*100, report.CVaR*100)
	fmt.Fprintf(r.out, "💹 Profit Factor:      %s\n", ratio(report.ProfitFactor))
	fmt.Fprintf(r.out, "🔄 Total Trades:       %d\n", report.TotalTrades)
	fmt.Fprintf(r.out, "✅ Winning Trades:     %d (%.1f%%)\n", report.WinningTrades, report.WinRate)
	fmt.Fprintf(r.out, "❌ Losing Trades:      %d\n", report.LosingTrades)
	fmt.Fprintf(r.out, "💸 Total Fees:         $%.2f\n", report.TotalFees)

	if len(report.ByStrategy) > 0 {
		fmt.Fprintln(r.out, "\nBy Strategy:")
		r.printBreakdowns(report.ByStrategy)
	}
	if len(report.ByAsset) > 1 {
		fmt.Fprintln(r.out, "\nBy Asset:")
		r.printBreakdowns(report.ByAsset)
	}
	if len(report.Correlations.Symbols) > 1 {
		fmt.Fprintln(r.out, "\nAsset Correlations:")
		r.printCorrelations(report.Correlations)
	}
}

func (r *ConsoleReporter) printBreakdowns(groups []analytics.Breakdown) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Group", "Trades", "Win Rate", "PnL", "Profit Factor", "Avg Win", "Avg Loss", "Streaks W/L"})
	for _, b := range groups {
		t.AppendRow(table.Row{
			b.Key,
			b.Trades,
			fmt.Sprintf("%.1f%%", b.WinRate),
			fmt.Sprintf("$%.2f", b.TotalPnL),
			ratio(b.ProfitFactor),
			fmt.Sprintf("$%.2f", b.AverageWin),
			fmt.Sprintf("$%.2f", b.AverageLoss),
			fmt.Sprintf("%d/%d", b.MaxConsecutiveWins, b.MaxConsecutiveLosses),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func (r *ConsoleReporter) printCorrelations(m analytics.CorrelationMatrix) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	header := table.Row{""}
	for _, s := range m.Symbols {
		header = append(header, s)
	}
	t.AppendHeader(header)
	for i, s := range m.Symbols {
		row := table.Row{s}
		for j := range m.Symbols {
			row = append(row, fmt.Sprintf("%.2f", m.Matrix[i][j]))
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// PrintTrades prints the closed trade log.
func (r *ConsoleReporter) PrintTrades(trades []domain.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(r.out, "No closed trades.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"#", "Symbol", "Side", "Entry", "Exit", "Qty", "PnL", "PnL %", "Fees", "Reason", "Closed"})
	for i, tr := range trades {
		t.AppendRow(table.Row{
			i + 1,
			tr.Symbol,
			tr.Side,
			fmt.Sprintf("%.4f", tr.EntryPrice),
			fmt.Sprintf("%.4f", tr.ExitPrice),
			fmt.Sprintf("%.6f", tr.Quantity),
			fmt.Sprintf("$%.2f", tr.PnL),
			fmt.Sprintf("%.2f%%", tr.PnLPercent),
			fmt.Sprintf("$%.2f", tr.Fees),
			tr.ExitReason,
			tr.ExitTime.Format(time.DateTime),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// ratio formats a ratio-style metric, rendering the infinite
// no-losses case as a symbol instead of a number.
func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	if math.IsInf(v, -1) {
		return "-∞"
	}
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
