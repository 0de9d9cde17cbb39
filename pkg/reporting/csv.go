package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// WriteTradesCSV writes the closed trade log to a CSV file, one row
// per trade plus a trailing summary row.
func WriteTradesCSV(trades []domain.Trade, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"ID",
		"Symbol",
		"Side",
		"Strategy",
		"Entry_Time",
		"Exit_Time",
		"Entry_Price",
		"Exit_Price",
		"Quantity",
		"PnL_$",
		"PnL_%",
		"Fees_$",
		"Slippage_$",
		"Exit_Reason",
		"Win_Loss",
	}); err != nil {
		return err
	}

	var totalPnL, totalFees float64
	wins := 0
	for _, t := range trades {
		totalPnL += t.PnL
		totalFees += t.Fees
		winLoss := "L"
		if t.PnL > 0 {
			winLoss = "W"
			wins++
		}

		row := []string{
			t.ID,
			t.Symbol,
			string(t.Side),
			t.Strategy,
			t.EntryTime.Format("2006-01-02 15:04:05"),
			t.ExitTime.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.8f", t.EntryPrice),
			fmt.Sprintf("%.8f", t.ExitPrice),
			fmt.Sprintf("%.8f", t.Quantity),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.2f", t.PnLPercent),
			fmt.Sprintf("%.4f", t.Fees),
			fmt.Sprintf("%.4f", t.Slippage),
			string(t.ExitReason),
			winLoss,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("SUMMARY: total_pnl=$%.2f; total_fees=$%.2f; wins=%d/%d",
		totalPnL, totalFees, wins, len(trades))
	summaryRow := make([]string, 15)
	summaryRow[14] = summary
	return w.Write(summaryRow)
}

// WriteEquityCSV writes the equity curve to a CSV file.
func WriteEquityCSV(equity []domain.EquityPoint, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Timestamp", "Equity", "Cash", "Positions_Value", "Drawdown_%"}); err != nil {
		return err
	}
	for _, p := range equity {
		row := []string{
			strconv.FormatInt(p.Timestamp.UnixMilli(), 10),
			fmt.Sprintf("%.2f", p.Equity),
			fmt.Sprintf("%.2f", p.Cash),
			fmt.Sprintf("%.2f", p.PositionsValue),
			fmt.Sprintf("%.4f", p.DrawdownPercent),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
