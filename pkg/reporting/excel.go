package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantlab/crypto-paper-bot/internal/analytics"
	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// ExcelReporter writes a multi-sheet workbook: Summary, Trades and
// Equity.
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter.
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

type excelStyles struct {
	header   int
	currency int
	percent  int
	win      int
	loss     int
}

// WriteReportXLSX writes the report, trade log and equity curve to an
// Excel workbook.
func (r *ExcelReporter) WriteReportXLSX(report *analytics.Report, trades []domain.Trade, equity []domain.EquityPoint, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const equitySheet = "Equity"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(equitySheet)

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, report, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, trades, styles); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, equitySheet, equity, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.win, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "008000"},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.loss, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, report *analytics.Report, styles excelStyles) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Start Time", report.StartTime.Format("2006-01-02 15:04:05")},
		{"End Time", report.EndTime.Format("2006-01-02 15:04:05")},
		{"Starting Equity", report.StartEquity},
		{"Ending Equity", report.EndEquity},
		{"Total Return %", report.TotalReturnPercent},
		{"Annualized Return %", report.AnnualizedReturnPercent},
		{"Volatility %", report.VolatilityPercent},
		{"Sharpe Ratio", finite(report.SharpeRatio)},
		{"Sortino Ratio", finite(report.SortinoRatio)},
		{"Calmar Ratio", finite(report.CalmarRatio)},
		{"Max Drawdown %", report.MaxDrawdownPercent},
		{"Current Drawdown %", report.CurrentDrawdownPercent},
		{"VaR (per period)", report.VaR},
		{"CVaR (per period)", report.CVaR},
		{"Total Trades", report.TotalTrades},
		{"Winning Trades", report.WinningTrades},
		{"Losing Trades", report.LosingTrades},
		{"Win Rate %", report.WinRate},
		{"Profit Factor", finite(report.ProfitFactor)},
		{"Total PnL", report.TotalPnL},
		{"Total Fees", report.TotalFees},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if err := fx.SetCellStyle(sheet, "A1", "B1", styles.header); err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "A", "A", 24)
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, trades []domain.Trade, styles excelStyles) error {
	header := []interface{}{
		"ID", "Symbol", "Side", "Strategy", "Entry Time", "Exit Time",
		"Entry Price", "Exit Price", "Quantity", "PnL", "PnL %", "Fees", "Exit Reason",
	}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "M1", styles.header); err != nil {
		return err
	}

	for i, t := range trades {
		row := []interface{}{
			t.ID,
			t.Symbol,
			string(t.Side),
			t.Strategy,
			t.EntryTime.Format("2006-01-02 15:04:05"),
			t.ExitTime.Format("2006-01-02 15:04:05"),
			t.EntryPrice,
			t.ExitPrice,
			t.Quantity,
			t.PnL,
			t.PnLPercent / 100,
			t.Fees,
			string(t.ExitReason),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}

		pnlCell, _ := excelize.CoordinatesToCellName(10, i+2)
		pnlStyle := styles.win
		if t.PnL < 0 {
			pnlStyle = styles.loss
		}
		if err := fx.SetCellStyle(sheet, pnlCell, pnlCell, pnlStyle); err != nil {
			return err
		}
		pctCell, _ := excelize.CoordinatesToCellName(11, i+2)
		if err := fx.SetCellStyle(sheet, pctCell, pctCell, styles.percent); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExcelReporter) writeEquitySheet(fx *excelize.File, sheet string, equity []domain.EquityPoint, styles excelStyles) error {
	header := []interface{}{"Timestamp", "Equity", "Cash", "Positions Value", "Drawdown %"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "E1", styles.header); err != nil {
		return err
	}

	for i, p := range equity {
		row := []interface{}{
			p.Timestamp.Format("2006-01-02 15:04:05"),
			p.Equity,
			p.Cash,
			p.PositionsValue,
			p.DrawdownPercent / 100,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
