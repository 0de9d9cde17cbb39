package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/quantlab/crypto-paper-bot/internal/analytics"
	"github.com/quantlab/crypto-paper-bot/internal/domain"
	"github.com/quantlab/crypto-paper-bot/internal/exits"
	"github.com/quantlab/crypto-paper-bot/internal/logger"
	"github.com/quantlab/crypto-paper-bot/internal/paper"
	"github.com/quantlab/crypto-paper-bot/pkg/config"
	"github.com/quantlab/crypto-paper-bot/pkg/data"
	"github.com/quantlab/crypto-paper-bot/pkg/reporting"
	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

const warmupCandles = 50

func main() {
	var (
		dataFile   = flag.String("data", "", "Candle CSV file (timestamp,open,high,low,close,volume)")
		configFile = flag.String("config", "", "Configuration file (optional, defaults apply)")
		symbol     = flag.String("symbol", "", "Symbol name - overrides config")
		outputDir  = flag.String("output", "results", "Output directory for reports")
		writeExcel = flag.Bool("xlsx", false, "Also write an Excel workbook")
	)
	flag.Parse()

	if *dataFile == "" {
		log.Fatal("Please specify a candle file with -data flag")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}

	provider := data.NewCSVProvider()
	candles, err := provider.LoadData(*dataFile)
	if err != nil {
		log.Fatalf("Failed to load candles: %v", err)
	}
	if err := provider.ValidateData(candles); err != nil {
		log.Fatalf("Invalid candle data: %v", err)
	}
	if len(candles) <= warmupCandles {
		log.Fatalf("Need more than %d candles, got %d", warmupCandles, len(candles))
	}

	fmt.Printf("🚀 Replaying %d candles of %s (balance $%.2f)\n", len(candles), cfg.Symbol, cfg.InitialBalance)

	engine := paper.NewEngine(cfg, logger.New(cfg.Logging, cfg.Symbol))
	engine.SeedCandles(cfg.Symbol, candles[:warmupCandles])

	strat := newTrendStrategy(cfg.Symbol)
	for _, candle := range candles[warmupCandles:] {
		engine.OnCandle(cfg.Symbol, candle)
		engine.Tick(candle.Timestamp)
		strat.onCandle(engine, candle)
	}

	// Flatten whatever is still open so the report covers every entry.
	last := candles[len(candles)-1]
	for _, pos := range engine.GetPositions() {
		if _, err := engine.ClosePosition(pos.ID, last.Close); err != nil {
			log.Printf("Warning: could not close %s: %v", pos.ID, err)
		}
	}

	trades := engine.GetClosedTrades()
	equity := engine.GetEquityCurve()
	report := analytics.GenerateReport(trades, equity, analytics.DefaultConfig())

	console := reporting.NewConsoleReporter()
	console.PrintReport(report)
	console.PrintTrades(trades)

	jsonPath := filepath.Join(*outputDir, "report.json")
	if err := reporting.WriteReportJSON(report, trades, equity, jsonPath); err != nil {
		log.Fatalf("Failed to write JSON report: %v", err)
	}
	csvPath := filepath.Join(*outputDir, "trades.csv")
	if err := reporting.WriteTradesCSV(trades, csvPath); err != nil {
		log.Fatalf("Failed to write trade log: %v", err)
	}
	if err := reporting.WriteEquityCSV(equity, filepath.Join(*outputDir, "equity.csv")); err != nil {
		log.Fatalf("Failed to write equity curve: %v", err)
	}
	if *writeExcel {
		xlsxPath := filepath.Join(*outputDir, "report.xlsx")
		if err := reporting.NewExcelReporter().WriteReportXLSX(report, trades, equity, xlsxPath); err != nil {
			log.Fatalf("Failed to write Excel report: %v", err)
		}
		fmt.Printf("📄 Excel report written to %s\n", xlsxPath)
	}

	fmt.Printf("✅ Done. Reports written to %s\n", *outputDir)
}

// trendStrategy is a deliberately small demo signal: enter long on a
// fast/slow SMA cross up with an ATR trailing stop, let the exit
// engine handle everything else.
type trendStrategy struct {
	symbol string
	closes []float64
}

const (
	fastPeriod = 10
	slowPeriod = 30
)

func newTrendStrategy(symbol string) *trendStrategy {
	return &trendStrategy{symbol: symbol}
}

func (s *trendStrategy) onCandle(engine *paper.Engine, candle types.OHLCV) {
	s.closes = append(s.closes, candle.Close)
	if len(s.closes) < slowPeriod+1 {
		return
	}
	if len(s.closes) > slowPeriod*4 {
		s.closes = s.closes[len(s.closes)-slowPeriod*2:]
	}

	crossedUp := sma(s.closes, fastPeriod) > sma(s.closes, slowPeriod) &&
		sma(s.closes[:len(s.closes)-1], fastPeriod) <= sma(s.closes[:len(s.closes)-1], slowPeriod)
	if !crossedUp {
		return
	}
	if len(engine.GetPositions()) > 0 {
		return
	}

	_, err := engine.OpenPosition(paper.OpenRequest{
		Symbol:   s.symbol,
		Side:     domain.SideLong,
		Strategy: "sma-cross",
		Stop: &exits.StopParams{
			Type:      exits.StopATRTrailing,
			ATRPeriod: 14,
		},
	})
	if err != nil {
		log.Printf("Entry rejected: %v", err)
	}
}

func sma(closes []float64, period int) float64 {
	if len(closes) < period {
		return 0
	}
	sum := 0.0
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period)
}
