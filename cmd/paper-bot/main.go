package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/quantlab/crypto-paper-bot/internal/analytics"
	"github.com/quantlab/crypto-paper-bot/internal/feed"
	"github.com/quantlab/crypto-paper-bot/internal/logger"
	"github.com/quantlab/crypto-paper-bot/internal/monitoring"
	"github.com/quantlab/crypto-paper-bot/internal/paper"
	"github.com/quantlab/crypto-paper-bot/pkg/config"
	"github.com/quantlab/crypto-paper-bot/pkg/reporting"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file (optional, defaults apply)")
		symbol      = flag.String("symbol", "", "Symbol to trade - overrides config")
		category    = flag.String("category", "spot", "Market category (spot, linear)")
		interval    = flag.String("interval", "5", "Kline interval for warm-up candles")
		testnet     = flag.Bool("testnet", false, "Use the exchange testnet")
		pollSeconds = flag.Int("poll", 5, "Price poll interval in seconds")
		metricsAddr = flag.String("metrics", ":9090", "Prometheus metrics listen address (empty to disable)")
		outputDir   = flag.String("output", "results", "Output directory for the final report")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}

	appLog := logger.New(cfg.Logging, cfg.Symbol)
	engine := paper.NewEngine(cfg, appLog)
	source := feed.NewBybitSource(*category, *interval, *testnet)

	fmt.Println("🚀 Paper Trading Bot Starting...")
	fmt.Printf("📊 Symbol: %s | Balance: $%.2f | Feed: %s\n", cfg.Symbol, cfg.InitialBalance, source.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm up the candle history so ATR and structure stops have data
	// from the first tick.
	warmupCtx, warmupCancel := context.WithTimeout(ctx, 30*time.Second)
	candles, err := source.Klines(warmupCtx, cfg.Symbol, 200)
	warmupCancel()
	if err != nil {
		log.Fatalf("Failed to fetch warm-up candles: %v", err)
	}
	engine.SeedCandles(cfg.Symbol, candles)
	appLog.Status("warm-up complete", map[string]interface{}{"candles": len(candles)})

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	go pollPrices(ctx, engine, source, cfg.Symbol, time.Duration(*pollSeconds)*time.Second, appLog)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("📡 Bot is ready. Press Ctrl+C to stop...")
	sig := <-sigChan
	fmt.Printf("\n🛑 Shutdown signal (%v) received...\n", sig)
	cancel()

	writeFinalReport(engine, *outputDir)
	fmt.Println("✅ Bot stopped successfully")
}

// pollPrices drives the engine with price ticks and periodic warning
// checks until the context is cancelled.
func pollPrices(ctx context.Context, engine *paper.Engine, source feed.Source, symbol string, interval time.Duration, appLog *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	warnTicker := time.NewTicker(time.Minute)
	defer warnTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			price, err := source.LatestPrice(ctx, symbol)
			if err != nil {
				appLog.Status("price poll failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			engine.OnPrice(symbol, price, now.UTC())
		case now := <-warnTicker.C:
			engine.Tick(now.UTC())
			for _, w := range engine.CheckWarnings() {
				appLog.Risk(w.Message, map[string]interface{}{"type": w.Type})
			}
		}
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

// writeFinalReport prints the session summary and writes JSON and CSV
// reports to the output directory.
func writeFinalReport(engine *paper.Engine, outputDir string) {
	trades := engine.GetClosedTrades()
	equity := engine.GetEquityCurve()
	report := analytics.GenerateReport(trades, equity, analytics.DefaultConfig())

	console := reporting.NewConsoleReporter()
	console.PrintReport(report)

	if err := reporting.WriteReportJSON(report, trades, equity, filepath.Join(outputDir, "report.json")); err != nil {
		log.Printf("Warning: could not write JSON report: %v", err)
	}
	if err := reporting.WriteTradesCSV(trades, filepath.Join(outputDir, "trades.csv")); err != nil {
		log.Printf("Warning: could not write trade log: %v", err)
	}
}
