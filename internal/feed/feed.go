// Package feed delivers market data to the paper trading engine as
// already-resolved values: a warm-up candle batch and subsequent price
// ticks. It never routes orders.
package feed

import (
	"context"

	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// Source supplies candles and prices for one market.
type Source interface {
	// Klines fetches up to limit recent candles, oldest first.
	Klines(ctx context.Context, symbol string, limit int) ([]types.OHLCV, error)

	// LatestPrice returns the current price for a symbol.
	LatestPrice(ctx context.Context, symbol string) (float64, error)

	// Name identifies the source in logs.
	Name() string
}
