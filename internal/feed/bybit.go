package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// BybitSource reads public market data from Bybit. Only unauthenticated
// read endpoints are used; the simulator never places orders.
type BybitSource struct {
	client   *bybit_api.Client
	category string
	interval string
}

// NewBybitSource creates a market-data source for the given category
// ("spot", "linear") and kline interval (Bybit notation, e.g. "5",
// "60", "D").
func NewBybitSource(category, interval string, testnet bool) *BybitSource {
	baseURL := bybit_api.MAINNET
	if testnet {
		baseURL = bybit_api.TESTNET
	}
	if category == "" {
		category = "spot"
	}
	if interval == "" {
		interval = "5"
	}
	return &BybitSource{
		client:   bybit_api.NewBybitHttpClient("", "", bybit_api.WithBaseURL(baseURL)),
		category: category,
		interval: interval,
	}
}

// Name identifies the source in logs.
func (s *BybitSource) Name() string {
	return "bybit"
}

// Klines fetches up to limit recent candles, oldest first.
func (s *BybitSource) Klines(ctx context.Context, symbol string, limit int) ([]types.OHLCV, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	params := map[string]interface{}{
		"category": s.category,
		"symbol":   symbol,
		"interval": s.interval,
		"limit":    limit,
	}

	result, err := s.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}
	return parseKlines(result)
}

// LatestPrice returns the last traded price from the ticker endpoint.
func (s *BybitSource) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": s.category,
		"symbol":   symbol,
	}

	result, err := s.client.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get ticker: %w", err)
	}
	return parseLastPrice(result)
}

func serverResult(response interface{}) (json.RawMessage, error) {
	resp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", resp.RetMsg, resp.RetCode)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return raw, nil
}

func parseKlines(response interface{}) ([]types.OHLCV, error) {
	raw, err := serverResult(response)
	if err != nil {
		return nil, err
	}

	var result struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse kline response: %w", err)
	}

	// Bybit returns newest first: [startTime, open, high, low, close,
	// volume, turnover]. Reverse into chronological order.
	candles := make([]types.OHLCV, 0, len(result.List))
	for i := len(result.List) - 1; i >= 0; i-- {
		row := result.List[i]
		if len(row) < 6 {
			continue
		}
		ms, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(row[1], 64)
		high, err2 := strconv.ParseFloat(row[2], 64)
		low, err3 := strconv.ParseFloat(row[3], 64)
		closePrice, err4 := strconv.ParseFloat(row[4], 64)
		volume, err5 := strconv.ParseFloat(row[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		candles = append(candles, types.OHLCV{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}
	return candles, nil
}

func parseLastPrice(response interface{}) (float64, error) {
	raw, err := serverResult(response)
	if err != nil {
		return 0, err
	}

	var result struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("failed to parse ticker response: %w", err)
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("empty ticker response")
	}
	price, err := strconv.ParseFloat(result.List[0].LastPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid last price %q", result.List[0].LastPrice)
	}
	return price, nil
}
