package feed

import (
	"context"
	"fmt"

	"github.com/quantlab/crypto-paper-bot/pkg/data"
	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// ReplaySource serves historical candles loaded from a file, for
// driving the engine through a recorded period.
type ReplaySource struct {
	provider data.Provider
	path     string
	candles  []types.OHLCV
}

// NewReplaySource creates a source over a candle file.
func NewReplaySource(provider data.Provider, path string) *ReplaySource {
	return &ReplaySource{provider: provider, path: path}
}

// Name identifies the source in logs.
func (s *ReplaySource) Name() string {
	return "replay:" + s.path
}

func (s *ReplaySource) load() error {
	if s.candles != nil {
		return nil
	}
	candles, err := s.provider.LoadData(s.path)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles in %s", s.path)
	}
	s.candles = candles
	return nil
}

// Klines returns up to limit candles from the start of the recording.
func (s *ReplaySource) Klines(_ context.Context, _ string, limit int) ([]types.OHLCV, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	if limit > 0 && len(s.candles) > limit {
		return s.candles[:limit], nil
	}
	return s.candles, nil
}

// LatestPrice returns the final close of the recording.
func (s *ReplaySource) LatestPrice(_ context.Context, _ string) (float64, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	return s.candles[len(s.candles)-1].Close, nil
}

// All returns the entire recording, oldest first.
func (s *ReplaySource) All() ([]types.OHLCV, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.candles, nil
}
