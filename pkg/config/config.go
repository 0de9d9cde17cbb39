package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// RiskConfig holds the portfolio-level risk limits. It is explicitly
// passed into the enforcer and re-read on every check, so an update
// takes effect on the next call.
type RiskConfig struct {
	MaxPositionSizePercent  float64 `json:"max_position_size_percent"`
	MaxPositions            int     `json:"max_positions"`
	MaxDailyLossPercent     float64 `json:"max_daily_loss_percent"`
	MaxTotalDrawdownPercent float64 `json:"max_total_drawdown_percent"`

	DefaultStopLossPercent   float64 `json:"default_stop_loss_percent"`
	DefaultTakeProfitPercent float64 `json:"default_take_profit_percent"`

	TrailingStopDistancePercent   float64 `json:"trailing_stop_distance_percent"`
	TrailingStopActivationPercent float64 `json:"trailing_stop_activation_percent"`

	MaxAssetExposurePercent float64 `json:"max_asset_exposure_percent"`
	MaxCorrelatedPositions  int     `json:"max_correlated_positions"`
	CorrelationThreshold    float64 `json:"correlation_threshold"`

	// WarningRatio is the fraction of each limit at which a warning
	// (never a block) is emitted.
	WarningRatio float64 `json:"warning_ratio"`
}

// RiskConfigPatch carries a partial risk-config update. Nil fields are
// left unchanged.
type RiskConfigPatch struct {
	MaxPositionSizePercent  *float64 `json:"max_position_size_percent,omitempty"`
	MaxPositions            *int     `json:"max_positions,omitempty"`
	MaxDailyLossPercent     *float64 `json:"max_daily_loss_percent,omitempty"`
	MaxTotalDrawdownPercent *float64 `json:"max_total_drawdown_percent,omitempty"`

	DefaultStopLossPercent   *float64 `json:"default_stop_loss_percent,omitempty"`
	DefaultTakeProfitPercent *float64 `json:"default_take_profit_percent,omitempty"`

	TrailingStopDistancePercent   *float64 `json:"trailing_stop_distance_percent,omitempty"`
	TrailingStopActivationPercent *float64 `json:"trailing_stop_activation_percent,omitempty"`

	MaxAssetExposurePercent *float64 `json:"max_asset_exposure_percent,omitempty"`
	MaxCorrelatedPositions  *int     `json:"max_correlated_positions,omitempty"`
	CorrelationThreshold    *float64 `json:"correlation_threshold,omitempty"`
}

// FeeConfig models the simulated execution costs.
type FeeConfig struct {
	MakerFeePercent float64 `json:"maker_fee_percent"`
	TakerFeePercent float64 `json:"taker_fee_percent"`
	SlippagePercent float64 `json:"slippage_percent"`
}

// SizingConfig holds the default position-sizing parameters.
type SizingConfig struct {
	Method              string  `json:"method"` // fixed, percentage, atr_based, kelly
	RiskPerTradePercent float64 `json:"risk_per_trade_percent"`
}

// LoggingConfig controls the structured logger and its rotation.
type LoggingConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"` // text or json
	Output     string `json:"output"` // stdout, file, both
	Directory  string `json:"directory"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// EngineConfig is the full paper-trading engine configuration.
type EngineConfig struct {
	Symbol         string        `json:"symbol"`
	InitialBalance float64       `json:"initial_balance"`
	Risk           RiskConfig    `json:"risk"`
	Fees           FeeConfig     `json:"fees"`
	Sizing         SizingConfig  `json:"sizing"`
	Logging        LoggingConfig `json:"logging"`

	// MaxEvents bounds the in-memory domain event queue.
	MaxEvents int `json:"max_events"`
}

// DefaultRiskConfig returns the default risk limits.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxPositionSizePercent:  10.0,
		MaxPositions:            5,
		MaxDailyLossPercent:     5.0,
		MaxTotalDrawdownPercent: 20.0,

		DefaultStopLossPercent:   2.0,
		DefaultTakeProfitPercent: 4.0,

		TrailingStopDistancePercent:   1.5,
		TrailingStopActivationPercent: 1.0,

		MaxAssetExposurePercent: 30.0,
		MaxCorrelatedPositions:  2,
		CorrelationThreshold:    0.7,

		WarningRatio: 0.8,
	}
}

// DefaultEngineConfig returns a complete default configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Symbol:         "BTCUSDT",
		InitialBalance: 10000.0,
		Risk:           DefaultRiskConfig(),
		Fees: FeeConfig{
			MakerFeePercent: 0.02,
			TakerFeePercent: 0.055,
			SlippagePercent: 0.05,
		},
		Sizing: SizingConfig{
			Method:              "percentage",
			RiskPerTradePercent: 1.0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			Directory:  "logs",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
		MaxEvents: 1000,
	}
}

// Load reads configuration from an optional JSON file and applies
// environment overrides. A missing .env file is not an error.
func Load(configFile string) (*EngineConfig, error) {
	_ = godotenv.Load()

	cfg := DefaultEngineConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *EngineConfig) {
	if v := os.Getenv("PAPER_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v, ok := envFloat("PAPER_INITIAL_BALANCE"); ok {
		cfg.InitialBalance = v
	}
	if v, ok := envFloat("PAPER_MAX_POSITION_SIZE_PERCENT"); ok {
		cfg.Risk.MaxPositionSizePercent = v
	}
	if v, ok := envInt("PAPER_MAX_POSITIONS"); ok {
		cfg.Risk.MaxPositions = v
	}
	if v, ok := envFloat("PAPER_MAX_DAILY_LOSS_PERCENT"); ok {
		cfg.Risk.MaxDailyLossPercent = v
	}
	if v, ok := envFloat("PAPER_MAX_DRAWDOWN_PERCENT"); ok {
		cfg.Risk.MaxTotalDrawdownPercent = v
	}
	if v := os.Getenv("PAPER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Validate checks the configuration for consistency.
func (c *EngineConfig) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be greater than 0, got %.2f", c.InitialBalance)
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if c.Fees.MakerFeePercent < 0 || c.Fees.TakerFeePercent < 0 {
		return fmt.Errorf("fee rates must not be negative")
	}
	if c.Fees.SlippagePercent < 0 {
		return fmt.Errorf("slippage must not be negative")
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = 1000
	}
	return nil
}

// Validate checks the risk limits for consistency.
func (c *RiskConfig) Validate() error {
	if c.MaxPositionSizePercent <= 0 || c.MaxPositionSizePercent > 100 {
		return fmt.Errorf("max position size must be in (0, 100], got %.2f", c.MaxPositionSizePercent)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max positions must be greater than 0, got %d", c.MaxPositions)
	}
	if c.MaxDailyLossPercent <= 0 {
		return fmt.Errorf("max daily loss must be greater than 0, got %.2f", c.MaxDailyLossPercent)
	}
	if c.MaxTotalDrawdownPercent <= 0 {
		return fmt.Errorf("max total drawdown must be greater than 0, got %.2f", c.MaxTotalDrawdownPercent)
	}
	if c.MaxAssetExposurePercent <= 0 {
		return fmt.Errorf("max asset exposure must be greater than 0, got %.2f", c.MaxAssetExposurePercent)
	}
	if c.CorrelationThreshold < 0 || c.CorrelationThreshold > 1 {
		return fmt.Errorf("correlation threshold must be in [0, 1], got %.2f", c.CorrelationThreshold)
	}
	if c.WarningRatio <= 0 || c.WarningRatio >= 1 {
		c.WarningRatio = 0.8
	}
	return nil
}

// Apply merges a partial update into the config and returns the result.
// The receiver is not modified.
func (c RiskConfig) Apply(patch RiskConfigPatch) RiskConfig {
	out := c
	if patch.MaxPositionSizePercent != nil {
		out.MaxPositionSizePercent = *patch.MaxPositionSizePercent
	}
	if patch.MaxPositions != nil {
		out.MaxPositions = *patch.MaxPositions
	}
	if patch.MaxDailyLossPercent != nil {
		out.MaxDailyLossPercent = *patch.MaxDailyLossPercent
	}
	if patch.MaxTotalDrawdownPercent != nil {
		out.MaxTotalDrawdownPercent = *patch.MaxTotalDrawdownPercent
	}
	if patch.DefaultStopLossPercent != nil {
		out.DefaultStopLossPercent = *patch.DefaultStopLossPercent
	}
	if patch.DefaultTakeProfitPercent != nil {
		out.DefaultTakeProfitPercent = *patch.DefaultTakeProfitPercent
	}
	if patch.TrailingStopDistancePercent != nil {
		out.TrailingStopDistancePercent = *patch.TrailingStopDistancePercent
	}
	if patch.TrailingStopActivationPercent != nil {
		out.TrailingStopActivationPercent = *patch.TrailingStopActivationPercent
	}
	if patch.MaxAssetExposurePercent != nil {
		out.MaxAssetExposurePercent = *patch.MaxAssetExposurePercent
	}
	if patch.MaxCorrelatedPositions != nil {
		out.MaxCorrelatedPositions = *patch.MaxCorrelatedPositions
	}
	if patch.CorrelationThreshold != nil {
		out.CorrelationThreshold = *patch.CorrelationThreshold
	}
	return out
}
