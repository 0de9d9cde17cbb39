package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/quantlab/crypto-paper-bot/internal/analytics"
	"github.com/quantlab/crypto-paper-bot/internal/domain"
)

// nonFiniteSentinel replaces ±Inf and NaN ratio values in JSON output,
// which encoding/json refuses to marshal. Consumers treat any
// magnitude at or above it as "no losses on record".
const nonFiniteSentinel = 1e9

// JSONReport is the serializable wrapper around a report plus its raw
// inputs.
type JSONReport struct {
	Report *analytics.Report    `json:"report"`
	Trades []domain.Trade       `json:"trades,omitempty"`
	Equity []domain.EquityPoint `json:"equity,omitempty"`
}

// WriteReportJSON writes the report and optional raw data to a JSON
// file, creating parent directories as needed.
func WriteReportJSON(report *analytics.Report, trades []domain.Trade, equity []domain.EquityPoint, path string) error {
	sanitized := *report
	sanitized.SharpeRatio = finite(report.SharpeRatio)
	sanitized.SortinoRatio = finite(report.SortinoRatio)
	sanitized.CalmarRatio = finite(report.CalmarRatio)
	sanitized.ProfitFactor = finite(report.ProfitFactor)

	sanitized.ByStrategy = sanitizeBreakdowns(report.ByStrategy)
	sanitized.ByAsset = sanitizeBreakdowns(report.ByAsset)

	data, err := json.MarshalIndent(JSONReport{
		Report: &sanitized,
		Trades: trades,
		Equity: equity,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func sanitizeBreakdowns(groups []analytics.Breakdown) []analytics.Breakdown {
	out := make([]analytics.Breakdown, len(groups))
	for i, b := range groups {
		b.ProfitFactor = finite(b.ProfitFactor)
		out[i] = b
	}
	return out
}

// finite maps non-finite metric values onto the sentinel, preserving
// sign.
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if math.IsInf(v, 1) || v > nonFiniteSentinel {
		return nonFiniteSentinel
	}
	if math.IsInf(v, -1) || v < -nonFiniteSentinel {
		return -nonFiniteSentinel
	}
	return v
}
