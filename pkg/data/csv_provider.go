// Package data loads historical candle data for replay through the
// paper trading engine.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

// Provider loads historical candles from a source path.
type Provider interface {
	LoadData(source string) ([]types.OHLCV, error)
	GetName() string
}

// CSVColumnMapping defines column positions and the timestamp format
// of a candle CSV file.
type CSVColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches "timestamp,open,high,low,close,volume" with
// RFC3339-style timestamps.
var DefaultCSVFormat = CSVColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVProvider implements Provider for CSV files.
type CSVProvider struct {
	format CSVColumnMapping
}

// NewCSVProvider creates a CSV provider with the default format.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultCSVFormat}
}

// NewCSVProviderWithFormat creates a CSV provider with a custom format.
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// GetName returns the name of the data provider.
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData reads candles from a CSV file, skipping malformed rows.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("could not open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("could not read CSV header: %w", err)
	}

	format := p.format
	var data []types.OHLCV
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			continue
		}

		timestamp, err := parseTimestamp(record[format.TimestampCol], format.DateFormat)
		if err != nil {
			continue
		}

		open, err1 := strconv.ParseFloat(record[format.OpenCol], 64)
		high, err2 := strconv.ParseFloat(record[format.HighCol], 64)
		low, err3 := strconv.ParseFloat(record[format.LowCol], 64)
		closePrice, err4 := strconv.ParseFloat(record[format.CloseCol], 64)
		volume, err5 := strconv.ParseFloat(record[format.VolumeCol], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}

		if open <= 0 || high <= 0 || low <= 0 || closePrice <= 0 {
			continue
		}
		if high < open || high < closePrice || high < low {
			continue
		}
		if low > open || low > closePrice {
			continue
		}

		data = append(data, types.OHLCV{
			Timestamp: timestamp,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return data, nil
}

// parseTimestamp accepts the configured layout or a unix
// milliseconds/seconds value.
func parseTimestamp(raw, layout string) (time.Time, error) {
	if ts, err := time.Parse(layout, raw); err == nil {
		return ts, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
	}
	if ms > 1e12 {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Unix(ms, 0).UTC(), nil
}

// ValidateData checks chronological order and positive prices.
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("data out of order at index %d", i)
		}
	}
	return nil
}
