package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantlab/crypto-paper-bot/pkg/types"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadData_Basic parses a well-formed file.
func TestLoadData_Basic(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-03-01 00:00:00,100,105,99,104,1000
2024-03-01 00:05:00,104,108,103,107,1200
`)

	candles, err := NewCSVProvider().LoadData(path)
	assert.NoError(t, err)
	assert.Len(t, candles, 2)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 107.0, candles[1].Close)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), candles[0].Timestamp)
}

// TestLoadData_SkipsMalformedRows drops rows that fail to parse or
// violate OHLC sanity instead of failing the load.
func TestLoadData_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
2024-03-01 00:00:00,100,105,99,104,1000
not-a-date,1,2,1,2,10
2024-03-01 00:05:00,abc,108,103,107,1200
2024-03-01 00:10:00,100,90,99,104,1000
2024-03-01 00:15:00,104,108,103,107,1200
`)

	candles, err := NewCSVProvider().LoadData(path)
	assert.NoError(t, err)
	// Bad timestamp, bad float and high < low are all skipped.
	assert.Len(t, candles, 2)
}

// TestLoadData_UnixTimestamps accepts millisecond and second epochs.
func TestLoadData_UnixTimestamps(t *testing.T) {
	path := writeCSV(t, `timestamp,open,high,low,close,volume
1709251200000,100,105,99,104,1000
1709251500,104,108,103,107,1200
`)

	candles, err := NewCSVProvider().LoadData(path)
	assert.NoError(t, err)
	assert.Len(t, candles, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), candles[0].Timestamp)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC), candles[1].Timestamp)
}

// TestLoadData_MissingFile reports the open error.
func TestLoadData_MissingFile(t *testing.T) {
	_, err := NewCSVProvider().LoadData("does-not-exist.csv")
	assert.Error(t, err)
}

// TestValidateData_Chronological rejects out-of-order candles.
func TestValidateData_Chronological(t *testing.T) {
	p := NewCSVProvider()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	ordered := []types.OHLCV{
		{Timestamp: base},
		{Timestamp: base.Add(5 * time.Minute)},
	}
	assert.NoError(t, p.ValidateData(ordered))

	unordered := []types.OHLCV{
		{Timestamp: base.Add(5 * time.Minute)},
		{Timestamp: base},
	}
	assert.Error(t, p.ValidateData(unordered))
}

// TestLoadData_CustomFormat maps non-default column positions.
func TestLoadData_CustomFormat(t *testing.T) {
	path := writeCSV(t, `close,volume,timestamp,open,high,low
104,1000,2024-03-01 00:00:00,100,105,99
`)

	provider := NewCSVProviderWithFormat(CSVColumnMapping{
		TimestampCol: 2,
		OpenCol:      3,
		HighCol:      4,
		LowCol:       5,
		CloseCol:     0,
		VolumeCol:    1,
		MinColumns:   6,
		DateFormat:   "2006-01-02 15:04:05",
	})

	candles, err := provider.LoadData(path)
	assert.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, 104.0, candles[0].Close)
	assert.Equal(t, 99.0, candles[0].Low)
}
