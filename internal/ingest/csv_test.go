package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-signal-engine/internal/types"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadPriceCSV(t *testing.T) {
	p := writeFile(t, t.TempDir(), "BTC_USD_20240101_000000.csv",
		"Timestamp,Open,High,Low,Close,Adj_Close,Volume\n"+
			"2024-01-01 01:00:00,101,102,100,101.5,101.5,10\n"+
			"2024-01-01 00:00:00,100,101,99,100.5,100.5,12\n"+
			"2024-01-01T02:00:00+05:30,102,103,101,102.5,102.5,8\n")

	bars, err := LoadPriceCSV(p)
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 12.0, bars[0].Volume)
	// offset dropped, wall clock kept
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), bars[2].Timestamp)
}

func TestLoadPriceCSVMissingColumn(t *testing.T) {
	p := writeFile(t, t.TempDir(), "x.csv", "timestamp,open,high,low,volume\n2024-01-01,1,1,1,1\n")
	_, err := LoadPriceCSV(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"close"`)
}

func TestLoadPriceCSVBadTimestamp(t *testing.T) {
	p := writeFile(t, t.TempDir(), "x.csv", "timestamp,open,high,low,close,volume\nyesterday,1,1,1,1,1\n")
	_, err := LoadPriceCSV(p)
	assert.Error(t, err)
}

func TestLoadSentimentCSV(t *testing.T) {
	p := writeFile(t, t.TempDir(), "sentiment.csv",
		"TIMESTAMP,Asset,Text\n"+
			"2024-01-01T03:00:00+02:00,BTC-USD,ETF approval rally\n"+
			"2024-01-01 00:30:00,BTC-USD,\"quiet, sideways\"\n"+
			"not a time,BTC-USD,dropped\n"+
			"2024-01-01T00:10:00Z,ETH-USD,other asset\n")

	events, err := LoadSentimentCSV(context.Background(), p, "BTC-USD")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC), events[0].Timestamp)
	assert.Equal(t, "quiet, sideways", events[0].Text)
	assert.Equal(t, time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), events[1].Timestamp)
	assert.False(t, events[1].Scored)

	all, err := LoadSentimentCSV(context.Background(), p, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLoadSentimentCSVMissingTextColumn(t *testing.T) {
	p := writeFile(t, t.TempDir(), "s.csv", "timestamp,asset\n2024-01-01,BTC-USD\n")
	_, err := LoadSentimentCSV(context.Background(), p, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"text"`)
}

func TestLatestPriceCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "BTC_USD_20240101_000000.csv", "")
	newest := writeFile(t, dir, "BTC_USD_20240301_120000.csv", "")
	writeFile(t, dir, "BTC_USD_20240201_000000.csv", "")
	writeFile(t, dir, "BTC_USD_latest.csv", "")
	writeFile(t, dir, "ETH_USD_20250101_000000.csv", "")

	got, err := LatestPriceCSV(dir, SymbolFor("BTC-USD"))
	require.NoError(t, err)
	assert.Equal(t, newest, got)

	_, err = LatestPriceCSV(dir, "SOL_USD")
	assert.True(t, errors.Is(err, ErrNoPriceFile))
}

func TestCSVPriceSourceUsesNewestFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "BTC_USD_20240101_000000.csv", "timestamp,open,high,low,close,volume\n2024-01-01,1,1,1,1,1\n")
	writeFile(t, dir, "BTC_USD_20240102_000000.csv", "timestamp,open,high,low,close,volume\n2024-01-02,2,2,2,2,2\n2024-01-03,3,3,3,3,3\n")

	bars, err := (&CSVPriceSource{Dir: dir}).Bars(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestSavePriceCSVRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prices")
	bars := []types.PriceBar{
		{Timestamp: time.Date(2024, 2, 1, 9, 15, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Timestamp: time.Date(2024, 2, 1, 10, 15, 0, 0, time.UTC), Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 50},
	}

	path, err := SavePriceCSV(dir, "NIFTY_50", bars, time.Date(2024, 2, 1, 16, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "NIFTY_50_20240201_160000.csv", filepath.Base(path))

	latest, err := LatestPriceCSV(dir, "NIFTY_50")
	require.NoError(t, err)
	assert.Equal(t, path, latest)

	got, err := LoadPriceCSV(path)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}

func TestNewKiteSourceRequiresCredentials(t *testing.T) {
	_, err := NewKiteSource(KiteParams{InstrumentToken: 1})
	assert.Error(t, err)
	_, err = NewKiteSource(KiteParams{APIKey: "k", AccessToken: "t"})
	assert.Error(t, err)
	s, err := NewKiteSource(KiteParams{APIKey: "k", AccessToken: "t", InstrumentToken: 738561, Interval: "60minute"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
