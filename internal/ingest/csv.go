package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/types"
)

// ErrNoPriceFile is returned when no price CSV matches the asset symbol.
var ErrNoPriceFile = errors.New("no price file found")

type priceRecord struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

type sentimentRecord struct {
	Timestamp string `csv:"timestamp"`
	Asset     string `csv:"asset"`
	Text      string `csv:"text"`
}

// Naive price timestamps as written by common market data exports.
var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamps that may carry an offset; a missing offset means UTC.
var awareLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// readCSV lower-cases the header row, checks the required columns and decodes
// the rows into out.
func readCSV(path string, required []string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))

	nl := bytes.IndexByte(b, '\n')
	if nl < 0 {
		nl = len(b)
	}
	names := strings.Split(strings.ToLower(strings.TrimRight(string(b[:nl]), "\r")), ",")
	cols := make(map[string]bool, len(names))
	for i, c := range names {
		names[i] = strings.TrimSpace(c)
		cols[names[i]] = true
	}
	header := strings.Join(names, ",")
	for _, c := range required {
		if !cols[c] {
			return fmt.Errorf("%s: required column %q missing", filepath.Base(path), c)
		}
	}

	normalized := append([]byte(header), b[nl:]...)
	if err := gocsv.Unmarshal(bytes.NewReader(normalized), out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadPriceCSV reads an OHLCV CSV. Timestamps are kept naive: any offset in the
// file is dropped and the wall clock is kept. Rows are returned sorted by time.
func LoadPriceCSV(path string) ([]types.PriceBar, error) {
	var recs []priceRecord
	if err := readCSV(path, []string{"timestamp", "open", "high", "low", "close", "volume"}, &recs); err != nil {
		return nil, err
	}

	bars := make([]types.PriceBar, 0, len(recs))
	for i, r := range recs {
		ts, err := parseNaive(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", filepath.Base(path), i+2, err)
		}
		bars = append(bars, types.PriceBar{
			Timestamp: ts,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	sort.SliceStable(bars, func(a, b int) bool { return bars[a].Timestamp.Before(bars[b].Timestamp) })
	return bars, nil
}

// LoadSentimentCSV reads timestamp, asset and text columns. When asset is not
// empty only matching rows are kept. Rows with unparsable timestamps are
// dropped. The result is sorted by time.
func LoadSentimentCSV(ctx context.Context, path, asset string) ([]types.SentimentEvent, error) {
	var recs []sentimentRecord
	if err := readCSV(path, []string{"timestamp", "asset", "text"}, &recs); err != nil {
		return nil, err
	}

	events := make([]types.SentimentEvent, 0, len(recs))
	dropped := 0
	for _, r := range recs {
		if asset != "" && r.Asset != asset {
			continue
		}
		ts, err := parseAware(r.Timestamp)
		if err != nil {
			dropped++
			continue
		}
		events = append(events, types.SentimentEvent{Timestamp: ts, Asset: r.Asset, Text: r.Text})
	}
	if dropped > 0 {
		logger.Warn(ctx, "Dropped sentiment rows with unparsable timestamps", "file", path, "dropped", dropped)
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].Timestamp.Before(events[b].Timestamp) })
	return events, nil
}

func parseNaive(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range naiveLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	// offset-carrying input: keep its wall clock
	for _, l := range awareLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return types.NaiveUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

func parseAware(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range awareLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

// SymbolFor maps an asset name to the symbol used in price file names.
func SymbolFor(asset string) string {
	return strings.ReplaceAll(asset, "-", "_")
}

// LatestPriceCSV returns the newest {symbol}_{YYYYmmdd_HHMMSS}.csv in dir.
func LatestPriceCSV(dir, symbol string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, symbol+"_*.csv"))
	if err != nil {
		return "", err
	}

	var (
		best   string
		bestTS time.Time
	)
	for _, m := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), symbol+"_"), ".csv")
		ts, err := time.Parse("20060102_150405", stamp)
		if err != nil {
			continue
		}
		if best == "" || ts.After(bestTS) {
			best, bestTS = m, ts
		}
	}
	if best == "" {
		return "", fmt.Errorf("%s in %s: %w", symbol, dir, ErrNoPriceFile)
	}
	return best, nil
}

// CSVPriceSource reads the newest price file for an asset, or a fixed file.
type CSVPriceSource struct {
	Dir  string
	File string
}

var _ interfaces.PriceSource = (*CSVPriceSource)(nil)

func (s *CSVPriceSource) Bars(ctx context.Context, asset string) ([]types.PriceBar, error) {
	path := s.File
	if path == "" {
		p, err := LatestPriceCSV(s.Dir, SymbolFor(asset))
		if err != nil {
			return nil, err
		}
		path = p
	}
	logger.Debug(ctx, "Loading price CSV", "asset", asset, "file", path)
	return LoadPriceCSV(path)
}

// CSVEventSource reads sentiment events for an asset from a CSV file.
type CSVEventSource struct {
	Path string
}

var _ interfaces.EventSource = (*CSVEventSource)(nil)

func (s *CSVEventSource) Events(ctx context.Context, asset string) ([]types.SentimentEvent, error) {
	logger.Debug(ctx, "Loading sentiment CSV", "asset", asset, "file", s.Path)
	return LoadSentimentCSV(ctx, s.Path, asset)
}

// SavePriceCSV writes bars to dir as {symbol}_{YYYYmmdd_HHMMSS}.csv stamped with
// at, in the layout LatestPriceCSV and LoadPriceCSV read back.
func SavePriceCSV(dir, symbol string, bars []types.PriceBar, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	recs := make([]*priceRecord, len(bars))
	for i, b := range bars {
		recs[i] = &priceRecord{
			Timestamp: b.Timestamp.Format("2006-01-02 15:04:05"),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}

	path := filepath.Join(dir, symbol+"_"+at.Format("20060102_150405")+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := gocsv.MarshalFile(&recs, f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return path, f.Close()
}
