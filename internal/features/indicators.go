package features

import (
	"math"
	"sort"
	"time"

	"sentiment-signal-engine/internal/ta"
	"sentiment-signal-engine/internal/types"
)

// IndicatorConfig selects the indicator windows computed by BuildIndicators.
type IndicatorConfig struct {
	MAWindows []int
	VolWindow int
	RSIWindow int
}

// DefaultIndicatorConfig mirrors the standard feature set: MA 10/20/50, vol 20, RSI 14.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		MAWindows: []int{10, 20, 50},
		VolWindow: 20,
		RSIWindow: 14,
	}
}

// MaxWindow returns the largest configured window.
func (c IndicatorConfig) MaxWindow() int {
	m := c.VolWindow
	if c.RSIWindow > m {
		m = c.RSIWindow
	}
	for _, w := range c.MAWindows {
		if w > m {
			m = w
		}
	}
	return m
}

func (c IndicatorConfig) validate() error {
	if len(c.MAWindows) == 0 {
		return dataErr("indicators", nil, "no moving average windows configured")
	}
	for _, w := range c.MAWindows {
		if w <= 0 {
			return dataErr("indicators", nil, "moving average window must be positive, got %d", w)
		}
	}
	if c.VolWindow <= 1 {
		return dataErr("indicators", nil, "volatility window must be greater than 1, got %d", c.VolWindow)
	}
	if c.RSIWindow <= 0 {
		return dataErr("indicators", nil, "rsi window must be positive, got %d", c.RSIWindow)
	}
	return nil
}

// BuildIndicators computes log returns, moving averages, volatility and RSI for an
// ordered price series and drops every row that lacks a full lookback.
func BuildIndicators(bars []types.PriceBar, cfg IndicatorConfig) ([]types.IndicatorRow, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, dataErr("indicators", ErrEmptySeries, "price series is empty")
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return nil, dataErr("indicators", nil, "close must be positive at index %d (%s), got %v",
				i, b.Timestamp.Format(types.NaiveLayout), b.Close)
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return nil, dataErr("indicators", nil, "timestamps must be strictly increasing at index %d (%s)",
				i, b.Timestamp.Format(types.NaiveLayout))
		}
		closes[i] = b.Close
	}

	returns := ta.LogReturns(closes)
	vol := ta.StdDev(returns, cfg.VolWindow)
	rsi := ta.RSI(closes, cfg.RSIWindow)

	windows := uniqueSorted(cfg.MAWindows)
	mas := make(map[int][]float64, len(windows))
	for _, w := range windows {
		mas[w] = ta.SMA(closes, w)
	}

	rows := make([]types.IndicatorRow, 0, len(bars))
	for i, b := range bars {
		row := types.IndicatorRow{
			Timestamp: b.Timestamp,
			Bar:       b,
			Return:    returns[i],
			MA:        make(map[int]float64, len(windows)),
			Vol:       map[int]float64{cfg.VolWindow: vol[i]},
			RSI:       map[int]float64{cfg.RSIWindow: rsi[i]},
		}
		dense := !math.IsNaN(row.Return) && !math.IsNaN(vol[i]) && !math.IsNaN(rsi[i])
		for _, w := range windows {
			v := mas[w][i]
			if math.IsNaN(v) {
				dense = false
			}
			row.MA[w] = v
		}
		if dense {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, dataErr("indicators", ErrInsufficientHistory, "%d price rows, largest window %d",
			len(bars), cfg.MaxWindow())
	}
	return rows, nil
}

// Index returns the timestamps of indicator rows in order.
func Index(rows []types.IndicatorRow) []time.Time {
	idx := make([]time.Time, len(rows))
	for i, r := range rows {
		idx[i] = r.Timestamp
	}
	return idx
}

func uniqueSorted(ws []int) []int {
	seen := make(map[int]bool, len(ws))
	out := make([]int, 0, len(ws))
	for _, w := range ws {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	sort.Ints(out)
	return out
}
