package backtest

import (
	"math"
	"time"

	"sentiment-signal-engine/internal/pipeline"
	"sentiment-signal-engine/internal/types"
)

// Point is one step of an equity curve.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// Result is the equity curve of a strategy starting from 1.0.
type Result struct {
	Final float64 `json:"final"`
	Curve []Point `json:"curve"`
}

// Comparison holds the price-only and combined strategies over the same rows.
type Comparison struct {
	Asset     string `json:"asset"`
	PriceOnly Result `json:"price_only"`
	Combined  Result `json:"combined"`
}

// Run holds the position picked at t-1 over the log return at t. The first row
// has no prior position and contributes nothing, so the curve starts at 1.0.
func Run(rows []types.SignalRow, pick func(types.SignalRow) types.Signal) Result {
	res := Result{Final: 1, Curve: make([]Point, len(rows))}
	cum := 0.0
	for i, r := range rows {
		if i > 0 {
			cum += float64(pick(rows[i-1])) * r.Return
		}
		res.Curve[i] = Point{Timestamp: r.Timestamp, Equity: math.Exp(cum)}
	}
	if len(rows) > 0 {
		res.Final = res.Curve[len(rows)-1].Equity
	}
	return res
}

func priceSignal(r types.SignalRow) types.Signal    { return r.PriceSignal }
func combinedSignal(r types.SignalRow) types.Signal { return r.Combined }

// Compare backtests the price signal and the combined signal of a report.
func Compare(r *pipeline.Report) Comparison {
	return Comparison{
		Asset:     r.Asset,
		PriceOnly: Run(r.Rows, priceSignal),
		Combined:  Run(r.Rows, combinedSignal),
	}
}
