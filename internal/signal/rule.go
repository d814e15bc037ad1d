package signal

import (
	"errors"
	"fmt"

	"sentiment-signal-engine/internal/types"
)

var (
	// ErrMissingIndicator is returned when a row lacks an indicator the rule reads.
	ErrMissingIndicator = errors.New("missing indicator")
	// ErrIndexMismatch is returned when series to be combined are not aligned.
	ErrIndexMismatch = errors.New("series index mismatch")
)

// Rule is the trend-plus-momentum price rule.
type Rule struct {
	MAWindow  int
	RSIWindow int
	BuyRSI    float64
	SellRSI   float64
}

// DefaultRule returns BUY above ma_20 with rsi_14 > 55, SELL below ma_20 with rsi_14 < 45.
func DefaultRule() Rule {
	return Rule{MAWindow: 20, RSIWindow: 14, BuyRSI: 55, SellRSI: 45}
}

// Evaluate applies the rule to a single indicator row.
func (r Rule) Evaluate(row types.IndicatorRow) (types.Signal, error) {
	ma, ok := row.MAValue(r.MAWindow)
	if !ok {
		return types.Hold, fmt.Errorf("ma_%d at %s: %w", r.MAWindow, row.Timestamp.Format(types.NaiveLayout), ErrMissingIndicator)
	}
	rsi, ok := row.RSIValue(r.RSIWindow)
	if !ok {
		return types.Hold, fmt.Errorf("rsi_%d at %s: %w", r.RSIWindow, row.Timestamp.Format(types.NaiveLayout), ErrMissingIndicator)
	}

	px := row.Bar.Close
	switch {
	case px > ma && rsi > r.BuyRSI:
		return types.Buy, nil
	case px < ma && rsi < r.SellRSI:
		return types.Sell, nil
	default:
		return types.Hold, nil
	}
}

// PriceSignals evaluates the rule over every row, failing on the first row the
// rule cannot read.
func PriceSignals(rows []types.IndicatorRow, rule Rule) ([]types.Signal, error) {
	out := make([]types.Signal, len(rows))
	for i, row := range rows {
		s, err := rule.Evaluate(row)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
