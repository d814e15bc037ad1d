package signal

import (
	"fmt"

	"sentiment-signal-engine/internal/types"
)

// NeutralScore stands in for missing sentiment.
const NeutralScore = 0.5

// Thresholds maps a sentiment score to a signal. Both bounds are strict.
type Thresholds struct {
	Buy  float64
	Sell float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Buy: 0.55, Sell: 0.45}
}

// SentimentSignal maps an optional score to a signal; a missing score is neutral.
func SentimentSignal(score float64, ok bool, th Thresholds) types.Signal {
	if !ok {
		score = NeutralScore
	}
	switch {
	case score > th.Buy:
		return types.Buy
	case score < th.Sell:
		return types.Sell
	default:
		return types.Hold
	}
}

// CombineSignals merges a price and a sentiment signal. A flat side defers to the
// other; agreement keeps the sign and disagreement goes flat.
func CombineSignals(price, sentiment types.Signal) types.Signal {
	switch {
	case sentiment == types.Hold:
		return price
	case price == types.Hold:
		return sentiment
	case price == sentiment:
		return price
	default:
		return types.Hold
	}
}

// Combine builds signal rows from indicator rows, their price signals and the
// aligned sentiment. All three must share the same timestamps in the same order.
func Combine(rows []types.IndicatorRow, price []types.Signal, aligned []types.AlignedSentiment, th Thresholds) ([]types.SignalRow, error) {
	if len(rows) != len(price) || len(rows) != len(aligned) {
		return nil, fmt.Errorf("rows=%d price=%d sentiment=%d: %w", len(rows), len(price), len(aligned), ErrIndexMismatch)
	}

	out := make([]types.SignalRow, len(rows))
	for i, row := range rows {
		a := aligned[i]
		if !a.Timestamp.Equal(row.Timestamp) {
			return nil, fmt.Errorf("row %d: %s != %s: %w", i,
				row.Timestamp.Format(types.NaiveLayout), a.Timestamp.Format(types.NaiveLayout), ErrIndexMismatch)
		}
		ss := SentimentSignal(a.Score, a.HasScore, th)
		out[i] = types.SignalRow{
			Timestamp:       row.Timestamp,
			Close:           row.Bar.Close,
			Return:          row.Return,
			PriceSignal:     price[i],
			SentimentScore:  a.Score,
			HasSentiment:    a.HasScore,
			SentimentSignal: ss,
			Combined:        CombineSignals(price[i], ss),
		}
	}
	return out, nil
}

// PriceOnly builds signal rows without sentiment; Combined equals the price signal.
func PriceOnly(rows []types.IndicatorRow, price []types.Signal) ([]types.SignalRow, error) {
	if len(rows) != len(price) {
		return nil, fmt.Errorf("rows=%d price=%d: %w", len(rows), len(price), ErrIndexMismatch)
	}
	out := make([]types.SignalRow, len(rows))
	for i, row := range rows {
		out[i] = types.SignalRow{
			Timestamp:       row.Timestamp,
			Close:           row.Bar.Close,
			Return:          row.Return,
			PriceSignal:     price[i],
			SentimentScore:  NeutralScore,
			SentimentSignal: types.Hold,
			Combined:        price[i],
		}
	}
	return out, nil
}
