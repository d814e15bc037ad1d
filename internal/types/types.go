package types

import (
	"encoding/json"
	"time"
)

// NaiveLayout renders a naive timestamp without an offset.
const NaiveLayout = "2006-01-02T15:04:05"

// PriceBar is one OHLCV observation. Timestamp is naive: its wall clock is
// authoritative and the attached location carries no meaning.
type PriceBar struct {
	Timestamp                      time.Time
	Open, High, Low, Close, Volume float64
}

// IndicatorRow holds the derived indicators for one price timestamp, keyed by window.
type IndicatorRow struct {
	Timestamp time.Time
	Bar       PriceBar
	Return    float64
	MA        map[int]float64
	Vol       map[int]float64
	RSI       map[int]float64
}

func (r IndicatorRow) MAValue(w int) (float64, bool) {
	v, ok := r.MA[w]
	return v, ok
}

func (r IndicatorRow) VolValue(w int) (float64, bool) {
	v, ok := r.Vol[w]
	return v, ok
}

func (r IndicatorRow) RSIValue(w int) (float64, bool) {
	v, ok := r.RSI[w]
	return v, ok
}

// SentimentEvent is a piece of text about an asset. Timestamp is timezone aware.
// Score is only meaningful when Scored is true.
type SentimentEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Asset     string    `json:"asset"`
	Text      string    `json:"text"`
	Score     float64   `json:"sentiment_score,omitempty"`
	Scored    bool      `json:"-"`
}

// AlignedSentiment is the carried-forward sentiment score for one price timestamp.
type AlignedSentiment struct {
	Timestamp time.Time
	Score     float64
	HasScore  bool
}

// Signal is a discrete position: -1 short, 0 flat, +1 long.
type Signal int

const (
	Sell Signal = -1
	Hold Signal = 0
	Buy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Mode selects whether sentiment takes part in the final decision.
type Mode string

const (
	ModePriceOnly Mode = "price_only"
	ModeCombined  Mode = "combined"
)

// SignalRow carries the three signal variants for one timestamp.
type SignalRow struct {
	Timestamp       time.Time `json:"timestamp"`
	Close           float64   `json:"close"`
	Return          float64   `json:"return"`
	PriceSignal     Signal    `json:"signal_price"`
	SentimentScore  float64   `json:"sentiment_score"`
	HasSentiment    bool      `json:"has_sentiment"`
	SentimentSignal Signal    `json:"signal_sentiment"`
	Combined        Signal    `json:"signal_combined"`
}

type signalRowJSON SignalRow

// MarshalJSON writes the timestamp as naive wall-clock time, without a zone suffix.
func (r SignalRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
		signalRowJSON
	}{
		Timestamp:     r.Timestamp.Format(NaiveLayout),
		signalRowJSON: signalRowJSON(r),
	})
}

func (r *SignalRow) UnmarshalJSON(b []byte) error {
	aux := struct {
		Timestamp string `json:"timestamp"`
		*signalRowJSON
	}{signalRowJSON: (*signalRowJSON)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	ts, err := time.Parse(NaiveLayout, aux.Timestamp)
	if err != nil {
		return err
	}
	r.Timestamp = ts
	return nil
}

// NaiveUTC reinterprets the wall clock of a naive timestamp as a UTC instant.
func NaiveUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
