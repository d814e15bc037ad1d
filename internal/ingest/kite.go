package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/types"
)

// KiteParams configures historical candle downloads from Kite Connect.
type KiteParams struct {
	APIKey          string
	AccessToken     string
	InstrumentToken int
	Interval        string
	Lookback        time.Duration
	// BaseURI overrides the Kite API root, mainly for tests
	BaseURI string
}

// KiteSource fetches historical candles for one instrument.
type KiteSource struct {
	p   KiteParams
	kc  *kiteconnect.Client
	now func() time.Time
}

var _ interfaces.PriceSource = (*KiteSource)(nil)

func NewKiteSource(p KiteParams) (*KiteSource, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("kite api key and access token are required")
	}
	if p.InstrumentToken == 0 {
		return nil, errors.New("kite instrument token is required")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	if p.BaseURI != "" {
		kc.SetBaseURI(p.BaseURI)
	}
	return &KiteSource{p: p, kc: kc, now: time.Now}, nil
}

// Bars returns candles over the lookback window ending now. Candle times are
// exchange local; their wall clock becomes the naive timestamp.
func (s *KiteSource) Bars(ctx context.Context, asset string) ([]types.PriceBar, error) {
	to := s.now()
	from := to.Add(-s.p.Lookback)

	timer := logger.StartOperation(ctx, "kite_historical",
		"asset", asset,
		"instrument_token", s.p.InstrumentToken,
		"interval", s.p.Interval,
	)

	candles, err := s.kc.GetHistoricalData(s.p.InstrumentToken, s.p.Interval, from, to, false, false)
	if err != nil {
		timer.EndWithError(err)
		return nil, fmt.Errorf("kite historical data for %s: %w", asset, err)
	}

	bars := make([]types.PriceBar, 0, len(candles))
	for _, c := range candles {
		bars = append(bars, types.PriceBar{
			Timestamp: types.NaiveUTC(c.Date.Time),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    float64(c.Volume),
		})
	}
	timer.End("bars", len(bars))
	return bars, nil
}
