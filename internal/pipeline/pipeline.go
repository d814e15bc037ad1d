package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentiment-signal-engine/internal/features"
	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/metrics"
	"sentiment-signal-engine/internal/scorer"
	"sentiment-signal-engine/internal/signal"
	"sentiment-signal-engine/internal/store"
	"sentiment-signal-engine/internal/types"
)

// ErrInvalidMode is returned for a mode other than price_only or combined.
var ErrInvalidMode = errors.New("invalid mode")

// Pipeline turns raw prices and sentiment events into signal rows.
type Pipeline struct {
	Prices     interfaces.PriceSource
	Events     interfaces.EventSource
	Scorer     interfaces.Scorer
	Indicators features.IndicatorConfig
	Rule       signal.Rule
	Thresholds signal.Thresholds
	Workers    int

	// SentimentEnabled false leaves every row unscored without touching Events
	SentimentEnabled bool
}

// Report is the outcome of one pipeline run.
type Report struct {
	Asset string            `json:"asset"`
	Mode  types.Mode        `json:"mode"`
	Rows  []types.SignalRow `json:"rows"`
}

// Latest returns the last row, or false when the report is empty.
func (r *Report) Latest() (types.SignalRow, bool) {
	if r == nil || len(r.Rows) == 0 {
		return types.SignalRow{}, false
	}
	return r.Rows[len(r.Rows)-1], true
}

// FromConfig builds a pipeline with the indicator, rule and threshold settings
// from cfg.
func FromConfig(cfg *store.Config, prices interfaces.PriceSource, events interfaces.EventSource, s interfaces.Scorer) *Pipeline {
	return &Pipeline{
		Prices: prices,
		Events: events,
		Scorer: s,
		Indicators: features.IndicatorConfig{
			MAWindows: cfg.Indicators.MAWindows,
			VolWindow: cfg.Indicators.VolWindow,
			RSIWindow: cfg.Indicators.RSIWindow,
		},
		Rule: signal.Rule{
			MAWindow:  cfg.Rules.MAWindow,
			RSIWindow: cfg.Rules.RSIWindow,
			BuyRSI:    cfg.Rules.BuyRSI,
			SellRSI:   cfg.Rules.SellRSI,
		},
		Thresholds: signal.Thresholds{
			Buy:  cfg.Sentiment.BuyThreshold,
			Sell: cfg.Sentiment.SellThreshold,
		},
		Workers:          cfg.Sentiment.Workers,
		SentimentEnabled: cfg.Sentiment.Enabled,
	}
}

// ParseMode validates a mode string; empty means combined.
func ParseMode(s string) (types.Mode, error) {
	switch types.Mode(s) {
	case "", types.ModeCombined:
		return types.ModeCombined, nil
	case types.ModePriceOnly:
		return types.ModePriceOnly, nil
	default:
		return "", fmt.Errorf("%w %q: want %s or %s", ErrInvalidMode, s, types.ModePriceOnly, types.ModeCombined)
	}
}

// Run evaluates every dense bar for asset in the given mode.
func (p *Pipeline) Run(ctx context.Context, asset string, mode types.Mode) (*Report, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	timer := logger.StartOperation(ctx, "signal_pipeline", "asset", asset, "mode", string(mode))
	ctx = timer.GetContext()

	rows, err := p.run(ctx, asset, mode)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues(string(mode), "error").Inc()
		timer.EndWithError(err)
		return nil, err
	}
	metrics.PipelineRuns.WithLabelValues(string(mode), "ok").Inc()

	report := &Report{Asset: asset, Mode: mode, Rows: rows}
	last, _ := report.Latest()
	p.publish(ctx, report, last)
	timer.End("rows", len(rows), "signal", last.Combined.String())
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, asset string, mode types.Mode) ([]types.SignalRow, error) {
	bars, err := p.Prices.Bars(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	logger.Debug(ctx, "Prices loaded", "asset", asset, "bars", len(bars))

	rows, err := features.BuildIndicators(bars, p.Indicators)
	if err != nil {
		return nil, err
	}
	priceSignals, err := signal.PriceSignals(rows, p.Rule)
	if err != nil {
		return nil, err
	}

	if mode == types.ModePriceOnly {
		return signal.PriceOnly(rows, priceSignals)
	}

	aligned, err := p.sentiment(ctx, asset, features.Index(rows))
	if err != nil {
		return nil, err
	}
	return signal.Combine(rows, priceSignals, aligned, p.Thresholds)
}

// sentiment loads, scores and aligns events onto index. When sentiment is
// disabled or there are no events every row is left without a score.
func (p *Pipeline) sentiment(ctx context.Context, asset string, index []time.Time) ([]types.AlignedSentiment, error) {
	if !p.SentimentEnabled {
		logger.Debug(ctx, "Sentiment disabled, sentiment treated as neutral", "asset", asset)
		return unscored(index), nil
	}

	events, err := p.Events.Events(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("load sentiment: %w", err)
	}
	if len(events) == 0 {
		logger.Warn(ctx, "No sentiment events, sentiment treated as neutral", "asset", asset)
		return unscored(index), nil
	}

	scored, err := scorer.ScoreEvents(ctx, events, p.Scorer, p.Workers)
	if err != nil {
		return nil, fmt.Errorf("score sentiment: %w", err)
	}
	return features.AlignSentiment(scored, index)
}

func unscored(index []time.Time) []types.AlignedSentiment {
	out := make([]types.AlignedSentiment, len(index))
	for i, ts := range index {
		out[i] = types.AlignedSentiment{Timestamp: ts}
	}
	return out
}

func (p *Pipeline) publish(ctx context.Context, r *Report, last types.SignalRow) {
	metrics.Latest.WithLabelValues(r.Asset, "price").Set(float64(last.PriceSignal))
	metrics.Latest.WithLabelValues(r.Asset, "sentiment").Set(float64(last.SentimentSignal))
	metrics.Latest.WithLabelValues(r.Asset, "combined").Set(float64(last.Combined))

	fields := []any{
		"timestamp", last.Timestamp.Format(types.NaiveLayout),
		"close", last.Close,
		"price_signal", last.PriceSignal.String(),
	}
	if r.Mode == types.ModeCombined {
		score := signal.NeutralScore
		if last.HasSentiment {
			score = last.SentimentScore
		}
		metrics.Latest.WithLabelValues(r.Asset, "sentiment_score").Set(score)
		fields = append(fields, "sentiment_score", score, "sentiment_signal", last.SentimentSignal.String())
	}
	logger.Signal(ctx, r.Asset, r.Mode, last.Combined, fields...)
}
