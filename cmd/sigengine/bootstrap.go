package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sentiment-signal-engine/internal/ingest"
	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/news"
	"sentiment-signal-engine/internal/pipeline"
	"sentiment-signal-engine/internal/scorer"
	"sentiment-signal-engine/internal/store"
	"sentiment-signal-engine/internal/trace"
)

const sourceTimeout = 20 * time.Second

// initializeSystem loads .env and sets up the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownSystem() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
	logger.Sync()
}

// loadConfig loads the config file and applies the --asset override
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", configPath)
		return nil, err
	}
	if assetFlag != "" {
		cfg.Asset = assetFlag
	}
	return cfg, nil
}

// initializeScorer builds the configured sentiment scorer
func initializeScorer(ctx context.Context, cfg *store.Config) (interfaces.Scorer, func()) {
	return scorer.New(ctx, cfg)
}

// initializePriceSource picks CSV files or Kite historical candles
func initializePriceSource(ctx context.Context, cfg *store.Config) (interfaces.PriceSource, error) {
	switch cfg.Prices.Source {
	case "kite":
		logger.Info(ctx, "Using Kite historical candles", "instrument_token", cfg.Prices.Kite.InstrumentToken)
		return ingest.NewKiteSource(ingest.KiteParams{
			APIKey:          cfg.Prices.Kite.APIKey,
			AccessToken:     cfg.Prices.Kite.AccessToken,
			InstrumentToken: cfg.Prices.Kite.InstrumentToken,
			Interval:        cfg.Prices.Kite.Interval,
			Lookback:        time.Duration(cfg.Prices.Kite.LookbackDays) * 24 * time.Hour,
		})
	default:
		logger.Info(ctx, "Using price CSV files", "dir", cfg.Prices.Dir, "file", cfg.Prices.File)
		return &ingest.CSVPriceSource{Dir: cfg.Prices.Dir, File: cfg.Prices.File}, nil
	}
}

// initializeEventSource picks the sentiment CSV, an RSS feed or a scraped page
func initializeEventSource(ctx context.Context, cfg *store.Config) interfaces.EventSource {
	switch cfg.Sentiment.Source {
	case "rss":
		logger.Info(ctx, "Using RSS sentiment source", "url", cfg.Sentiment.RSS.URL)
		return news.NewRSSSource(cfg.Sentiment.RSS.URL, sourceTimeout)
	case "scrape":
		sc := cfg.Sentiment.Scrape
		logger.Info(ctx, "Using scraped sentiment source", "url", sc.URL)
		return news.NewScraper(sc.URL, news.Selectors{
			Item:  sc.ItemSelector,
			Title: sc.TitleSelector,
			Text:  sc.TextSelector,
			Time:  sc.TimeSelector,
		}, sourceTimeout)
	default:
		logger.Info(ctx, "Using sentiment CSV", "file", cfg.Sentiment.File)
		return &ingest.CSVEventSource{Path: cfg.Sentiment.File}
	}
}

// initializePipeline wires sources and scorer into a pipeline. The returned
// function releases the scorer's cache connections.
func initializePipeline(ctx context.Context, cfg *store.Config) (*pipeline.Pipeline, interfaces.Scorer, func(), error) {
	prices, err := initializePriceSource(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize price source", err)
		return nil, nil, nil, err
	}
	s, closer := initializeScorer(ctx, cfg)
	events := initializeEventSource(ctx, cfg)
	return pipeline.FromConfig(cfg, prices, events, s), s, closer, nil
}
