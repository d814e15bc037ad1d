// Package scorer selects a sentiment scoring engine from configuration and
// scores batches of events.
package scorer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/scorer/claude"
	"sentiment-signal-engine/internal/scorer/gemini"
	"sentiment-signal-engine/internal/scorer/lexicon"
	"sentiment-signal-engine/internal/scorer/neutral"
	"sentiment-signal-engine/internal/scorer/openai"
	"sentiment-signal-engine/internal/scorer/scorecache"
	"sentiment-signal-engine/internal/scorer/scorerobs"
	"sentiment-signal-engine/internal/store"
	"sentiment-signal-engine/internal/types"
)

const (
	EngineNaive   = "naive"
	EngineLexicon = "lexicon"
	EngineClaude  = "claude"
	EngineOpenAI  = "openai"
	EngineGemini  = "gemini"
	EngineNeutral = "neutral"
)

// New builds the configured scorer wrapped with observability and, for remote
// engines, the score cache. The returned function releases cache connections.
func New(ctx context.Context, cfg *store.Config) (interfaces.Scorer, func()) {
	noop := func() {}

	if !cfg.Sentiment.Enabled {
		logger.Info(ctx, "Sentiment disabled, using neutral scorer")
		return scorerobs.Wrap(neutral.New()), noop
	}

	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.LLM.RequestsPerMinute)), 1)

	var s interfaces.Scorer
	remote := true
	switch cfg.Sentiment.Engine {
	case EngineClaude:
		s = claude.New(cfg, limiter)
	case EngineOpenAI:
		s = openai.New(cfg, limiter)
	case EngineGemini:
		s = gemini.New(ctx, cfg, limiter)
	case EngineNeutral:
		s, remote = neutral.New(), false
	case EngineNaive, EngineLexicon, "":
		s, remote = lexicon.New(), false
	default:
		logger.Warn(ctx, "Unknown sentiment engine, falling back to lexicon", "engine", cfg.Sentiment.Engine)
		s, remote = lexicon.New(), false
	}

	closer := noop
	if remote {
		ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
		switch cfg.Cache.Backend {
		case "memory":
			s = scorecache.Wrap(s, scorecache.NewMemoryStore(ttl), ttl)
		case "redis":
			rs := scorecache.NewRedisStore(scorecache.RedisConfig{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			s = scorecache.Wrap(s, rs, ttl)
			closer = func() { _ = rs.Close() }
		}
	}

	logger.Info(ctx, "Sentiment scorer initialized", "engine", s.Name(), "cache", remote && cfg.Cache.Backend != "none")
	return scorerobs.Wrap(s), closer
}

// ScoreEvents scores every event with s using up to workers goroutines. The
// result is a new slice in input order with Score and Scored set. Individual
// scores never fail; only a cancelled context aborts the batch.
func ScoreEvents(ctx context.Context, events []types.SentimentEvent, s interfaces.Scorer, workers int) ([]types.SentimentEvent, error) {
	out := make([]types.SentimentEvent, len(events))
	copy(out, events)
	if len(out) == 0 {
		return out, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(out) {
		workers = len(out)
	}

	timer := logger.StartOperation(ctx, "score_events", "engine", s.Name(), "count", len(out), "workers", workers)
	ctx = timer.GetContext()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i].Score = s.Score(ctx, out[i].Text)
				out[i].Scored = true
			}
		}()
	}

feed:
	for i := range out {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		timer.EndWithError(err)
		return nil, err
	}
	timer.End()
	return out, nil
}
