package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sentiment-signal-engine/internal/api"
	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/metrics"
	"sentiment-signal-engine/internal/scorer/prompt"
	"sentiment-signal-engine/internal/store"
	"sentiment-signal-engine/internal/trace"
)

const engine = "openai"

type Scorer struct {
	cfg    *store.Config
	client *api.Client
	retry  *api.RetryConfig
}

var _ interfaces.Scorer = (*Scorer)(nil)

func New(cfg *store.Config, limiter *rate.Limiter) *Scorer {
	opts := []api.ClientOption{
		api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second),
		api.WithLogging(true),
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}
	return &Scorer{
		cfg:    cfg,
		client: api.NewClient(opts...),
		retry: &api.RetryConfig{
			MaxAttempts: cfg.LLM.MaxRetries,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
		},
	}
}

func (s *Scorer) Name() string { return engine }

func (s *Scorer) Score(ctx context.Context, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return prompt.Neutral
	}

	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := s.cfg.LLM.OpenAI.APIKey
	if apiKey == "" {
		return s.fallback(ctx, prompt.ReasonMissingKey, nil)
	}

	body := map[string]any{
		"model":       s.cfg.LLM.OpenAI.Model,
		"messages":    []map[string]string{{"role": "user", "content": prompt.Build(text)}},
		"temperature": s.cfg.LLM.Temperature,
		"max_tokens":  s.cfg.LLM.MaxTokens,
	}

	req := api.NewRequest(http.MethodPost, s.cfg.LLM.OpenAI.Endpoint).
		WithContext(ctx).
		WithBody(body).
		WithHeader("Authorization", "Bearer "+apiKey)

	resp, err := s.client.DoWithRetry(req, s.retry)
	if err != nil {
		return s.fallback(ctx, prompt.ReasonHTTP, err)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return s.fallback(ctx, prompt.ReasonUnparsable, err)
	}
	if len(r.Choices) == 0 || strings.TrimSpace(r.Choices[0].Message.Content) == "" {
		return s.fallback(ctx, prompt.ReasonEmpty, nil)
	}

	score, err := prompt.ParseScore(r.Choices[0].Message.Content)
	if err != nil {
		return s.fallback(ctx, prompt.ReasonUnparsable, err)
	}
	return score
}

func (s *Scorer) fallback(ctx context.Context, reason string, err error) float64 {
	metrics.Fallback(engine, reason)
	logger.Warn(ctx, "OpenAI scoring failed, using neutral score", "reason", reason, "error", err)
	return prompt.Neutral
}
