package claude

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

const engine = "claude"

// Scorer classifies text with the Anthropic Messages API
type Scorer struct {
	cfg    *store.Config
	client *api.Client
	retry  *api.RetryConfig
}

var _ interfaces.Scorer = (*Scorer)(nil)

// New creates a Claude scorer. A nil limiter disables pacing. A missing API key
// is not an error here; every call then returns the neutral score.
func New(cfg *store.Config, limiter *rate.Limiter) *Scorer {
	opts := []api.ClientOption{
		api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second),
		api.WithHeader("anthropic-version", cfg.LLM.Claude.Version),
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

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Score returns the model's score for text, or 0.5 on any failure.
func (s *Scorer) Score(ctx context.Context, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return prompt.Neutral
	}

	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := s.cfg.LLM.Claude.APIKey
	if apiKey == "" {
		return s.fallback(ctx, prompt.ReasonMissingKey, nil)
	}

	reqBody := map[string]any{
		"model": s.cfg.LLM.Claude.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt.Build(text)},
		},
		"max_tokens":  s.cfg.LLM.MaxTokens,
		"temperature": s.cfg.LLM.Temperature,
	}

	req := api.NewRequest(http.MethodPost, s.cfg.LLM.Claude.Endpoint).
		WithContext(ctx).
		WithBody(reqBody).
		WithHeader("x-api-key", apiKey)

	resp, err := s.client.DoWithRetry(req, s.retry)
	if err != nil {
		return s.fallback(ctx, prompt.ReasonHTTP, err)
	}

	var r messagesResponse
	if err := resp.ParseJSON(&r); err != nil {
		return s.fallback(ctx, prompt.ReasonUnparsable, err)
	}
	if len(r.Content) == 0 || strings.TrimSpace(r.Content[0].Text) == "" {
		return s.fallback(ctx, prompt.ReasonEmpty, nil)
	}

	logger.Debug(ctx, "Claude raw response", "text", r.Content[0].Text)

	score, err := prompt.ParseScore(r.Content[0].Text)
	if err != nil {
		return s.fallback(ctx, prompt.ReasonUnparsable, err)
	}
	return score
}

func (s *Scorer) fallback(ctx context.Context, reason string, err error) float64 {
	metrics.Fallback(engine, reason)
	if err != nil {
		logger.Warn(ctx, "Claude scoring failed, using neutral score", "reason", reason, "error", err)
	} else {
		logger.Warn(ctx, "Claude scoring failed, using neutral score", "reason", reason)
	}
	return prompt.Neutral
}
