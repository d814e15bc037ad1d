package gemini

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/metrics"
	"sentiment-signal-engine/internal/scorer/prompt"
	"sentiment-signal-engine/internal/store"
	"sentiment-signal-engine/internal/trace"
)

const engine = "gemini"

// Scorer classifies text with the Gemini API through the genai SDK.
type Scorer struct {
	cfg            *store.Config
	client         *genai.Client
	setupErr       error
	requestLimiter *rate.Limiter
}

var _ interfaces.Scorer = (*Scorer)(nil)

// New creates a Gemini scorer. Client construction errors are kept and reported
// on each call as a neutral fallback.
func New(ctx context.Context, cfg *store.Config, limiter *rate.Limiter) *Scorer {
	s := &Scorer{cfg: cfg, requestLimiter: limiter}
	if cfg.LLM.Gemini.APIKey == "" {
		return s
	}
	s.client, s.setupErr = genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.LLM.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if s.setupErr != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize Gemini client", s.setupErr)
	}
	return s
}

func (s *Scorer) Name() string { return engine }

func (s *Scorer) Score(ctx context.Context, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return prompt.Neutral
	}

	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	switch {
	case s.cfg.LLM.Gemini.APIKey == "":
		return s.fallback(ctx, prompt.ReasonMissingKey, nil)
	case s.client == nil:
		return s.fallback(ctx, prompt.ReasonClientSetup, s.setupErr)
	}

	if s.requestLimiter != nil {
		if err := s.requestLimiter.Wait(ctx); err != nil {
			return s.fallback(ctx, prompt.ReasonHTTP, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.LLM.TimeoutSeconds)*time.Second)
	defer cancel()

	resp, err := s.client.Models.GenerateContent(callCtx, s.cfg.LLM.Gemini.Model, genai.Text(prompt.Build(text)), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(s.cfg.LLM.Temperature),
		MaxOutputTokens: int32(s.cfg.LLM.MaxTokens),
	})
	if err != nil {
		return s.fallback(ctx, prompt.ReasonHTTP, err)
	}

	out := replyText(resp)
	if strings.TrimSpace(out) == "" {
		return s.fallback(ctx, prompt.ReasonEmpty, nil)
	}

	score, err := prompt.ParseScore(out)
	if err != nil {
		return s.fallback(ctx, prompt.ReasonUnparsable, err)
	}
	return score
}

// replyText concatenates the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func (s *Scorer) fallback(ctx context.Context, reason string, err error) float64 {
	metrics.Fallback(engine, reason)
	logger.Warn(ctx, "Gemini scoring failed, using neutral score", "reason", reason, "error", err)
	return prompt.Neutral
}
