package neutral

import (
	"context"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
)

// Scorer is a fallback used when sentiment is disabled. It always returns 0.5.
type Scorer struct{}

var _ interfaces.Scorer = (*Scorer)(nil)

func New() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Name() string { return "neutral" }

func (s *Scorer) Score(ctx context.Context, _ string) float64 {
	logger.Debug(ctx, "Neutral scorer called - always returns 0.5")
	return 0.5
}
