package lexicon

import (
	"context"
	"strings"

	"sentiment-signal-engine/internal/interfaces"
)

var (
	positive = []string{"surge", "rally", "approval", "growth", "bullish", "strong", "support"}
	negative = []string{"crash", "dump", "concern", "fear", "regulation", "selloff", "ban"}
)

const step = 0.1

// Scorer is the offline keyword heuristic. Each keyword counts once if it
// appears anywhere in the lower-cased text, including inside longer words.
type Scorer struct{}

var _ interfaces.Scorer = (*Scorer)(nil)

func New() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Name() string { return "naive" }

func (s *Scorer) Score(_ context.Context, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.5
	}
	lower := strings.ToLower(text)

	score := 0.5
	for _, w := range positive {
		if strings.Contains(lower, w) {
			score += step
		}
	}
	for _, w := range negative {
		if strings.Contains(lower, w) {
			score -= step
		}
	}
	return min(1, max(0, score))
}
