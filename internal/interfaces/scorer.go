package interfaces

import "context"

// Scorer maps free text to a bullishness score in [0,1]. Implementations never
// fail: any internal error yields the neutral score 0.5.
type Scorer interface {
	Score(ctx context.Context, text string) float64
	Name() string
}
