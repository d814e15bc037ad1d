package lexicon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	s := New()
	ctx := context.Background()

	cases := []struct {
		text string
		want float64
	}{
		{"", 0.5},
		{"   \t", 0.5},
		{"nothing notable today", 0.5},
		{"BTC Rally continues on ETF approval", 0.7},
		{"market crash sparks fear", 0.3},
		{"strong rally despite regulation concern", 0.5},
		// substring match: "supportive" contains "support", "banner" contains "ban"
		{"supportive banner", 0.5},
		// each keyword counts once
		{"surge surge surge", 0.6},
		{"surge rally approval growth bullish strong support", 1.0},
		{"crash dump concern fear regulation selloff ban", 0.0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, s.Score(ctx, tc.text), 1e-9, tc.text)
	}
}

func TestScoreIsClamped(t *testing.T) {
	// seven positives would reach 1.2 without clamping
	got := New().Score(context.Background(), "surge rally approval growth bullish strong support")
	assert.LessOrEqual(t, got, 1.0)
	assert.Equal(t, "naive", New().Name())
}
