package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		reply string
		want  float64
	}{
		{`{"score": 0.72}`, 0.72},
		{`  {"score": "0.3"} `, 0.3},
		{"```json\n{\"score\": 0.9}\n```", 0.9},
		{`{"label": "bullish"}`, 0.5},
		{`0.65`, 0.65},
		{`{"score": 1.7}`, 1},
		{`-2`, 0},
	}
	for _, tc := range cases {
		got, err := ParseScore(tc.reply)
		require.NoError(t, err, tc.reply)
		assert.InDelta(t, tc.want, got, 1e-12, tc.reply)
	}
}

func TestParseScoreRejectsProse(t *testing.T) {
	got, err := ParseScore("I think it is fairly positive")
	assert.ErrorIs(t, err, ErrUnparsable)
	assert.Equal(t, Neutral, got)

	got, err = ParseScore(`{"score": true}`)
	assert.ErrorIs(t, err, ErrUnparsable)
	assert.Equal(t, Neutral, got)
}

func TestBuildEmbedsText(t *testing.T) {
	p := Build("BTC rallies")
	assert.Contains(t, p, `"""BTC rallies"""`)
	assert.Contains(t, p, `{"score"`)
}
