package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigAppliesDefaults(t *testing.T) {
	c, err := ParseConfig([]byte("asset: ETH-USD\n"))
	require.NoError(t, err)

	assert.Equal(t, "ETH-USD", c.Asset)
	assert.Equal(t, []int{10, 20, 50}, c.Indicators.MAWindows)
	assert.Equal(t, 20, c.Indicators.VolWindow)
	assert.Equal(t, 14, c.Indicators.RSIWindow)
	assert.Equal(t, 20, c.Rules.MAWindow)
	assert.Equal(t, 55.0, c.Rules.BuyRSI)
	assert.Equal(t, 45.0, c.Rules.SellRSI)
	assert.True(t, c.Sentiment.Enabled)
	assert.Equal(t, "naive", c.Sentiment.Engine)
	assert.Equal(t, 0.55, c.Sentiment.BuyThreshold)
	assert.Equal(t, 4, c.Sentiment.Workers)
	assert.Equal(t, "claude-3-haiku-latest", c.LLM.Claude.Model)
	assert.Equal(t, 64, c.LLM.MaxTokens)
	assert.Equal(t, "memory", c.Cache.Backend)
}

func TestParseConfigOverrides(t *testing.T) {
	yml := `
asset: BTC-USD
sentiment:
  enabled: false
  engine: " Claude "
indicators:
  ma_windows: [5, 30]
rules:
  ma_window: 30
`
	c, err := ParseConfig([]byte(yml))
	require.NoError(t, err)
	assert.False(t, c.Sentiment.Enabled)
	assert.Equal(t, "claude", c.Sentiment.Engine)
	assert.Equal(t, []int{5, 30}, c.Indicators.MAWindows)
	assert.Equal(t, 30, c.Rules.MAWindow)
}

func TestValidateRejectsInconsistentConfig(t *testing.T) {
	cases := map[string]string{
		"rule window not computed": "rules:\n  ma_window: 25\n",
		"inverted rsi thresholds":  "rules:\n  buy_rsi: 40\n  sell_rsi: 60\n",
		"inverted sentiment":       "sentiment:\n  buy_threshold: 0.4\n  sell_threshold: 0.6\n",
		"unknown price source":     "prices:\n  source: ftp\n",
		"kite without token":       "prices:\n  source: kite\n",
		"rss without url":          "sentiment:\n  source: rss\n",
		"zero workers":             "sentiment:\n  workers: 0\n",
		"vol window of one":        "indicators:\n  vol_window: 1\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigResolvesSecrets(t *testing.T) {
	t.Setenv("TEST_CLAUDE_KEY", "  sk-test  ")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  claude:\n    api_key_env: TEST_CLAUDE_KEY\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", c.LLM.Claude.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
