package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"sentiment-signal-engine/internal/store"
)

func newTestScorer(url, key string) *Scorer {
	cfg := store.Default()
	cfg.LLM.OpenAI.Endpoint = url
	cfg.LLM.OpenAI.APIKey = key
	cfg.LLM.MaxRetries = 1
	return New(cfg, nil)
}

func TestScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"score\": 0.25}"}}]}`))
	}))
	defer srv.Close()

	assert.InDelta(t, 0.25, newTestScorer(srv.URL, "sk-test").Score(context.Background(), "exchange hacked"), 1e-12)
}

func TestScoreNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	assert.Equal(t, 0.5, newTestScorer(srv.URL, "sk-test").Score(context.Background(), "text"))
}

func TestScoreMissingKey(t *testing.T) {
	assert.Equal(t, 0.5, newTestScorer("http://127.0.0.1:0", "").Score(context.Background(), "text"))
	assert.Equal(t, "openai", newTestScorer("", "").Name())
}
