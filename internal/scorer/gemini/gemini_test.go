package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"sentiment-signal-engine/internal/store"
)

func TestReplyText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"score": `}, {Text: `0.61}`}}},
		}},
	}
	assert.Equal(t, `{"score": 0.61}`, replyText(resp))
	assert.Equal(t, "", replyText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", replyText(nil))
}

func TestScoreWithoutKeyIsNeutral(t *testing.T) {
	cfg := store.Default()
	s := New(context.Background(), cfg, nil)
	assert.Nil(t, s.client)
	assert.Equal(t, 0.5, s.Score(context.Background(), "ETF inflows surge"))
	assert.Equal(t, "gemini", s.Name())
}
