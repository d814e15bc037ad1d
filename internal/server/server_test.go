package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-signal-engine/internal/features"
	"sentiment-signal-engine/internal/pipeline"
	"sentiment-signal-engine/internal/types"
)

type fixedScorer struct{ score float64 }

func (f fixedScorer) Name() string { return "fixed" }
func (f fixedScorer) Score(context.Context, string) float64 { return f.score }

type fakeRunner struct {
	asset string
	mode  types.Mode
	rows  []types.SignalRow
	err   error
}

func (f *fakeRunner) Run(_ context.Context, asset string, mode types.Mode) (*pipeline.Report, error) {
	f.asset, f.mode = asset, mode
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Report{Asset: asset, Mode: mode, Rows: f.rows}, nil
}

var lastRow = types.SignalRow{
	Timestamp:      time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC),
	PriceSignal:    types.Buy,
	SentimentScore: 0.7,
	HasSentiment:   true,
	Combined:       types.Buy,
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, New(&fakeRunner{}, fixedScorer{}, "BTC-USD"), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScore(t *testing.T) {
	s := New(&fakeRunner{}, fixedScorer{score: 1.4}, "BTC-USD")

	rec := do(t, s, http.MethodPost, "/sentiment/score", `{"text":"ETF approval","asset":"BTC-USD"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"score":1,"engine":"fixed"}`, rec.Body.String())
}

func TestScoreRejectsEmptyText(t *testing.T) {
	s := New(&fakeRunner{}, fixedScorer{}, "BTC-USD")

	for _, body := range []string{`{"text":""}`, `{}`, `not json`} {
		rec := do(t, s, http.MethodPost, "/sentiment/score", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, http.StatusBadRequest, resp.Status)
	}
}

func TestSignalDefaults(t *testing.T) {
	r := &fakeRunner{rows: []types.SignalRow{lastRow}}
	rec := do(t, New(r, fixedScorer{}, "BTC-USD"), http.MethodGet, "/signal", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTC-USD", r.asset)
	assert.Equal(t, types.ModeCombined, r.mode)
	assert.JSONEq(t, `{
		"asset": "BTC-USD",
		"mode": "combined",
		"latest_timestamp": "2024-06-01T13:00:00",
		"latest_signal": 1,
		"latest_sentiment": 0.7
	}`, rec.Body.String())
}

func TestSignalPriceOnly(t *testing.T) {
	r := &fakeRunner{rows: []types.SignalRow{lastRow}}
	rec := do(t, New(r, fixedScorer{}, "BTC-USD"), http.MethodGet, "/signal?asset=ETH-USD&mode=price_only", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ETH-USD", r.asset)

	var resp signalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "price_only", resp.Mode)
	assert.Nil(t, resp.LatestSentiment)
}

func TestSignalInvalidMode(t *testing.T) {
	r := &fakeRunner{}
	rec := do(t, New(r, fixedScorer{}, "BTC-USD"), http.MethodGet, "/signal?mode=sentiment_only", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, r.asset)
}

func TestSignalErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"insufficient history", fmt.Errorf("wrapped: %w", &features.DataError{Stage: "indicators", Reason: "12 bars", Err: features.ErrInsufficientHistory}), http.StatusUnprocessableEntity},
		{"unexpected", errors.New("redis exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, New(&fakeRunner{err: tc.err}, fixedScorer{}, "BTC-USD"), http.MethodGet, "/signal", "")
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, New(&fakeRunner{}, fixedScorer{}, "BTC-USD"), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
