package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-signal-engine/internal/types"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourlyBars(closes []float64) []types.PriceBar {
	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Open:      c, High: c, Low: c, Close: c, Volume: 1,
		}
	}
	return bars
}

func wavyCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 5*math.Sin(float64(i)/3) + float64(i)*0.1
	}
	return out
}

func TestBuildIndicatorsDropsWarmupRows(t *testing.T) {
	bars := hourlyBars(wavyCloses(120))

	rows, err := BuildIndicators(bars, DefaultIndicatorConfig())
	require.NoError(t, err)
	require.Len(t, rows, 120-49)

	assert.Equal(t, bars[49].Timestamp, rows[0].Timestamp)
	assert.Equal(t, bars[119].Timestamp, rows[len(rows)-1].Timestamp)

	for i, r := range rows {
		assert.False(t, math.IsNaN(r.Return), "row %d return", i)
		for _, w := range []int{10, 20, 50} {
			v, ok := r.MAValue(w)
			require.True(t, ok)
			assert.False(t, math.IsNaN(v), "row %d ma_%d", i, w)
		}
		vol, ok := r.VolValue(20)
		require.True(t, ok)
		assert.False(t, math.IsNaN(vol))
		rsi, ok := r.RSIValue(14)
		require.True(t, ok)
		assert.GreaterOrEqual(t, rsi, 0.0)
		assert.LessOrEqual(t, rsi, 100.0)
		if i > 0 {
			assert.True(t, rows[i-1].Timestamp.Before(r.Timestamp))
		}
	}
}

func TestBuildIndicatorsValues(t *testing.T) {
	closes := wavyCloses(60)
	rows, err := BuildIndicators(hourlyBars(closes), DefaultIndicatorConfig())
	require.NoError(t, err)

	last := rows[len(rows)-1]
	sum := 0.0
	for _, c := range closes[40:60] {
		sum += c
	}
	ma20, _ := last.MAValue(20)
	assert.InDelta(t, sum/20, ma20, 1e-9)
	assert.InDelta(t, math.Log(closes[59]/closes[58]), last.Return, 1e-12)
}

func TestBuildIndicatorsVolWindowDominates(t *testing.T) {
	cfg := IndicatorConfig{MAWindows: []int{5}, VolWindow: 10, RSIWindow: 3}
	rows, err := BuildIndicators(hourlyBars(wavyCloses(30)), cfg)
	require.NoError(t, err)
	// returns start at index 1, so vol_10 is first defined at index 10
	assert.Len(t, rows, 30-10)
}

func TestBuildIndicatorsRejectsBadInput(t *testing.T) {
	cfg := DefaultIndicatorConfig()

	_, err := BuildIndicators(nil, cfg)
	assert.ErrorIs(t, err, ErrEmptySeries)

	bars := hourlyBars(wavyCloses(60))
	bars[10].Close = 0
	_, err = BuildIndicators(bars, cfg)
	var de *DataError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Reason, "index 10")

	bars = hourlyBars(wavyCloses(60))
	bars[5].Close = math.NaN()
	_, err = BuildIndicators(bars, cfg)
	assert.Error(t, err)

	bars = hourlyBars(wavyCloses(60))
	bars[7].Timestamp = bars[6].Timestamp
	_, err = BuildIndicators(bars, cfg)
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Reason, "strictly increasing")
}

func TestBuildIndicatorsInsufficientHistory(t *testing.T) {
	_, err := BuildIndicators(hourlyBars(wavyCloses(49)), DefaultIndicatorConfig())
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	rows, err := BuildIndicators(hourlyBars(wavyCloses(50)), DefaultIndicatorConfig())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBuildIndicatorsDoesNotMutateInput(t *testing.T) {
	bars := hourlyBars(wavyCloses(60))
	orig := append([]types.PriceBar(nil), bars...)
	_, err := BuildIndicators(bars, DefaultIndicatorConfig())
	require.NoError(t, err)
	assert.Equal(t, orig, bars)
}

func TestIndex(t *testing.T) {
	rows, err := BuildIndicators(hourlyBars(wavyCloses(55)), DefaultIndicatorConfig())
	require.NoError(t, err)
	idx := Index(rows)
	require.Len(t, idx, 6)
	assert.Equal(t, rows[3].Timestamp, idx[3])
}
