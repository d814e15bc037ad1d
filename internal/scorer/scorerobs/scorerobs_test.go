package scorerobs

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"sentiment-signal-engine/internal/metrics"
)

type fixedScorer struct{ v float64 }

func (f fixedScorer) Score(context.Context, string) float64 { return f.v }
func (f fixedScorer) Name() string                          { return "fixed-obs-test" }

func TestWrapPassesThroughAndCounts(t *testing.T) {
	s := Wrap(fixedScorer{v: 0.8})
	before := testutil.ToFloat64(metrics.ScorerRequests.WithLabelValues("fixed-obs-test"))

	assert.Equal(t, 0.8, s.Score(context.Background(), "text"))
	assert.Equal(t, "fixed-obs-test", s.Name())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ScorerRequests.WithLabelValues("fixed-obs-test")))
}
