package scorerobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/metrics"
	"sentiment-signal-engine/internal/trace"
)

// observableScorer wraps a Scorer with observability (logging, tracing & metrics)
type observableScorer struct {
	scorer interfaces.Scorer
}

// Compile-time interface check
var _ interfaces.Scorer = (*observableScorer)(nil)

// Wrap wraps a scorer with observability middleware
func Wrap(scorer interfaces.Scorer) interfaces.Scorer {
	return &observableScorer{scorer: scorer}
}

func (o *observableScorer) Name() string {
	return o.scorer.Name()
}

// Score scores text with observability
func (o *observableScorer) Score(ctx context.Context, text string) float64 {
	name := o.scorer.Name()
	ctx, span := trace.StartSpan(ctx, "scorer.Score")
	defer span.End()

	logger.Debug(ctx, "Requesting sentiment score", "engine", name, "text_len", len(text))

	start := time.Now()
	score := o.scorer.Score(ctx, text)
	elapsed := time.Since(start)

	metrics.ScorerRequests.WithLabelValues(name).Inc()
	metrics.ScorerLatency.WithLabelValues(name).Observe(elapsed.Seconds())
	span.SetAttributes(
		attribute.String("engine", name),
		attribute.Float64("score", score),
	)

	logger.Debug(ctx, "Sentiment score received",
		"engine", name,
		"score", score,
		"duration_ms", elapsed.Milliseconds(),
	)
	return score
}
