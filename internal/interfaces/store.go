package interfaces

import (
	"context"
	"time"
)

// ScoreStore is a key/value backend for cached sentiment scores.
type ScoreStore interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, score float64, ttl time.Duration) error
	Backend() string
}
