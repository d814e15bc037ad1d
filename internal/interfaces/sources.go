package interfaces

import (
	"context"

	"sentiment-signal-engine/internal/types"
)

// PriceSource supplies an ordered OHLCV series for an asset.
type PriceSource interface {
	Bars(ctx context.Context, asset string) ([]types.PriceBar, error)
}

// EventSource supplies unscored sentiment events for an asset.
type EventSource interface {
	Events(ctx context.Context, asset string) ([]types.SentimentEvent, error)
}
