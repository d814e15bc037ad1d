package scorecache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScorer struct {
	name  string
	calls atomic.Int32
}

func (c *countingScorer) Name() string { return c.name }

func (c *countingScorer) Score(_ context.Context, text string) float64 {
	c.calls.Add(1)
	return float64(len(text)) / 100
}

func TestKeyDependsOnEngineAndText(t *testing.T) {
	assert.Equal(t, Key("claude", "a"), Key("claude", "a"))
	assert.NotEqual(t, Key("claude", "a"), Key("naive", "a"))
	assert.NotEqual(t, Key("claude", "a"), Key("claude", "b"))
}

func TestWrapMemoizes(t *testing.T) {
	inner := &countingScorer{name: "claude"}
	s := Wrap(inner, NewMemoryStore(time.Minute), time.Minute)
	ctx := context.Background()

	assert.InDelta(t, 0.05, s.Score(ctx, "hello"), 1e-12)
	assert.InDelta(t, 0.05, s.Score(ctx, "hello"), 1e-12)
	assert.InDelta(t, 0.03, s.Score(ctx, "abc"), 1e-12)
	assert.Equal(t, int32(2), inner.calls.Load())
	assert.Equal(t, "claude", s.Name())
}

func TestMemoryStoreExpiry(t *testing.T) {
	m := NewMemoryStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", 0.7, 10*time.Millisecond))

	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.7, v)

	time.Sleep(30 * time.Millisecond)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestUnreachableRedisDoesNotBreakScoring(t *testing.T) {
	inner := &countingScorer{name: "naive"}
	store := NewRedisStore(RedisConfig{Addr: "127.0.0.1:1"})
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.InDelta(t, 0.04, Wrap(inner, store, time.Minute).Score(ctx, "text"), 1e-12)
	assert.Equal(t, int32(1), inner.calls.Load())
}
