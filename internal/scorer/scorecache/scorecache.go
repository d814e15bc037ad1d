// Package scorecache memoizes sentiment scores per engine and text.
package scorecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/metrics"
)

// Key identifies a cached score: the engine name and the SHA-256 of the text.
func Key(engine, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sentiment:" + engine + ":" + hex.EncodeToString(sum[:])
}

type cachedScorer struct {
	next  interfaces.Scorer
	store interfaces.ScoreStore
	ttl   time.Duration
}

var _ interfaces.Scorer = (*cachedScorer)(nil)

// Wrap returns a scorer that consults store before calling next. Store errors
// are logged and never change the score.
func Wrap(next interfaces.Scorer, store interfaces.ScoreStore, ttl time.Duration) interfaces.Scorer {
	return &cachedScorer{next: next, store: store, ttl: ttl}
}

func (c *cachedScorer) Name() string { return c.next.Name() }

func (c *cachedScorer) Score(ctx context.Context, text string) float64 {
	key := Key(c.next.Name(), text)

	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "Score cache read failed", "backend", c.store.Backend(), "error", err)
	}
	if ok {
		metrics.CacheHits.WithLabelValues(c.store.Backend()).Inc()
		return v
	}

	score := c.next.Score(ctx, text)
	if err := c.store.Set(ctx, key, score, c.ttl); err != nil {
		logger.Warn(ctx, "Score cache write failed", "backend", c.store.Backend(), "error", err)
	}
	return score
}

// MemoryStore keeps scores in process.
type MemoryStore struct {
	c *cache.Cache
}

var _ interfaces.ScoreStore = (*MemoryStore)(nil)

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(defaultTTL, 2*defaultTTL)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (float64, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return 0, false, nil
	}
	f, ok := v.(float64)
	return f, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, score float64, ttl time.Duration) error {
	m.c.Set(key, score, ttl)
	return nil
}

func (m *MemoryStore) Backend() string { return "memory" }

// RedisStore shares scores between processes.
type RedisStore struct {
	cli *redis.Client
}

var _ interfaces.ScoreStore = (*RedisStore)(nil)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisStore{cli: rdb}
}

func (r *RedisStore) Get(ctx context.Context, key string) (float64, bool, error) {
	s, err := r.cli.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return f, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, score float64, ttl time.Duration) error {
	return r.cli.Set(ctx, key, strconv.FormatFloat(score, 'g', -1, 64), ttl).Err()
}

func (r *RedisStore) Backend() string { return "redis" }

func (r *RedisStore) Close() error {
	return r.cli.Close()
}
