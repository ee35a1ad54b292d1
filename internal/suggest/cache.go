package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/ai"
)

// Cache stores applied suggestion batches so repeated requests for the same
// document and guidance skip the provider round trip. Misses are silent;
// this is an optimization, never a source of truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]ai.Suggestion, bool)
	Set(ctx context.Context, key string, suggestions []ai.Suggestion, ttl time.Duration)
}

func cacheKey(docName string, pageCount int, instructions string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", docName, pageCount, instructions)))
	return "suggest:cache:" + hex.EncodeToString(sum[:])
}

// RedisCache keeps suggestion batches in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: c}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]ai.Suggestion, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("suggestion cache get failed")
		return nil, false
	}

	var out []ai.Suggestion
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("suggestion cache entry corrupt, ignoring")
		return nil, false
	}
	return out, true
}

// Ping reports whether the backing Redis connection is alive.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Set(ctx context.Context, key string, suggestions []ai.Suggestion, ttl time.Duration) {
	data, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("suggestion cache set failed")
	}
}

func (r *RedisCache) Close() error { return r.client.Close() }
