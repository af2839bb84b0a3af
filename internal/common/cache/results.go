// Package cache stores non-degraded transform results in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "procurement-ai/internal/common/errors"
)

const keyPrefix = "transform:result:"

type ResultCache struct {
	redis *redis.Client
}

func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{redis: client}
}

// Key derives the cache key from the transform name and a canonical request encoding.
func Key(transform string, canonicalRequest []byte) string {
	sum := sha256.Sum256(canonicalRequest)
	return keyPrefix + transform + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached value. A miss is (nil, false, nil).
func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.NewCacheFailedError("get", err)
	}
	return val, true, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return apperrors.NewCacheFailedError("set", err)
	}
	return nil
}
