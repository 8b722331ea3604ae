package store

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisTextCache caches extracted document text so repeated reads skip
// object storage. All operations are best effort.
type RedisTextCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTextCache creates a cache with the given entry TTL.
func NewRedisTextCache(client *redis.Client, ttl time.Duration) *RedisTextCache {
	return &RedisTextCache{client: client, ttl: ttl}
}

func cacheKey(documentID string) string {
	return "doctext:" + documentID
}

// Get returns the cached text for a document, if present.
func (c *RedisTextCache) Get(ctx context.Context, documentID string) (string, bool) {
	text, err := c.client.Get(ctx, cacheKey(documentID)).Result()
	if err != nil {
		return "", false
	}
	return text, true
}

// Set caches the text for a document. Failures are silently dropped.
func (c *RedisTextCache) Set(ctx context.Context, documentID, text string) {
	c.client.Set(ctx, cacheKey(documentID), text, c.ttl)
}
