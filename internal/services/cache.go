package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/manoj0727/Nexify-server/internal/database"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data.
	CacheKeyPrefix = "cache:"
	// FeedCacheTTL keeps community feed pages fresh without hammering Mongo.
	FeedCacheTTL = 2 * time.Minute
	// CommunityCacheTTL covers community documents, which change rarely.
	CommunityCacheTTL = 15 * time.Minute
)

// CacheService is a thin JSON cache over Redis. A nil Redis client turns
// every operation into a no-op so the API still works without Redis.
type CacheService struct{}

// Get retrieves a value from cache. A miss is not an error.
func (c *CacheService) Get(key string, dest interface{}) (bool, error) {
	if database.RedisClient == nil {
		return false, nil
	}
	ctx := context.Background()

	val, err := database.RedisClient.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value with the given TTL.
func (c *CacheService) Set(key string, value interface{}, ttl time.Duration) error {
	if database.RedisClient == nil {
		return nil
	}
	ctx := context.Background()

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, CacheKeyPrefix+key, jsonData, ttl).Err()
}

// Delete removes a value from cache.
func (c *CacheService) Delete(keys ...string) error {
	if database.RedisClient == nil || len(keys) == 0 {
		return nil
	}
	ctx := context.Background()

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = CacheKeyPrefix + key
	}
	return database.RedisClient.Del(ctx, fullKeys...).Err()
}

// FeedCacheKey is the cache key for one page of a community's feed.
func FeedCacheKey(communityID string, page int64) string {
	return fmt.Sprintf("feed:%s:%d", communityID, page)
}

// CommunityCacheKey is the cache key for a community document.
func CommunityCacheKey(communityID string) string {
	return "community:" + communityID
}

// InvalidateCommunityFeed drops the cached first pages of a community's
// feed after a post changes. Later pages age out on their own.
func InvalidateCommunityFeed(communityID string) {
	keys := make([]string, 0, 3)
	for page := int64(1); page <= 3; page++ {
		keys = append(keys, FeedCacheKey(communityID, page))
	}
	_ = Cache.Delete(keys...)
}

// Global cache service instance.
var Cache = &CacheService{}
