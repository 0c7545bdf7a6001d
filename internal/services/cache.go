package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pulsefit/pulsefit-backend/internal/database"
)

// CacheKeyPrefix is the Redis key prefix for cached provider responses
const CacheKeyPrefix = "cache:"

// cacheGet retrieves a cached JSON value. A miss is not an error.
func cacheGet(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := database.RedisClient.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil // miss or Redis trouble, caller re-fetches
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// cacheSet stores a JSON value with the given TTL.
func cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, CacheKeyPrefix+key, data, ttl).Err()
}
