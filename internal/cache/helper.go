package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// UserKeyPrefix keys cached user records by ID.
	UserKeyPrefix = "user:%d"
)

const (
	// UserTTL bounds staleness of cached user records. Usernames are
	// immutable, so a short TTL is plenty.
	UserTTL = 5 * time.Minute
)

// UserKey derives the cache key for a user.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Aside implements cache-aside: on a hit, dest is filled from the cache; on
// a miss, load must fill dest and the result is written back with the given
// TTL. Cache failures degrade to the loader, never to an error.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if client != nil {
		raw, err := client.Get(ctx, key).Result()
		if err == nil {
			if unmarshalErr := json.Unmarshal([]byte(raw), dest); unmarshalErr == nil {
				return nil
			}
			// Corrupt entry; drop it and fall through to the loader.
			client.Del(ctx, key)
		} else if !errors.Is(err, redis.Nil) {
			// Redis unavailable; serve from the loader.
		}
	}

	if err := load(); err != nil {
		return err
	}

	if client != nil {
		if raw, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, raw, ttl)
		}
	}
	return nil
}
