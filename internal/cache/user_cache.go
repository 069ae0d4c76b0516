package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"croco_webapp/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const DefaultUserTTL = 60 * time.Second

// UserCache keeps rendered per-user GET responses in one Redis hash per user,
// field = request path. The whole hash is dropped when the user changes state.
// A nil *UserCache or nil client disables caching.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUserCache(rdb *redis.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &UserCache{rdb: rdb, ttl: ttl}
}

func userKey(userID int64) string {
	return "croco:user:" + strconv.FormatInt(userID, 10)
}

func (c *UserCache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the cached body for path, if any.
func (c *UserCache) Get(ctx context.Context, userID int64, path string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	body, err := c.rdb.HGet(ctx, userKey(userID), path).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("user cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}
	return body, true
}

func (c *UserCache) Set(ctx context.Context, userID int64, path string, body []byte) {
	if !c.enabled() {
		return
	}
	key := userKey(userID)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, path, body)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("user cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate drops every cached response of the user.
func (c *UserCache) Invalidate(ctx context.Context, userID int64) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Del(ctx, userKey(userID)).Err(); err != nil {
		logger.Warn("user cache invalidate failed", "user_id", userID, "error", err)
	}
}
