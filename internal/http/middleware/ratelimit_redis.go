package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter sets the shared Redis client used by the limiters.
// A nil client switches every limiter to its in-process fallback.
func InitRedisRateLimiter(rdb *redis.Client) {
	redisClient = rdb
}

// RedisRateLimit implements a fixed-window per-IP limiter using Redis INCR/EXPIRE.
// name separates the counters of limiters that share a window.
// key format: rl:<name>:<window_seconds>:<ip>
func RedisRateLimit(name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	local := newLocalLimiter(maxRequests, window)
	return func(c *gin.Context) {
		ident := c.ClientIP()
		key := "rl:" + name + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		limit(c, key, ident, "", maxRequests, window, local)
	}
}

// UserRateLimit limits requests per authenticated user (not per IP).
// Requires JWT middleware to run before this.
func UserRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	local := newLocalLimiter(maxRequests, window)
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ident := strconv.FormatInt(userID, 10)
		key := "user_rl:" + ident + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		limit(c, key, ident, "user:", maxRequests, window, local)
	}
}

func limit(c *gin.Context, key, ident, label string, maxRequests int, window time.Duration, local *localLimiter) {
	endpoint := label + c.FullPath()

	if redisClient == nil {
		if !local.allow(ident) {
			RLBlocked.WithLabelValues(endpoint).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(endpoint).Inc()
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
	defer cancel()

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		// on Redis error, fail-open (allow) but set header
		c.Header("X-RateLimit-Error", "redis-error")
		c.Next()
		return
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": int(window.Seconds()),
		})
		return
	}

	RLRequests.WithLabelValues(endpoint).Inc()
	c.Next()
}
