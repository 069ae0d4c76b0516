package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	t.Cleanup(func() { rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	InitRedisRateLimiter(rdb)
	t.Cleanup(func() { InitRedisRateLimiter(nil) })
	return rdb
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	rdb := testRedis(t)

	// window unique per run so stale keys do not interfere
	w := time.Duration(100+time.Now().UnixNano()%100) * time.Second
	max := 2

	r := gin.New()
	r.GET("/test", RedisRateLimit("test", max, w), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	defer rdb.Del(context.Background(), "rl:test:"+strconv.FormatInt(int64(w.Seconds()), 10)+":192.0.2.1")

	for i := 0; i < max; i++ {
		if code := hit(r, "/test", "192.0.2.1:1234"); code != 200 {
			t.Fatalf("expected 200 got %d", code)
		}
	}
	if code := hit(r, "/test", "192.0.2.1:1234"); code != 429 {
		t.Fatalf("expected 429 got %d", code)
	}
}

// api и auth лимитеры с одним окном считают отдельно
func TestRedisRateLimit_NamedLimitersDoNotShareCounters(t *testing.T) {
	rdb := testRedis(t)

	ip := "198.51.100." + strconv.FormatInt(1+time.Now().UnixNano()%250, 10)
	defer rdb.Del(context.Background(), "rl:api:60:"+ip, "rl:auth:60:"+ip)

	r := gin.New()
	api := r.Group("/api", RedisRateLimit("api", 100, time.Minute))
	api.GET("/me", func(c *gin.Context) { c.Status(200) })
	api.GET("/login", RedisRateLimit("auth", 2, time.Minute), func(c *gin.Context) { c.Status(200) })

	for i := 0; i < 5; i++ {
		if code := hit(r, "/api/me", ip+":1234"); code != 200 {
			t.Fatalf("api request %d: expected 200 got %d", i+1, code)
		}
	}
	for i := 0; i < 2; i++ {
		if code := hit(r, "/api/login", ip+":1234"); code != 200 {
			t.Fatalf("login %d: expected 200 got %d", i+1, code)
		}
	}
	if code := hit(r, "/api/login", ip+":1234"); code != 429 {
		t.Fatalf("third login: expected 429 got %d", code)
	}
	if code := hit(r, "/api/me", ip+":1234"); code != 200 {
		t.Fatalf("api after auth limit: expected 200 got %d", code)
	}

	n, err := rdb.Get(context.Background(), "rl:api:60:"+ip).Int()
	if err != nil || n != 9 {
		t.Fatalf("api counter = %d (%v), want 9", n, err)
	}
}

func hit(r http.Handler, path, remote string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}
