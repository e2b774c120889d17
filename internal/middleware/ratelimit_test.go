package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"remindflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func init() {
	logger.InitLogger("test")
}

func newLimitedRouter(rdb *redis.Client, rps int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(rdb, rps))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimitMiddleware_RedisFailure_FailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:0",
		DialTimeout: 10 * time.Millisecond,
		ReadTimeout: 10 * time.Millisecond,
		MaxRetries:  0,
	})
	r := newLimitedRouter(rdb, 10)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 (Fail Open), got %d", w.Code)
	}
	if val := w.Header().Get("X-RateLimit-Limit"); val != "10" {
		t.Errorf("Expected X-RateLimit-Limit header '10', got '%s'", val)
	}
}

func TestRateLimitMiddleware_LocalOnly(t *testing.T) {
	r := newLimitedRouter(nil, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected burst of 2 to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %v", codes)
	}
}

func TestParseBucketReply(t *testing.T) {
	allowed, remaining, resetAfter, err := parseBucketReply([]any{int64(0), int64(0), int64(250)})
	if err != nil {
		t.Fatalf("parseBucketReply: %v", err)
	}
	if allowed || remaining != 0 || resetAfter != 250*time.Millisecond {
		t.Fatalf("got allowed=%v remaining=%v reset=%v", allowed, remaining, resetAfter)
	}

	allowed, remaining, resetAfter, err = parseBucketReply([]any{int64(1), int64(4), int64(0)})
	if err != nil || !allowed || remaining != 4 || resetAfter != 0 {
		t.Fatalf("got allowed=%v remaining=%v reset=%v err=%v", allowed, remaining, resetAfter, err)
	}

	if _, _, _, err := parseBucketReply("OK"); err == nil {
		t.Fatal("expected error for malformed reply")
	}
}

func TestResetAt(t *testing.T) {
	now := time.Unix(1000, 100*int64(time.Millisecond))

	if got := resetAt(now, 250*time.Millisecond); got != 1001 {
		t.Errorf("sub-second wait should round up to the next second, got %d", got)
	}
	if got := resetAt(time.Unix(1000, 0), 0); got != 1000 {
		t.Errorf("no wait should be now, got %d", got)
	}
	if got := resetAt(now, 1500*time.Millisecond); got != 1002 {
		t.Errorf("got %d, want 1002", got)
	}
}
