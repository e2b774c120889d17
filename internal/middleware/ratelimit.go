package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"remindflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix = "remindflow:ratelimit:"
	redisLimitTimeout  = 100 * time.Millisecond
	localLimiterIdle   = 10 * time.Minute
)

// tokenBucketScript refills KEYS[1] at ARGV[1] tokens/s up to ARGV[2] and
// takes ARGV[4] tokens at time ARGV[3].
// Returns { allowed, remaining, reset_after_ms }. Redis truncates Lua numbers
// in replies, so the wait is sent as whole milliseconds.
var tokenBucketScript = redis.NewScript(`
local tokens_key = KEYS[1]
local ts_key = KEYS[2]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local ttl = math.ceil((capacity / rate) * 2)

local tokens = tonumber(redis.call("get", tokens_key))
if tokens == nil then tokens = capacity end
local last = tonumber(redis.call("get", ts_key))
if last == nil then last = now end

local filled = math.min(capacity, tokens + math.max(0, now - last) * rate)
if filled < requested then
    return { 0, filled, math.ceil((requested - filled) / rate * 1000) }
end

filled = filled - requested
redis.call("set", tokens_key, filled, "EX", ttl)
redis.call("set", ts_key, now, "EX", ttl)
return { 1, filled, 0 }
`)

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles write endpoints per client IP. The bucket lives in
// Redis when a client is configured; otherwise, or when Redis errors, an
// in-process limiter takes over.
type RateLimiter struct {
	rdb   *redis.Client
	limit int

	mu    sync.Mutex
	local map[string]*localLimiter
	swept time.Time
}

func NewRateLimiter(rdb *redis.Client, requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &RateLimiter{
		rdb:   rdb,
		limit: requestsPerSecond,
		local: make(map[string]*localLimiter),
		swept: time.Now(),
	}
}

// RateLimitMiddleware is a shorthand for NewRateLimiter(...).Handler().
func RateLimitMiddleware(rdb *redis.Client, requestsPerSecond int) gin.HandlerFunc {
	return NewRateLimiter(rdb, requestsPerSecond).Handler()
}

func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", l.limit))

		if l.rdb != nil {
			allowed, remaining, resetAfter, err := l.allowRedis(c.Request.Context(), clientIP)
			if err == nil {
				c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(remaining)))
				c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt(time.Now(), resetAfter)))
				if !allowed {
					c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
					return
				}
				c.Next()
				return
			}
			logger.Warn("redis rate limit failed, using local limiter",
				zap.Error(err),
				zap.String("ip", clientIP))
		}

		limiter := l.localFor(clientIP)
		if !limiter.Allow() {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(limiter.Tokens())))
		c.Next()
	}
}

func (l *RateLimiter) allowRedis(ctx context.Context, clientIP string) (bool, float64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, redisLimitTimeout)
	defer cancel()

	prefix := rateLimitKeyPrefix + clientIP
	keys := []string{prefix + ":tokens", prefix + ":ts"}
	now := float64(time.Now().UnixMicro()) / 1e6

	result, err := tokenBucketScript.Run(ctx, l.rdb, keys, float64(l.limit), float64(l.limit), now, 1).Result()
	if err != nil {
		return false, 0, 0, err
	}
	return parseBucketReply(result)
}

func parseBucketReply(result any) (bool, float64, time.Duration, error) {
	values, ok := result.([]any)
	if !ok || len(values) != 3 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit reply %v", result)
	}
	resetAfter := time.Duration(toFloat(values[2])) * time.Millisecond
	return toFloat(values[0]) == 1, toFloat(values[1]), resetAfter, nil
}

// resetAt is the X-RateLimit-Reset value: the unix second by which a token
// is available again, rounded up.
func resetAt(now time.Time, resetAfter time.Duration) int64 {
	ms := now.Add(resetAfter).UnixMilli()
	return (ms + 999) / 1000
}

func (l *RateLimiter) localFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.swept) > localLimiterIdle {
		for key, entry := range l.local {
			if now.Sub(entry.lastSeen) > localLimiterIdle {
				delete(l.local, key)
			}
		}
		l.swept = now
	}

	entry, ok := l.local[ip]
	if !ok {
		entry = &localLimiter{limiter: rate.NewLimiter(rate.Limit(l.limit), l.limit)}
		l.local[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// toFloat reads a Lua number reply.
func toFloat(v any) float64 {
	switch val := v.(type) {
	case int64:
		return float64(val)
	case float64:
		return val
	case string:
		var f float64
		fmt.Sscanf(val, "%g", &f)
		return f
	default:
		return 0
	}
}
