package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"bookingbot-engine/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Token bucket in a single Lua call so refill and take are atomic across
// instances sharing one Redis.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + (intervals * refill_tokens))
        last_refill = last_refill + (intervals * interval_ms)
    end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    local until_next = interval_ms - (now_ms - last_refill)
    if until_next < 0 then until_next = 0 end
    retry_after_ms = until_next
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// NewRateLimiter keys the bucket by tenant when authenticated and by client
// IP otherwise. Redis outages fail open: throttling is protection, not a
// correctness guarantee.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := rateKey(c)
		now := time.Now()

		args := []any{
			now.UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.KeyTTL / time.Second),
		}

		vals, err := rateLimitScript.Run(c.Request.Context(), rdb, []string{key}, args...).Result()
		if err != nil {
			c.Next()
			return
		}

		res, ok := vals.([]any)
		if !ok || len(res) != 3 {
			c.Next()
			return
		}
		allowed, _ := res[0].(int64)
		if allowed == 1 {
			c.Next()
			return
		}

		retryAfterMs, _ := res[2].(int64)
		retryAfterSec := int64(math.Ceil(float64(retryAfterMs) / 1000.0))
		if retryAfterSec < 1 {
			retryAfterSec = 1
		}
		c.Header("Retry-After", strconv.FormatInt(retryAfterSec, 10))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Rate limit exceeded",
		})
	}
}

func rateKey(c *gin.Context) string {
	if tenantID, ok := GetTenantID(c); ok {
		return fmt.Sprintf("rl:tenant:%s:%s", tenantID, c.FullPath())
	}
	return fmt.Sprintf("rl:ip:%s:%s", c.ClientIP(), c.FullPath())
}
