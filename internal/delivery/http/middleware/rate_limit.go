package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-placement-portal/config"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/metrics"
	"go-placement-portal/pkg/redis"
	"go-placement-portal/pkg/security"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc extracts the bucket key (default: client IP)
	KeyFunc   func(*gin.Context) string
	KeyPrefix string
	// FailClosed rejects requests when Redis errors instead of falling back
	FailClosed bool
	// Stop ends the fallback cleanup goroutine; nil runs it for the process lifetime
	Stop <-chan struct{}
}

// KEYS[1] = counter key, ARGV[1] = TTL in seconds.
// Returns [current_count, ttl_remaining].
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

func clientIP(c *gin.Context) string {
	return c.ClientIP()
}

// GlobalRateLimitConfig applies to every route.
func GlobalRateLimitConfig(cfg *config.Config) RateLimitConfig {
	return RateLimitConfig{
		Limit:      cfg.RateLimitGlobalThreshold,
		Window:     time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		KeyPrefix:  "rl:ip:",
		FailClosed: false,
		KeyFunc:    clientIP,
	}
}

// LoginRateLimitConfig is the strict limit for credential endpoints.
func LoginRateLimitConfig(cfg *config.Config) RateLimitConfig {
	return RateLimitConfig{
		Limit:      cfg.RateLimitLoginThreshold,
		Window:     time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
		KeyPrefix:  "rl:login:",
		FailClosed: true,
		KeyFunc:    clientIP,
	}
}

// RateLimitMiddleware counts requests in Redis with a fixed window and falls
// back to an in-process token bucket when Redis is not configured.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.KeyFunc == nil {
		config.KeyFunc = clientIP
	}
	local := security.NewKeyedLimiter(config.Limit, config.Window)
	local.StartCleanup(5*time.Minute, config.Stop)

	return func(c *gin.Context) {
		fullKey := config.KeyPrefix + config.KeyFunc(c)

		var (
			allowed   bool
			remaining int
			resetAt   = time.Now().Add(config.Window)
		)

		if client := redis.Client(); client != nil {
			count, reset, err := checkRateLimitRedis(c.Request.Context(), client, fullKey, config)
			if err != nil {
				if config.FailClosed {
					logRateLimitError(c, err)
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
					c.Abort()
					return
				}
				allowed = local.Allow(fullKey)
				remaining = local.Remaining(fullKey)
			} else {
				allowed = count <= config.Limit
				remaining = config.Limit - count
				resetAt = reset
			}
		} else {
			allowed = local.Allow(fullKey)
			remaining = local.Remaining(fullKey)
		}

		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			logRateLimitTriggered(c)
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// UploadRateLimitMiddleware caps uploads per IP per minute and per account
// per day. It must run after AuthMiddleware.
func UploadRateLimitMiddleware(limiter *security.UploadLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(string(domain.KeyUserID))
		allowed, retryAfter, err := limiter.AllowUpload(c.Request.Context(), c.ClientIP(), userID)
		if err != nil {
			logRateLimitError(c, err)
			response.Error(c, http.StatusServiceUnavailable, "Upload service temporarily unavailable", nil)
			c.Abort()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			logRateLimitTriggered(c)
			response.Error(c, http.StatusTooManyRequests, "Upload limit reached. Please try again later.", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func checkRateLimitRedis(ctx context.Context, client *goredis.Client, key string, config RateLimitConfig) (int, time.Time, error) {
	ttlSeconds := int(config.Window.Seconds())

	result, err := client.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

func logRateLimitTriggered(c *gin.Context) {
	metrics.RecordEvent(metrics.EventRateLimited, 1)
	if logger := security.DefaultLogger(); logger != nil {
		logger.LogRateLimitTriggered(
			c.Request.Context(),
			c.ClientIP(),
			c.GetHeader("User-Agent"),
			c.GetString(string(domain.KeyRequestID)),
			c.FullPath(),
		)
	}
}

func logRateLimitError(c *gin.Context, err error) {
	if logger := security.DefaultLogger(); logger != nil {
		logger.Log(c.Request.Context(), security.SecurityEvent{
			Event:       security.EventRateLimitTriggered,
			SubjectType: "system",
			IP:          c.ClientIP(),
			Details: map[string]interface{}{
				"error_type": "redis_error",
				"error":      err.Error(),
			},
		})
	}
}
