package security

import (
	"context"
	"fmt"
	"time"

	"go-placement-portal/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// Sliding window over a sorted set.
// KEYS[1] = key, ARGV = limit, window seconds, now. Returns 1 if allowed.
const uploadRateLimitScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
    return 0
end
redis.call('ZADD', key, now, now .. '-' .. math.random(1000000))
redis.call('EXPIRE', key, window)
return 1
`

// UploadLimiter caps uploads per IP per minute and per account per day.
type UploadLimiter struct {
	maxPerMinute int
	maxPerDay    int
	client       func() *goredis.Client
	localIP      *KeyedLimiter
	localUser    *KeyedLimiter
}

func NewUploadLimiter(perMin, perDay int) *UploadLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	if perDay <= 0 {
		perDay = 50
	}
	return &UploadLimiter{
		maxPerMinute: perMin,
		maxPerDay:    perDay,
		client:       redis.Client,
		localIP:      NewKeyedLimiter(perMin, time.Minute),
		localUser:    NewKeyedLimiter(perDay, 24*time.Hour),
	}
}

// AllowUpload returns (allowed, retryAfterSeconds, error).
// Redis errors fail closed; a missing Redis falls back to in-process buckets.
func (ul *UploadLimiter) AllowUpload(ctx context.Context, ip, userID string) (bool, int, error) {
	client := ul.client()
	if client == nil {
		if !ul.localIP.Allow(ip) {
			return false, 60, nil
		}
		if userID != "" && !ul.localUser.Allow(userID) {
			return false, 3600, nil
		}
		return true, 0, nil
	}

	now := time.Now().Unix()

	allowed, err := checkSlidingWindow(ctx, client, "ratelimit:upload:ip:"+ip, ul.maxPerMinute, 60, now)
	if err != nil {
		return false, 60, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		return false, 60, nil
	}

	if userID != "" {
		allowed, err = checkSlidingWindow(ctx, client, "ratelimit:upload:user:"+userID, ul.maxPerDay, 86400, now)
		if err != nil {
			return false, 3600, fmt.Errorf("rate limit check failed: %w", err)
		}
		if !allowed {
			return false, 3600, nil
		}
	}

	return true, 0, nil
}

func checkSlidingWindow(ctx context.Context, client *goredis.Client, key string, limit, window int, now int64) (bool, error) {
	result, err := client.Eval(ctx, uploadRateLimitScript, []string{key}, limit, window, now).Result()
	if err != nil {
		return false, err
	}
	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script")
	}
	return allowed == 1, nil
}

// StartCleanup prunes idle in-process buckets until stop is closed.
func (ul *UploadLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ul.localIP.StartCleanup(interval, stop)
	ul.localUser.StartCleanup(interval, stop)
}
