package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-placement-portal/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// LoginTrackerConfig holds configuration for login tracking
type LoginTrackerConfig struct {
	MaxAttempts   int           // failed attempts before block
	AttemptWindow time.Duration // window the counter lives for
	BlockDuration time.Duration
}

func DefaultLoginTrackerConfig() LoginTrackerConfig {
	return LoginTrackerConfig{
		MaxAttempts:   5,
		AttemptWindow: 15 * time.Minute,
		BlockDuration: 15 * time.Minute,
	}
}

const (
	failLoginUserPrefix    = "fail:login:user:"
	blockedLoginUserPrefix = "blocked:login:user:"
)

// KEYS[1] = counter key, ARGV[1] = TTL seconds. Returns count after increment.
const incrWithTTLScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

// LoginTracker counts failed logins per email and blocks after MaxAttempts.
// Redis is primary; an in-process map is used when Redis is not connected.
type LoginTracker struct {
	config LoginTrackerConfig
	logger *SecurityLogger
	client func() *goredis.Client
	now    func() time.Time

	mu    sync.Mutex
	local map[string]*localAttempts
}

type localAttempts struct {
	count        int
	windowEnds   time.Time
	blockedUntil time.Time
}

func NewLoginTracker(config LoginTrackerConfig) *LoginTracker {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultLoginTrackerConfig().MaxAttempts
	}
	return &LoginTracker{
		config: config,
		logger: DefaultLogger(),
		client: redis.Client,
		now:    time.Now,
		local:  make(map[string]*localAttempts),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsBlocked returns whether email is blocked and for how long.
func (lt *LoginTracker) IsBlocked(ctx context.Context, email string) (bool, time.Duration, error) {
	email = normalizeEmail(email)
	if client := lt.client(); client != nil {
		ttl, err := client.TTL(ctx, blockedLoginUserPrefix+email).Result()
		if err != nil {
			return false, 0, fmt.Errorf("failed to check user block: %w", err)
		}
		if ttl > 0 {
			return true, ttl, nil
		}
		return false, 0, nil
	}

	lt.mu.Lock()
	defer lt.mu.Unlock()
	a, ok := lt.local[email]
	if !ok {
		return false, 0, nil
	}
	if remaining := a.blockedUntil.Sub(lt.now()); remaining > 0 {
		return true, remaining, nil
	}
	return false, 0, nil
}

// RecordFailedAttempt increments the counter and creates a block once the limit is reached.
// Returns (blocked, attempts, error).
func (lt *LoginTracker) RecordFailedAttempt(ctx context.Context, email, ip, requestID string) (bool, int, error) {
	email = normalizeEmail(email)
	lt.logger.LogLoginFailed(ctx, email, ip, requestID, "invalid_credentials")

	var count int
	if client := lt.client(); client != nil {
		var err error
		count, err = atomicIncrement(ctx, client, failLoginUserPrefix+email, int(lt.config.AttemptWindow.Seconds()))
		if err != nil {
			return false, 0, fmt.Errorf("failed to increment user counter: %w", err)
		}
		if count >= lt.config.MaxAttempts {
			if err := client.Set(ctx, blockedLoginUserPrefix+email, "1", lt.config.BlockDuration).Err(); err != nil {
				return true, count, fmt.Errorf("failed to set user block: %w", err)
			}
		}
	} else {
		count = lt.recordLocal(email)
	}

	if count >= lt.config.MaxAttempts {
		lt.logger.LogLoginBlocked(ctx, email, ip, requestID, int(lt.config.BlockDuration.Minutes()))
		return true, count, nil
	}
	return false, count, nil
}

func (lt *LoginTracker) recordLocal(email string) int {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := lt.now()
	a, ok := lt.local[email]
	if !ok || now.After(a.windowEnds) {
		a = &localAttempts{windowEnds: now.Add(lt.config.AttemptWindow)}
		lt.local[email] = a
	}
	a.count++
	if a.count >= lt.config.MaxAttempts {
		a.blockedUntil = now.Add(lt.config.BlockDuration)
	}
	return a.count
}

// ClearAttempts resets the counter after a successful login.
func (lt *LoginTracker) ClearAttempts(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if client := lt.client(); client != nil {
		if err := client.Del(ctx, failLoginUserPrefix+email).Err(); err != nil {
			return fmt.Errorf("failed to clear user attempts: %w", err)
		}
		return nil
	}

	lt.mu.Lock()
	delete(lt.local, email)
	lt.mu.Unlock()
	return nil
}

func atomicIncrement(ctx context.Context, client *goredis.Client, key string, ttlSeconds int) (int, error) {
	result, err := client.Eval(ctx, incrWithTTLScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, err
	}
	count, ok := result.(int64)
	if !ok {
		return 0, errors.New("unexpected result type from Lua script")
	}
	return int(count), nil
}
