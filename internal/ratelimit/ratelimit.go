package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// allowScript refills the bucket from elapsed time, then tries to take one
// token. It returns {allowed, remaining}.
var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local tokens_to_add = math.floor(((now - last_refill) / window) * refill_rate)
	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return {allowed, tokens}
`)

// TokenBucket is a per-key token bucket kept in Redis.
type TokenBucket struct {
	redis    redis.Cmdable
	capacity int64
	refill   int64 // tokens added per window
	window   time.Duration
	now      func() time.Time
}

// NewTokenBucket creates a bucket holding capacity tokens that refills
// refillRate tokens per minute.
func NewTokenBucket(client redis.Cmdable, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    client,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
		now:      time.Now,
	}
}

// Limit is the bucket capacity.
func (tb *TokenBucket) Limit() int64 { return tb.capacity }

// Window is the refill window.
func (tb *TokenBucket) Window() time.Duration { return tb.window }

// Allow consumes a token for subject and action if one is available. It
// returns whether the request may proceed and the tokens left.
func (tb *TokenBucket) Allow(ctx context.Context, subject, action string) (bool, int64, error) {
	res, err := allowScript.Run(ctx, tb.redis, []string{key(subject, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), tb.now().Unix()).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	allowed, _ := vals[0].(int64)
	remaining, _ := vals[1].(int64)

	return allowed == 1, remaining, nil
}

// Reset clears the bucket for subject and action.
func (tb *TokenBucket) Reset(ctx context.Context, subject, action string) error {
	return tb.redis.Del(ctx, key(subject, action)).Err()
}

func key(subject, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", subject, action)
}
